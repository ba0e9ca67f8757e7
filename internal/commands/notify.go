package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"duewatch/internal/config"
	"duewatch/internal/exitcode"
	"duewatch/internal/notify"
	"duewatch/internal/queue"
	"duewatch/internal/service"
)

func init() {
	Register(&NotifyCmd{})
}

// Publisher sends push payloads to the broker.
type Publisher interface {
	Publish(ctx context.Context, key string, p notify.PushPayload) error
	Close() error
}

// NotifyCmd shows a push-style notification, or publishes it to Kafka with
// --publish.
type NotifyCmd struct {
	Runtime

	// Publisher replaces the Kafka producer.
	Publisher Publisher

	title   string
	publish bool
}

// SetTitle sets the --title value (for testing).
func (c *NotifyCmd) SetTitle(title string) { c.title = title }

// SetPublish sets the --publish value (for testing).
func (c *NotifyCmd) SetPublish(v bool) { c.publish = v }

func (c *NotifyCmd) Name() string      { return "notify" }
func (c *NotifyCmd) Aliases() []string { return []string{"push"} }
func (c *NotifyCmd) Synopsis() string  { return "Show or publish a notification" }
func (c *NotifyCmd) Usage() string {
	return "duewatch notify [--title <title>] [--publish] <body...>"
}
func (c *NotifyCmd) NeedsSource() bool { return false }

func (c *NotifyCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.BoolVar(&c.publish, "publish", false, "")
}

func (c *NotifyCmd) Run(ctx context.Context, cfg *config.Config, src service.Source, args []string, out, errOut io.Writer) int {
	body := strings.TrimSpace(strings.Join(args, " "))
	if body == "" {
		fmt.Fprintln(errOut, "error: message body required")
		return exitcode.UserError
	}

	s := cfg.Current()
	title := strings.TrimSpace(c.title)
	if title == "" {
		title = s.Notify.AppName
	}
	payload := notify.PushPayload{Title: title, Body: body}

	if !c.publish {
		c.dispatcher(cfg, out, c.logger(cfg, errOut)).DispatchPush(ctx, payload)
		return exitcode.Success
	}

	p := c.Publisher
	if p == nil {
		k := s.Push.Kafka
		if len(k.Brokers) == 0 {
			fmt.Fprintln(errOut, "error: no kafka brokers configured")
			return exitcode.UserError
		}
		prod, err := queue.NewProducer(k.Brokers, k.Topic)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		p = prod
	}
	defer p.Close()

	if err := p.Publish(ctx, uuid.NewString(), payload); err != nil {
		fmt.Fprintf(errOut, "error: publish failed: %v\n", err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
