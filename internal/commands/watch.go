package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sync"

	"duewatch/internal/cache"
	"duewatch/internal/config"
	"duewatch/internal/exitcode"
	"duewatch/internal/gateway"
	"duewatch/internal/queue"
	"duewatch/internal/scheduler"
	"duewatch/internal/service"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd runs the reminder loop until interrupted. When worker.listen is
// set the gateway runs alongside it, and when Kafka brokers are configured
// push messages are consumed as well.
type WatchCmd struct {
	Runtime

	// Clock replaces the system clock.
	Clock scheduler.Clock

	// Ready, if set, receives the gateway address.
	Ready func(addr string)
}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return []string{"run"} }
func (c *WatchCmd) Synopsis() string  { return "Check tasks periodically and notify" }
func (c *WatchCmd) Usage() string     { return "duewatch watch" }
func (c *WatchCmd) NeedsSource() bool { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, src service.Source, args []string, out, errOut io.Writer) int {
	s := cfg.Current()
	log := c.logger(cfg, errOut)
	d := c.dispatcher(cfg, out, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	brokers := s.Push.Kafka.Brokers
	if s.Worker.Listen != "" || len(brokers) > 0 {
		var store cache.Store = cache.NewMemoryStore()
		if s.Worker.Listen != "" {
			st, release, err := c.openStore(cfg)
			if err != nil {
				fmt.Fprintf(errOut, "error: opening asset cache: %v\n", err)
				return exitcode.AuthError
			}
			defer release()
			store = st
		}

		w, err := c.worker(cfg, store, d, log)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}

		if s.Worker.Listen != "" {
			if _, _, err := installAndActivate(ctx, w); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.InstallError
			}
			srv := &gateway.Server{Addr: s.Worker.Listen, Handler: w, Logger: log, Ready: c.Ready}
			start("gateway", srv.Run)
		}

		if len(brokers) > 0 {
			k := s.Push.Kafka
			consumer := queue.NewConsumer(brokers, k.Topic, k.GroupID, pushHandler(w), log)
			defer consumer.Close()
			start("kafka", consumer.Run)
		}
	}

	poller := &scheduler.Poller{
		Source:       src,
		Notifier:     d,
		Clock:        c.Clock,
		Interval:     s.Reminder.Interval,
		Timeout:      s.Source.Timeout,
		CheckOnStart: s.Reminder.CheckOnStart,
		Logger:       log,
	}
	start("reminders", poller.Run)

	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
