package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"duewatch/internal/config"
	"duewatch/internal/exitcode"
	"duewatch/internal/output"
	"duewatch/internal/reminder"
	"duewatch/internal/service"
)

func init() {
	Register(&CheckCmd{})
}

// CheckCmd runs one evaluation cycle and prints the reminders.
// Handles both `duewatch` (no args) and `duewatch check`.
type CheckCmd struct {
	Runtime

	// Now defaults to time.Now.
	Now func() time.Time

	notify bool
}

// SetNotify enables dispatching (for testing).
func (c *CheckCmd) SetNotify(v bool) {
	c.notify = v
}

func (c *CheckCmd) Name() string      { return "check" }
func (c *CheckCmd) Aliases() []string { return nil }
func (c *CheckCmd) Synopsis() string  { return "Print overdue and due-soon tasks" }
func (c *CheckCmd) Usage() string     { return "duewatch check [--notify]" }
func (c *CheckCmd) NeedsSource() bool { return true }

func (c *CheckCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.notify, "notify", false, "")
}

func (c *CheckCmd) Run(ctx context.Context, cfg *config.Config, src service.Source, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, err := src.ListTasks(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	reminders := reminder.Collect(tasks, now())

	if len(reminders) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no reminders")
		}
		return exitcode.Success
	}

	for _, r := range reminders {
		output.FormatReminder(out, r)
	}

	if c.notify {
		d := c.dispatcher(cfg, out, c.logger(cfg, errOut))
		for _, r := range reminders {
			d.Dispatch(ctx, r.Request)
		}
	}
	return exitcode.Success
}
