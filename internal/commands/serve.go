package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"duewatch/internal/config"
	"duewatch/internal/exitcode"
	"duewatch/internal/gateway"
	"duewatch/internal/service"
)

// DefaultListen is the gateway address when neither --addr nor
// worker.listen is set.
const DefaultListen = "127.0.0.1:8080"

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the worker gateway alone.
type ServeCmd struct {
	Runtime

	// Ready, if set, receives the bound address.
	Ready func(addr string)

	addr string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve cached assets and accept pushes" }
func (c *ServeCmd) Usage() string     { return "duewatch serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsSource() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, src service.Source, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Current().Worker.Listen
	}
	if addr == "" {
		addr = DefaultListen
	}

	log := c.logger(cfg, errOut)

	store, release, err := c.openStore(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: opening asset cache: %v\n", err)
		return exitcode.AuthError
	}
	defer release()

	w, err := c.worker(cfg, store, c.dispatcher(cfg, out, log), log)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if _, _, err := installAndActivate(ctx, w); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.InstallError
	}

	srv := &gateway.Server{
		Addr:    addr,
		Handler: w,
		Logger:  log,
		Ready:   c.Ready,
	}
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
