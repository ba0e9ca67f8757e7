package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"duewatch/internal/config"
	"duewatch/internal/exitcode"
	"duewatch/internal/output"
	"duewatch/internal/service"
)

func init() {
	Register(&InstallCmd{})
}

// InstallCmd installs and activates the asset cache once.
type InstallCmd struct {
	Runtime
}

func (c *InstallCmd) Name() string      { return "install" }
func (c *InstallCmd) Aliases() []string { return nil }
func (c *InstallCmd) Synopsis() string  { return "Populate the asset cache" }
func (c *InstallCmd) Usage() string     { return "duewatch install" }
func (c *InstallCmd) NeedsSource() bool { return false }

func (c *InstallCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InstallCmd) Run(ctx context.Context, cfg *config.Config, src service.Source, args []string, out, errOut io.Writer) int {
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

	entries, dropped, err := installAndActivate(ctx, w)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.InstallError
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	output.FormatSectionHeader(out, w.CacheName())
	for _, e := range entries {
		output.FormatCacheEntry(out, e)
	}
	for _, name := range dropped {
		output.FormatDropped(out, name)
	}
	return exitcode.Success
}
