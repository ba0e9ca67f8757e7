// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"duewatch/internal/config"
	"duewatch/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsSource returns true if the command reads tasks.
	NeedsSource() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided with settings loaded.
	// src is nil if NeedsSource() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, src service.Source, args []string, out, errOut io.Writer) int
}
