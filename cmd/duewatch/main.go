// Package main is the entry point for the duewatch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"duewatch/internal/backend/googletasks"
	"duewatch/internal/backend/httpsource"
	"duewatch/internal/cli"
	"duewatch/internal/commands"
	"duewatch/internal/config"
	"duewatch/internal/logging"
	"duewatch/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newSource)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newSource picks the backend named by source.kind.
func newSource(ctx context.Context, cfg *config.Config) (service.Source, error) {
	s := cfg.Current().Source
	switch s.Kind {
	case config.SourceHTTP:
		c, err := httpsource.New(s.URL, s.Timeout, nil)
		if err != nil {
			return nil, err
		}
		c.Logger = logging.New(os.Stderr, cfg.Debug, cfg.Quiet)
		return c, nil
	case config.SourceGoogle:
		return googletasks.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown task source: %s", s.Kind)
	}
}
