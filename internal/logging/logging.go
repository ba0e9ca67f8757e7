// Package logging builds the structured logger shared by long-running commands.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w.
// debug lowers the level to Debug; quiet raises it to Warn.
func New(w io.Writer, debug, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything. Used as the zero value
// by components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
