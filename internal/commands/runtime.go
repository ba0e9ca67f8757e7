package commands

import (
	"context"
	"io"
	"log/slog"

	"duewatch/internal/cache"
	"duewatch/internal/config"
	"duewatch/internal/logging"
	"duewatch/internal/notify"
	"duewatch/internal/worker"
)

// Runtime holds the pieces commands build from settings. Zero fields are
// built from the config; tests set them directly.
type Runtime struct {
	// Surfaces replaces the surfaces chosen by notify.surface.
	Surfaces []notify.Surface

	// Store replaces the SQLite asset cache. It is not closed by commands.
	Store cache.Store

	// Logger replaces the stderr logger.
	Logger *slog.Logger
}

func (rt *Runtime) logger(cfg *config.Config, errOut io.Writer) *slog.Logger {
	if rt.Logger != nil {
		return rt.Logger
	}
	return logging.New(errOut, cfg.Debug, cfg.Quiet)
}

// surfaces returns the surfaces in fallback order. The terminal surface
// prints to out.
func (rt *Runtime) surfaces(cfg *config.Config, out io.Writer) []notify.Surface {
	if rt.Surfaces != nil {
		return rt.Surfaces
	}
	switch cfg.Current().Notify.Surface {
	case config.SurfaceDesktop:
		return []notify.Surface{notify.NewDesktopSurface()}
	case config.SurfaceTerminal:
		return []notify.Surface{notify.NewTerminalSurface(out)}
	default:
		return []notify.Surface{notify.NewDesktopSurface(), notify.NewTerminalSurface(out)}
	}
}

func (rt *Runtime) dispatcher(cfg *config.Config, out io.Writer, log *slog.Logger) *notify.Dispatcher {
	s := cfg.Current().Notify
	return notify.NewDispatcher(rt.surfaces(cfg, out),
		notify.WithAppName(s.AppName),
		notify.WithIcon(s.Icon),
		notify.WithLogger(log),
	)
}

// openStore returns the asset cache and a func releasing it.
func (rt *Runtime) openStore(cfg *config.Config) (cache.Store, func(), error) {
	if rt.Store != nil {
		return rt.Store, func() {}, nil
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, nil, err
	}
	s, err := cache.OpenSQLite(cfg.CacheDBPath())
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

func (rt *Runtime) worker(cfg *config.Config, store cache.Store, d worker.PushDispatcher, log *slog.Logger) (*worker.Worker, error) {
	s := cfg.Current().Worker
	return worker.New(worker.Config{
		Origin:    s.Origin,
		CacheName: s.CacheName,
		Manifest:  s.Manifest,
	}, store, d, worker.WithLogger(log))
}

// installAndActivate brings the asset cache up to date: install the current
// bucket, then drop the others. Activation only runs after a successful
// install.
func installAndActivate(ctx context.Context, w *worker.Worker) ([]cache.Entry, []string, error) {
	entries, err := w.Install(ctx)
	if err != nil {
		return nil, nil, err
	}
	dropped, err := w.Activate(ctx)
	return entries, dropped, err
}

// pushHandler feeds broker messages to the worker as push events.
func pushHandler(w *worker.Worker) func(ctx context.Context, value []byte) error {
	return func(ctx context.Context, value []byte) error {
		_, err := w.Handle(ctx, worker.PushEvent{Data: value})
		return err
	}
}
