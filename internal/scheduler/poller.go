// Package scheduler runs the reminder check on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"duewatch/internal/logging"
	"duewatch/internal/notify"
	"duewatch/internal/reminder"
	"duewatch/internal/service"
)

// DefaultInterval is the time between two reminder checks.
const DefaultInterval = time.Minute

// Clock tells the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Notifier receives the requests produced by a tick.
type Notifier interface {
	Dispatch(ctx context.Context, req notify.Request)
}

// Ticker produces tick times until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Poller fetches tasks every Interval and dispatches a request for each
// overdue or due-soon task.
type Poller struct {
	Source   service.Source
	Notifier Notifier
	Clock    Clock

	// Interval defaults to DefaultInterval.
	Interval time.Duration

	// Timeout bounds a single task fetch. Zero means only the run context
	// bounds it.
	Timeout time.Duration

	// CheckOnStart runs one tick as soon as Run starts instead of waiting
	// a full interval.
	CheckOnStart bool

	Logger *slog.Logger

	// NewTicker is used by Run; defaults to time.NewTicker.
	NewTicker func(d time.Duration) Ticker
}

// Tick runs one check cycle and returns the dispatched requests.
// A failed fetch ends the cycle with no requests; the error is logged and
// never returned, so the next tick runs as usual.
func (p *Poller) Tick(ctx context.Context) []notify.Request {
	log := p.logger()

	fetchCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	tasks, err := p.Source.ListTasks(fetchCtx)
	if err != nil {
		log.Warn("task fetch failed, skipping cycle", "err", err)
		return nil
	}

	now := p.clock().Now()
	reqs := reminder.Evaluate(tasks, now)
	log.Debug("reminder check", "tasks", len(tasks), "reminders", len(reqs))

	for _, req := range reqs {
		p.Notifier.Dispatch(ctx, req)
	}
	return reqs
}

// Run ticks every interval until ctx is cancelled, then waits for in-flight
// ticks to finish. Each tick runs on its own goroutine so a slow fetch never
// delays the next one; overlapping ticks are allowed since ticks share no
// state.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	newTicker := p.NewTicker
	if newTicker == nil {
		newTicker = func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	spawn := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Tick(ctx)
		}()
	}

	p.logger().Info("reminder loop started", "interval", interval)
	if p.CheckOnStart {
		spawn()
	}

	ticker := newTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger().Info("reminder loop stopped")
			return nil
		case <-ticker.C():
			spawn()
		}
	}
}

func (p *Poller) clock() Clock {
	if p.Clock == nil {
		return SystemClock
	}
	return p.Clock
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}
