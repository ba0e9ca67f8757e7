package testutil

import (
	"context"
	"sync"

	"duewatch/internal/notify"
)

// FakeSurface records notifications instead of showing them.
type FakeSurface struct {
	mu    sync.Mutex
	name  string
	shown []notify.Notification

	// Err is returned from every Show call when set; nothing is recorded.
	Err error
}

// NewFakeSurface creates a FakeSurface with the given name.
func NewFakeSurface(name string) *FakeSurface {
	return &FakeSurface{name: name}
}

func (f *FakeSurface) Name() string { return f.name }

// Show implements notify.Surface.
func (f *FakeSurface) Show(ctx context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.shown = append(f.shown, n)
	return nil
}

// Shown returns a copy of every recorded notification.
func (f *FakeSurface) Shown() []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Notification, len(f.shown))
	copy(out, f.shown)
	return out
}

// Bodies returns the body of every recorded notification in order.
func (f *FakeSurface) Bodies() []string {
	shown := f.Shown()
	out := make([]string, len(shown))
	for i, n := range shown {
		out[i] = n.Body
	}
	return out
}
