// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"duewatch/internal/service"
)

// ErrUnreachable is a canned backend failure for error-path tests.
var ErrUnreachable = errors.New("backend unreachable")

// FakeSource is an in-memory implementation of service.Source for testing.
type FakeSource struct {
	mu    sync.RWMutex
	tasks []service.Task
	calls int

	// Error injection for testing
	ListTasksErr error

	// Delay blocks ListTasks until it elapses or the context is done.
	Delay time.Duration
}

// NewFakeSource creates an empty FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

// AddTask adds a task. A zero due time means no due date.
func (f *FakeSource) AddTask(id, title string, due time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: id, Title: title}
	if !due.IsZero() {
		d := due
		t.Due = &d
	}
	f.tasks = append(f.tasks, t)
}

// SetListTasksErr changes the injected error while ListTasks may be running.
func (f *FakeSource) SetListTasksErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListTasksErr = err
}

// Calls returns how many times ListTasks was invoked.
func (f *FakeSource) Calls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls
}

// ListTasks implements service.Source.
func (f *FakeSource) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.calls++
	delay := f.Delay
	err := f.ListTasksErr
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}
