// Package service defines the backend-agnostic interface for reading tasks.
package service

import "context"

// Source is the read-only view of the external task backend.
// The reminder loop never mutates tasks; it only takes a snapshot per cycle.
// Commands never import a backend SDK directly.
type Source interface {
	// ListTasks returns every open task the backend knows about.
	// Results are in backend order (no client-side sorting), which is the
	// order reminders are emitted in.
	ListTasks(ctx context.Context) ([]Task, error)
}
