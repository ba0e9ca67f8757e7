package service

import "time"

// Task represents a single to-do item as seen by the reminder loop.
type Task struct {
	ID    string
	Title string

	// Due is nil when the task has no due date.
	Due *time.Time

	// List is the title of the list the task belongs to, if the backend
	// has lists at all.
	List string
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return t.Due != nil && !t.Due.IsZero()
}
