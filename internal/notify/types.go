// Package notify surfaces reminders and push messages to the user through
// whatever notification mechanism is available.
package notify

import "errors"

// Request asks for a message to be shown. Built by the reminder evaluator or
// received from outside; consumed immediately and never retained.
type Request struct {
	Message string

	// TaskID is empty when the request does not originate from a task.
	TaskID string

	// Urgency is the task's classification ("overdue" or "due-soon"), empty
	// for requests that do not come from a task.
	Urgency string
}

// PushPayload is the JSON body delivered by a push source.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notification is what a surface renders.
type Notification struct {
	ID    string
	Title string
	Body  string
	Icon  string
	Tag   string
}

var (
	// ErrPermissionDenied is returned by a surface the user has not allowed
	// to show notifications.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrUnavailable is returned by a surface that does not exist on this host.
	ErrUnavailable = errors.New("notification surface unavailable")
)
