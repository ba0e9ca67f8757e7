// Package reminder classifies tasks by how close their due date is and turns
// the urgent ones into notification requests.
package reminder

import "time"

// DueSoonWindow is how far ahead of its due date a task starts to be
// reported as due soon.
const DueSoonWindow = 24 * time.Hour

// Urgency is the derived classification of a task at a point in time.
type Urgency int

const (
	// OnTime tasks are due later than DueSoonWindow, or have no due date.
	OnTime Urgency = iota
	// DueSoon tasks are due within DueSoonWindow.
	DueSoon
	// Overdue tasks are past their due date.
	Overdue
)

func (u Urgency) String() string {
	switch u {
	case OnTime:
		return "on-time"
	case DueSoon:
		return "due-soon"
	case Overdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// Classify returns the urgency of a due date at now. A nil or zero due date
// is always OnTime.
func Classify(due *time.Time, now time.Time) Urgency {
	if due == nil || due.IsZero() {
		return OnTime
	}
	if due.Before(now) {
		return Overdue
	}
	if due.Sub(now) < DueSoonWindow {
		return DueSoon
	}
	return OnTime
}
