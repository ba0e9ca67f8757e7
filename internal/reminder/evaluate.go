package reminder

import (
	"fmt"
	"time"

	"duewatch/internal/notify"
	"duewatch/internal/service"
)

// Reminder pairs a task with its urgency and the request it produced.
type Reminder struct {
	Task    service.Task
	Urgency Urgency
	Request notify.Request
}

// Evaluate returns one request per overdue or due-soon task, in task order.
// It has no side effects: the same tasks and now always give the same result.
func Evaluate(tasks []service.Task, now time.Time) []notify.Request {
	reminders := Collect(tasks, now)
	if len(reminders) == 0 {
		return nil
	}
	reqs := make([]notify.Request, len(reminders))
	for i, r := range reminders {
		reqs[i] = r.Request
	}
	return reqs
}

// Collect is Evaluate keeping the task and urgency next to each request.
func Collect(tasks []service.Task, now time.Time) []Reminder {
	var out []Reminder
	for _, t := range tasks {
		u := Classify(t.Due, now)
		msg, ok := Message(t.Title, u)
		if !ok {
			continue
		}
		out = append(out, Reminder{
			Task:    t,
			Urgency: u,
			Request: notify.Request{Message: msg, TaskID: t.ID, Urgency: u.String()},
		})
	}
	return out
}

// Message returns the reminder text for a task title, or false for OnTime.
func Message(title string, u Urgency) (string, bool) {
	switch u {
	case Overdue:
		return fmt.Sprintf(`Task "%s" is overdue!`, title), true
	case DueSoon:
		return fmt.Sprintf(`Task "%s" is due in less than a day!`, title), true
	default:
		return "", false
	}
}
