// Package httpsource implements service.Source over a plain JSON endpoint.
package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"duewatch/internal/logging"
	"duewatch/internal/service"
)

// DefaultTimeout is used when the caller passes a zero timeout.
const DefaultTimeout = 10 * time.Second

// MaxBodyBytes caps the size of a task listing.
const MaxBodyBytes = 8 << 20

// Client fetches tasks from a URL.
type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration

	// Logger reports tasks whose due date could not be read.
	Logger *slog.Logger
}

// New returns a client for url. A nil httpClient uses http.DefaultClient.
func New(url string, timeout time.Duration, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("tasks url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, client: httpClient, timeout: timeout, Logger: logging.Discard()}, nil
}

type rawTask struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	DueDate   *string         `json:"due_date"`
	Completed bool            `json:"completed"`
	List      string          `json:"list"`
}

type envelope struct {
	Items []rawTask `json:"items"`
	Tasks []rawTask `json:"tasks"`
}

// ListTasks fetches the listing and returns open tasks in response order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("request timed out")
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("tasks endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}

	raw, err := decode(body)
	if err != nil {
		return nil, err
	}

	var result []service.Task
	for i, r := range raw {
		if r.Completed {
			continue
		}
		t := service.Task{
			ID:    taskID(r.ID, i),
			Title: r.Title,
			List:  r.List,
		}
		if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
			// An unreadable date only loses that task's reminder.
			due, err := ParseDue(*r.DueDate)
			if err != nil {
				c.logger().Warn("ignoring due date", "task", t.ID, "err", err)
			} else {
				t.Due = &due
			}
		}
		result = append(result, t)
	}
	return result, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

func decode(body []byte) ([]rawTask, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []rawTask
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("invalid tasks JSON: %w", err)
		}
		return list, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid tasks JSON: %w", err)
	}
	if env.Items != nil {
		return env.Items, nil
	}
	return env.Tasks, nil
}

// taskID accepts string and numeric ids; tasks without one get their
// position in the listing.
func taskID(raw json.RawMessage, index int) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return n.String()
	}
	return fmt.Sprintf("#%d", index+1)
}

// Layouts for timestamps without an offset, read as local time. The
// minute-precision form is what datetime-local inputs submit.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDue parses a due date. Timestamps with an offset must be RFC3339;
// timestamps without one are local time; bare dates are midnight UTC.
func ParseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}
