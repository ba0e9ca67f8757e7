// Package googletasks implements service.Source using the Google Tasks API.
package googletasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"duewatch/internal/config"
	"duewatch/internal/service"
)

const (
	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// TasksScope is the read-only Google Tasks OAuth scope.
	TasksScope = tasks.TasksReadonlyScope
)

// Client implements service.Source using Google Tasks API.
type Client struct {
	svc *tasks.Service
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oc, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Token source refreshes on its own
	httpClient := oauth2.NewClient(ctx, oc.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithEndpoint creates a client against a custom endpoint (for testing).
func NewWithEndpoint(ctx context.Context, httpClient *http.Client, endpoint string) (*Client, error) {
	svc, err := tasks.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc}, nil
}

// ListTasks returns the open tasks of every list, lists in API order and
// tasks in API order within each list.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	lists, err := c.listLists(ctx)
	if err != nil {
		return nil, err
	}

	var result []service.Task
	for _, list := range lists {
		items, err := c.listOpenTasks(ctx, list)
		if err != nil {
			return nil, err
		}
		result = append(result, items...)
	}
	return result, nil
}

func (c *Client) listLists(ctx context.Context) ([]*tasks.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []*tasks.TaskList
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		result = append(result, resp.Items...)
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

func (c *Client) listOpenTasks(ctx context.Context, list *tasks.TaskList) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	call := c.svc.Tasks.List(list.Id).
		MaxResults(PageSize).
		ShowCompleted(false).
		ShowDeleted(false).
		ShowHidden(false)

	var result []service.Task
	err := call.Pages(ctx, func(resp *tasks.Tasks) error {
		for _, task := range resp.Items {
			t := service.Task{
				ID:    task.Id,
				Title: task.Title,
				List:  list.Title,
			}
			if task.Due != "" {
				due, err := time.Parse(time.RFC3339, task.Due)
				if err != nil {
					return fmt.Errorf("task %s: invalid due date %q", task.Id, task.Due)
				}
				t.Due = &due
			}
			result = append(result, t)
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Check for timeout
	if strings.Contains(errStr, "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	// Check for auth errors
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return fmt.Errorf("token expired or revoked (run: duewatch login)")
	}

	// Check for not found
	if strings.Contains(errStr, "404") {
		return fmt.Errorf("not found")
	}

	return err
}
