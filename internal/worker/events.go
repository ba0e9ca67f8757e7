package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"duewatch/internal/cache"
)

// ErrBadPayload is returned for push data that is not a {title, body} object.
var ErrBadPayload = errors.New("invalid push payload")

// InstallError reports a failed install. Nothing was cached.
type InstallError struct {
	// URL is the asset that failed; empty when storing the bucket failed.
	URL string
	Err error
}

func (e *InstallError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("cache install failed: %v", e.Err)
	}
	return fmt.Sprintf("cache install failed: %s: %v", e.URL, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Response is the answer to a fetch event.
type Response struct {
	cache.Entry
	FromCache bool
}

// Event is one of InstallEvent, ActivateEvent, FetchEvent or PushEvent.
type Event interface {
	Kind() string
}

// InstallEvent asks the worker to populate its cache bucket.
type InstallEvent struct{}

// ActivateEvent asks the worker to drop outdated cache buckets.
type ActivateEvent struct{}

// FetchEvent asks the worker to answer an asset request.
type FetchEvent struct {
	Request *http.Request
}

// PushEvent carries a raw push message.
type PushEvent struct {
	Data []byte
}

func (InstallEvent) Kind() string  { return "install" }
func (ActivateEvent) Kind() string { return "activate" }
func (FetchEvent) Kind() string    { return "fetch" }
func (PushEvent) Kind() string     { return "push" }

// Handle dispatches an event to its handler. Only fetch events produce a
// response.
func (w *Worker) Handle(ctx context.Context, ev Event) (*Response, error) {
	switch e := ev.(type) {
	case InstallEvent:
		_, err := w.Install(ctx)
		return nil, err
	case ActivateEvent:
		_, err := w.Activate(ctx)
		return nil, err
	case FetchEvent:
		if e.Request == nil {
			return nil, errors.New("fetch event without request")
		}
		return w.Fetch(ctx, e.Request)
	case PushEvent:
		return nil, w.Push(ctx, e.Data)
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}
}
