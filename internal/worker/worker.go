// Package worker implements the background worker: it pre-caches a fixed
// asset manifest, answers asset fetches cache-first and relays push
// payloads to the notification dispatcher.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"duewatch/internal/cache"
	"duewatch/internal/logging"
	"duewatch/internal/notify"
)

// FetchTimeout bounds a single network fetch.
const FetchTimeout = 10 * time.Second

// PushDispatcher receives decoded push payloads.
type PushDispatcher interface {
	DispatchPush(ctx context.Context, p notify.PushPayload)
}

// Config describes the asset manifest and where to fetch it from.
type Config struct {
	// Origin is the base URL every asset path is resolved against.
	Origin string

	// CacheName is the versioned bucket name. Changing it is the only way
	// old assets get dropped.
	CacheName string

	// Manifest lists absolute asset paths cached at install time.
	Manifest []string
}

// Worker handles install, activate, fetch and push events.
type Worker struct {
	cfg        Config
	origin     *url.URL
	store      cache.Store
	client     *http.Client
	dispatcher PushDispatcher
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Worker.
type Option func(*Worker)

// WithHTTPClient sets the client used for network fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Worker) { w.client = c }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Worker) { w.log = log }
}

// New creates a Worker.
func New(cfg Config, store cache.Store, dispatcher PushDispatcher, opts ...Option) (*Worker, error) {
	origin, err := url.Parse(strings.TrimSpace(cfg.Origin))
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", cfg.Origin, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin %q: scheme and host are required", cfg.Origin)
	}
	if cfg.CacheName == "" {
		return nil, cache.ErrEmptyBucket
	}

	w := &Worker{
		cfg:        cfg,
		origin:     origin,
		store:      store,
		client:     &http.Client{Timeout: FetchTimeout},
		dispatcher: dispatcher,
		log:        logging.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// CacheName returns the bucket this worker installs into.
func (w *Worker) CacheName() string { return w.cfg.CacheName }

// Install fetches every manifest asset and stores them in the current
// bucket. If any asset fails nothing is stored and an *InstallError is
// returned; the host is expected to retry the install later.
func (w *Worker) Install(ctx context.Context) ([]cache.Entry, error) {
	entries := make([]cache.Entry, 0, len(w.cfg.Manifest))
	for _, path := range w.cfg.Manifest {
		u := w.Resolve(path)
		e, err := w.fetch(ctx, u)
		if err != nil {
			return nil, &InstallError{URL: u, Err: err}
		}
		if e.Status < 200 || e.Status > 299 {
			return nil, &InstallError{URL: u, Err: fmt.Errorf("bad status %d", e.Status)}
		}
		entries = append(entries, *e)
	}

	if err := w.store.Put(ctx, w.cfg.CacheName, entries...); err != nil {
		return nil, &InstallError{Err: err}
	}
	w.log.Info("asset cache installed", "cache", w.cfg.CacheName, "assets", len(entries))
	return entries, nil
}

// Activate drops every bucket other than the current one and returns the
// names it removed.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	names, err := w.store.Buckets(ctx)
	if err != nil {
		return nil, err
	}

	var dropped []string
	for _, name := range names {
		if name == w.cfg.CacheName {
			continue
		}
		ok, err := w.store.Delete(ctx, name)
		if err != nil {
			return dropped, fmt.Errorf("drop cache %s: %w", name, err)
		}
		if ok {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) > 0 {
		w.log.Info("old asset caches dropped", "caches", dropped)
	}
	return dropped, nil
}

// Fetch answers a request from the cache, falling back to the network on a
// miss. Network responses are not written back to the cache.
func (w *Worker) Fetch(ctx context.Context, r *http.Request) (*Response, error) {
	u := w.Resolve(r.URL.RequestURI())

	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		hit, err := w.store.Match(ctx, u)
		if err != nil {
			w.log.Warn("cache lookup failed", "url", u, "err", err)
		}
		if hit != nil {
			return &Response{Entry: *hit, FromCache: true}, nil
		}
	}

	e, err := w.fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	return &Response{Entry: *e}, nil
}

// Push decodes a {title, body} payload and shows it immediately.
func (w *Worker) Push(ctx context.Context, data []byte) error {
	var p notify.PushPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	w.dispatcher.DispatchPush(ctx, p)
	return nil
}

// Resolve turns an asset path into the absolute URL used as cache key.
func (w *Worker) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return w.origin.String() + path
	}
	return w.origin.ResolveReference(ref).String()
}

func (w *Worker) fetch(ctx context.Context, u string) (*cache.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return &cache.Entry{
		URL:      u,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     buf.Bytes(),
		StoredAt: w.now(),
	}, nil
}
