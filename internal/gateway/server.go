// Package gateway hosts the worker over HTTP: asset requests become fetch
// events and POST /push becomes a push event.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"duewatch/internal/logging"
	"duewatch/internal/worker"
)

// MaxPushBytes caps the size of a push body.
const MaxPushBytes = 64 << 10

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Handler is the subset of the worker the gateway drives.
type Handler interface {
	Handle(ctx context.Context, ev worker.Event) (*worker.Response, error)
}

// NewRouter builds the gateway routes.
func NewRouter(h Handler, log *slog.Logger) http.Handler {
	if log == nil {
		log = logging.Discard()
	}
	a := &api{h: h, log: log}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", healthHandler)
	r.Post("/push", a.pushHandler)
	r.Get("/*", a.fetchHandler)
	r.Head("/*", a.fetchHandler)
	return r
}

type api struct {
	h   Handler
	log *slog.Logger
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *api) pushHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxPushBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	if _, err := a.h.Handle(r.Context(), worker.PushEvent{Data: data}); err != nil {
		if errors.Is(err, worker.ErrBadPayload) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
		a.log.Warn("push failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "push failed"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (a *api) fetchHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := a.h.Handle(r.Context(), worker.FetchEvent{Request: r})
	if err != nil {
		a.log.Debug("fetch failed", "path", r.URL.Path, "err", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}

	for k, vs := range resp.Header {
		// The body is re-sent as-is, so transfer framing headers from the
		// original response no longer apply.
		if k == "Content-Length" || k == "Transfer-Encoding" || k == "Connection" {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	if resp.FromCache {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		w.Write(resp.Body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server runs the gateway until its context is cancelled.
type Server struct {
	Addr    string
	Handler Handler
	Logger  *slog.Logger

	// Ready, if set, receives the bound address once listening.
	Ready func(addr string)
}

// Run listens on Addr and serves until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := s.Logger
	if log == nil {
		log = logging.Discard()
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           NewRouter(s.Handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("gateway listening", "addr", ln.Addr().String())
	if s.Ready != nil {
		s.Ready(ln.Addr().String())
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
