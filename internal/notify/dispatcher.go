package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"duewatch/internal/logging"
)

// Surface is a user-facing notification mechanism.
// Implementations serialise their own calls; the dispatcher may be used from
// the poll loop and a push handler at the same time.
type Surface interface {
	Name() string
	Show(ctx context.Context, n Notification) error
}

// Dispatcher surfaces notifications through the first surface that accepts
// them. It never reports failure to its caller: when no surface can show a
// notification the call is a no-op.
//
// Identical requests are not deduplicated, so a reminder repeats every poll
// cycle for as long as its condition holds.
type Dispatcher struct {
	surfaces []Surface
	appName  string
	icon     string
	log      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithAppName sets the title used for reminder notifications.
func WithAppName(name string) Option {
	return func(d *Dispatcher) { d.appName = name }
}

// WithIcon sets the icon attached to push notifications.
func WithIcon(icon string) Option {
	return func(d *Dispatcher) { d.icon = icon }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// NewDispatcher creates a dispatcher trying surfaces in the given order.
func NewDispatcher(surfaces []Surface, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		surfaces: surfaces,
		appName:  "Task Reminder",
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch shows a reminder message.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) {
	d.show(ctx, Notification{
		ID:    uuid.NewString(),
		Title: d.appName,
		Body:  req.Message,
		Tag:   req.TaskID,
	})
}

// DispatchPush shows a push message right away, tagged with the push icon.
func (d *Dispatcher) DispatchPush(ctx context.Context, p PushPayload) {
	d.show(ctx, Notification{
		ID:    uuid.NewString(),
		Title: p.Title,
		Body:  p.Body,
		Icon:  d.icon,
	})
}

func (d *Dispatcher) show(ctx context.Context, n Notification) {
	for _, s := range d.surfaces {
		err := s.Show(ctx, n)
		if err == nil {
			d.log.Debug("notification shown", "id", n.ID, "surface", s.Name(), "tag", n.Tag)
			return
		}
		if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrUnavailable) {
			d.log.Debug("surface skipped", "surface", s.Name(), "err", err)
			continue
		}
		d.log.Warn("surface failed", "surface", s.Name(), "err", err)
	}
	d.log.Debug("notification dropped: no surface available", "id", n.ID)
}
