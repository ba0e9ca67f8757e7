package scheduler_test

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duewatch/internal/logging"
	"duewatch/internal/notify"
	"duewatch/internal/scheduler"
	"duewatch/internal/service"
	"duewatch/internal/testutil"
)

var fixedNow = time.Date(2025, 4, 9, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	reqs []notify.Request
}

func (r *recorder) Dispatch(ctx context.Context, req notify.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.reqs))
	for i, req := range r.reqs {
		out[i] = req.Message
	}
	return out
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func newPoller(src service.Source, rec *recorder) *scheduler.Poller {
	return &scheduler.Poller{
		Source:   src,
		Notifier: rec,
		Clock:    scheduler.ClockFunc(func() time.Time { return fixedNow }),
	}
}

func TestTick_DispatchesInTaskOrder(t *testing.T) {
	src := testutil.NewFakeSource()
	src.AddTask("1", "Report", fixedNow.Add(-time.Hour))
	src.AddTask("2", "Plan", fixedNow.Add(48*time.Hour))
	src.AddTask("3", "Review", fixedNow.Add(2*time.Hour))
	src.AddTask("4", "Someday", time.Time{})

	rec := &recorder{}
	reqs := newPoller(src, rec).Tick(context.Background())

	want := []string{
		`Task "Report" is overdue!`,
		`Task "Review" is due in less than a day!`,
	}
	assert.Equal(t, want, rec.messages())
	require.Len(t, reqs, 2)
	assert.Equal(t, "1", reqs[0].TaskID)
	assert.Equal(t, "3", reqs[1].TaskID)
	assert.Equal(t, "overdue", reqs[0].Urgency)
	assert.Equal(t, "due-soon", reqs[1].Urgency)
}

func TestTick_FetchFailureIsSilent(t *testing.T) {
	src := testutil.NewFakeSource()
	src.AddTask("1", "Report", fixedNow.Add(-time.Hour))
	src.ListTasksErr = testutil.ErrUnreachable

	var logs bytes.Buffer
	rec := &recorder{}
	p := newPoller(src, rec)
	p.Logger = logging.New(&logs, false, false)

	var reqs []notify.Request
	assert.NotPanics(t, func() { reqs = p.Tick(context.Background()) })
	assert.Empty(t, reqs)
	assert.Empty(t, rec.messages())
	assert.Contains(t, logs.String(), "task fetch failed")
}

func TestTick_TimeoutSkipsCycle(t *testing.T) {
	src := testutil.NewFakeSource()
	src.AddTask("1", "Report", fixedNow.Add(-time.Hour))
	src.Delay = time.Second

	rec := &recorder{}
	p := newPoller(src, rec)
	p.Timeout = 10 * time.Millisecond

	assert.Empty(t, p.Tick(context.Background()))
	assert.Empty(t, rec.messages())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	src := testutil.NewFakeSource()
	src.AddTask("1", "Report", fixedNow.Add(-time.Hour))

	ticker := &manualTicker{ch: make(chan time.Time)}
	rec := &recorder{}
	p := newPoller(src, rec)
	p.Interval = time.Hour
	p.NewTicker = func(d time.Duration) scheduler.Ticker {
		assert.Equal(t, time.Hour, d)
		return ticker
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	ticker.ch <- fixedNow
	ticker.ch <- fixedNow
	require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, ticker.stopped.Load())
	assert.Equal(t, 2, src.Calls())
}

func TestRun_RecoversAfterFailedFetch(t *testing.T) {
	src := testutil.NewFakeSource()
	src.AddTask("1", "Report", fixedNow.Add(-time.Hour))
	src.SetListTasksErr(testutil.ErrUnreachable)

	ticker := &manualTicker{ch: make(chan time.Time)}
	rec := &recorder{}
	p := newPoller(src, rec)
	p.NewTicker = func(time.Duration) scheduler.Ticker { return ticker }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	ticker.ch <- fixedNow
	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.messages())

	src.SetListTasksErr(nil)
	ticker.ch <- fixedNow
	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`Task "Report" is overdue!`}, rec.messages())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 2, src.Calls())
}

func TestRun_CheckOnStart(t *testing.T) {
	src := testutil.NewFakeSource()
	src.AddTask("1", "Report", fixedNow.Add(-time.Hour))

	rec := &recorder{}
	p := newPoller(src, rec)
	p.CheckOnStart = true
	p.NewTicker = func(time.Duration) scheduler.Ticker { return &manualTicker{ch: make(chan time.Time)} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

// blockingSource blocks its first call until released.
type blockingSource struct {
	calls   atomic.Int32
	release chan struct{}
	tasks   []service.Task
}

func (b *blockingSource) ListTasks(ctx context.Context) ([]service.Task, error) {
	if b.calls.Add(1) == 1 {
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return b.tasks, nil
}

func TestRun_SlowTickDoesNotBlockNext(t *testing.T) {
	due := fixedNow.Add(-time.Hour)
	src := &blockingSource{
		release: make(chan struct{}),
		tasks:   []service.Task{{ID: "1", Title: "Report", Due: &due}},
	}

	ticker := &manualTicker{ch: make(chan time.Time)}
	rec := &recorder{}
	p := newPoller(src, rec)
	p.NewTicker = func(time.Duration) scheduler.Ticker { return ticker }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	ticker.ch <- fixedNow // blocks inside the source
	ticker.ch <- fixedNow // must still be served

	require.Eventually(t, func() bool { return len(rec.messages()) == 1 }, time.Second, 5*time.Millisecond)

	close(src.release)
	require.Eventually(t, func() bool { return len(rec.messages()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRun_WaitsForInFlightTicks(t *testing.T) {
	src := &blockingSource{release: make(chan struct{})}

	ticker := &manualTicker{ch: make(chan time.Time)}
	p := newPoller(src, &recorder{})
	p.NewTicker = func(time.Duration) scheduler.Ticker { return ticker }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	ticker.ch <- fixedNow
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Cancelling unblocks the in-flight fetch through its context.
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
