package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duewatch/internal/notify"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []any // kgo.Message or error
	committed []int64
	closed    bool
	drained   chan struct{}
}

func newFakeReader(items ...any) *fakeReader {
	return &fakeReader{queue: items, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kgo.Message, error) {
	r.mu.Lock()
	if len(r.queue) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
		r.mu.Unlock()
		<-ctx.Done()
		return kgo.Message{}, ctx.Err()
	}
	item := r.queue[0]
	r.queue = r.queue[1:]
	r.mu.Unlock()

	if err, ok := item.(error); ok {
		return kgo.Message{}, err
	}
	return item.(kgo.Message), nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kgo.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func runUntilDrained(t *testing.T, c *Consumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain the queue")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_HandlesAndCommitsEveryMessage(t *testing.T) {
	r := newFakeReader(
		kgo.Message{Offset: 1, Value: []byte(`{"title":"a","body":"1"}`)},
		kgo.Message{Offset: 2, Value: []byte(`bad`)},
		kgo.Message{Offset: 3, Value: []byte(`{"title":"b","body":"2"}`)},
	)

	var mu sync.Mutex
	var seen []string
	handle := func(ctx context.Context, v []byte) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(v))
		if string(v) == "bad" {
			return errors.New("invalid push payload")
		}
		return nil
	}

	runUntilDrained(t, newConsumer(r, handle, nil), r)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
	assert.Equal(t, []int64{1, 2, 3}, r.Committed())
}

func TestConsumer_ReadErrorBacksOff(t *testing.T) {
	r := newFakeReader(
		errors.New("broker unreachable"),
		kgo.Message{Offset: 7, Value: []byte(`{}`)},
	)

	calls := 0
	c := newConsumer(r, func(ctx context.Context, v []byte) error {
		calls++
		return nil
	}, nil)
	c.backoff = time.Millisecond

	runUntilDrained(t, c, r)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{7}, r.Committed())
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	r := newFakeReader()
	c := newConsumer(r, func(context.Context, []byte) error { return nil }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Run(ctx))

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}

type fakeWriter struct {
	msgs   []kgo.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kgo.Message) error {
	if w.err != nil {
		return w.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	err := p.Publish(context.Background(), "k1", notify.PushPayload{Title: "Task Reminder", Body: "You have overdue tasks!"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "k1", string(m.Key))
	assert.Equal(t, at, m.Time)

	var got notify.PushPayload
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.Equal(t, "You have overdue tasks!", got.Body)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_WriteError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("leader not available")})
	err := p.Publish(context.Background(), "k", notify.PushPayload{Body: "x"})
	assert.EqualError(t, err, "leader not available")
}

func TestNewProducer_Validates(t *testing.T) {
	_, err := NewProducer(nil, "t")
	assert.Error(t, err)
	_, err = NewProducer([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
