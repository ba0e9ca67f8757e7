package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"duewatch/internal/notify"
)

// PublishTimeout bounds a single publish so a dead broker does not hang the
// caller.
const PublishTimeout = 3 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// Producer publishes push payloads.
type Producer struct {
	writer messageWriter
	now    func() time.Time
}

// NewProducer writes to topic on brokers.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
	}
	return newProducer(w), nil
}

func newProducer(w messageWriter) *Producer {
	return &Producer{writer: w, now: time.Now}
}

// Close flushes and closes the writer.
func (p *Producer) Close() error { return p.writer.Close() }

// Publish sends p as a JSON push message keyed by key.
func (p *Producer) Publish(ctx context.Context, key string, payload notify.PushPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	return p.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(key),
		Value: b,
		Time:  p.now(),
	})
}
