// Package queue carries push messages over Kafka.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"duewatch/internal/logging"
)

// CommitTimeout bounds a single offset commit.
const CommitTimeout = 3 * time.Second

// RetryBackoff is how long Run waits after a failed read.
const RetryBackoff = 500 * time.Millisecond

// HandlerFunc processes one message value.
type HandlerFunc func(ctx context.Context, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kgo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// Consumer reads push messages from a topic and hands each value to a
// handler.
type Consumer struct {
	reader  messageReader
	handle  HandlerFunc
	log     *slog.Logger
	backoff time.Duration
}

// NewConsumer joins groupID on topic.
func NewConsumer(brokers []string, topic, groupID string, handle HandlerFunc, log *slog.Logger) *Consumer {
	r := kgo.NewReader(kgo.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commits
	})
	return newConsumer(r, handle, log)
}

func newConsumer(r messageReader, handle HandlerFunc, log *slog.Logger) *Consumer {
	if log == nil {
		log = logging.Discard()
	}
	return &Consumer{reader: r, handle: handle, log: log, backoff: RetryBackoff}
}

// Close releases the reader.
func (c *Consumer) Close() error { return c.reader.Close() }

// Run consumes until ctx is cancelled. Every fetched message is committed
// after the handler returns, including ones the handler rejected, so a bad
// message cannot stall the partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("kafka read failed", "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := c.handle(ctx, m.Value); err != nil {
			c.log.Warn("push message rejected", "partition", m.Partition, "offset", m.Offset, "err", err)
		} else {
			c.log.Debug("push message handled", "partition", m.Partition, "offset", m.Offset)
		}

		if err := c.commit(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			c.log.Warn("kafka commit failed", "offset", m.Offset, "err", err)
		}
	}
}

func (c *Consumer) commit(ctx context.Context, m kgo.Message) error {
	cctx, cancel := context.WithTimeout(ctx, CommitTimeout)
	defer cancel()
	return c.reader.CommitMessages(cctx, m)
}
