package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"certledger/internal/platform/kafka/producer"
)

// Message represents a received Kafka message.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes consumed messages.
type Handler interface {
	// Handle processes a message. An error stops Run before the offset is
	// committed, so the message is redelivered to the group.
	Handle(ctx context.Context, msg *Message) error
}

type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Config holds consumer configuration. Without a GroupID the consumer reads
// every partition directly and commits nothing.
type Config struct {
	Brokers   string
	GroupID   string
	Topics    []string
	FromStart bool
}

// Consumer wraps a franz-go client with at-least-once handling.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
	grouped bool
}

// New creates a new Kafka consumer.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	seeds := producer.SplitBrokers(cfg.Brokers)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka consumer topics not configured")
	}

	offset := kgo.NewOffset().AtEnd()
	if cfg.FromStart {
		offset = kgo.NewOffset().AtStart()
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(seeds...),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(offset),
	}
	if cfg.GroupID != "" {
		opts = append(opts, kgo.ConsumerGroup(cfg.GroupID), kgo.DisableAutoCommit())
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{
		client:  client,
		handler: handler,
		logger:  logger,
		grouped: cfg.GroupID != "",
	}, nil
}

// Run polls until ctx is cancelled or the handler fails. Records are handled in
// partition order; offsets are committed after each fully handled fetch.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			if c.logger != nil {
				c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
			}
		})

		var handled []*kgo.Record
		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			if err := c.handler.Handle(ctx, toMessage(r)); err != nil {
				handleErr = fmt.Errorf("handle %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
				return
			}
			handled = append(handled, r)
		})

		if c.grouped && len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil && c.logger != nil {
				c.logger.Error("failed to commit offsets", "records", len(handled), "error", err)
			}
		}
		if handleErr != nil {
			return handleErr
		}
	}
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
