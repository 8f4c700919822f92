// Package publisher drains committed event log entries to Kafka. The log is the
// outbox: a mutation never waits on Kafka, and an entry is marked published only
// after the broker acknowledged it.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"certledger/internal/eventlog"
	"certledger/internal/platform/kafka/producer"
	"certledger/internal/platform/tracer"
)

// DefaultTopic receives every registry event.
const DefaultTopic = "certledger.registry.events"

// Outbox is the publisher's view of the event log.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]eventlog.Entry, error)
	MarkPublished(ctx context.Context, seq uint64, at time.Time) error
	CountUnpublished(ctx context.Context) (int, error)
}

// Producer delivers one message synchronously.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the event log and publishes entries to Kafka in sequence order.
type Worker struct {
	outbox       Outbox
	producer     Producer
	topic        string
	batchSize    int
	pollInterval time.Duration
	drainTimeout time.Duration
	metrics      *Metrics
	logger       *slog.Logger
	tracer       tracer.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the Worker.
type Option func(*Worker)

// WithTopic sets the Kafka topic for publishing.
func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

// WithBatchSize sets the maximum number of entries to fetch per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		w.batchSize = size
	}
}

// WithPollInterval sets the interval between polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		w.pollInterval = interval
	}
}

func WithDrainTimeout(timeout time.Duration) Option {
	return func(w *Worker) {
		w.drainTimeout = timeout
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(w *Worker) {
		w.tracer = t
	}
}

// New creates a publisher worker. Call Start to begin polling.
func New(outbox Outbox, prod Producer, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		outbox:       outbox,
		producer:     prod,
		topic:        DefaultTopic,
		batchSize:    100,
		pollInterval: 250 * time.Millisecond,
		drainTimeout: 10 * time.Second,
		tracer:       tracer.NewNoop(),
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			if _, err := w.PublishBatch(w.ctx); err != nil && w.ctx.Err() == nil {
				w.logError("event publish cycle failed", "error", err)
			}
			w.updatePending(w.ctx)
		}
	}
}

// PublishBatch publishes up to one batch of pending entries and returns how many
// were published. It stops at the first failure so that entries leave in log
// order; the failed entry is retried on the next call.
func (w *Worker) PublishBatch(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, span := w.tracer.Start(ctx, tracer.SpanPublishBatch)

	published, err := w.publishBatch(ctx)
	span.SetAttributes(tracer.Int64(tracer.AttrEventCount, int64(published)))
	span.End(err)

	if w.metrics != nil {
		w.metrics.ObservePollDuration(time.Since(start).Seconds())
		if err != nil {
			w.metrics.IncPublishFailures()
		}
	}
	return published, err
}

func (w *Worker) publishBatch(ctx context.Context) (int, error) {
	entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if w.metrics != nil {
		w.metrics.ObserveBatchSize(len(entries))
	}

	published := 0
	for i := range entries {
		entry := &entries[i]
		if err := w.publishEntry(ctx, entry); err != nil {
			return published, fmt.Errorf("publish event %d: %w", entry.Seq, err)
		}
		if err := w.outbox.MarkPublished(ctx, entry.Seq, time.Now().UTC()); err != nil {
			// Already on the broker; it will be sent again next poll and consumers
			// dedupe on seq.
			return published, fmt.Errorf("mark event %d published: %w", entry.Seq, err)
		}
		published++
		if w.metrics != nil {
			w.metrics.IncPublished(entry.Seq)
		}
	}
	return published, nil
}

// Message is the Kafka representation of an entry. Value is the full entry so that
// consumers can re-verify the hash chain.
func Message(topic string, entry *eventlog.Entry) (*producer.Message, error) {
	value, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal event %d: %w", entry.Seq, err)
	}
	return &producer.Message{
		Topic: topic,
		Key:   []byte(entry.AggregateID),
		Value: value,
		Headers: map[string]string{
			"event_type": string(entry.Type),
			"seq":        strconv.FormatUint(entry.Seq, 10),
			"tx_id":      entry.TxID,
			"hash":       entry.Hash,
		},
	}, nil
}

func (w *Worker) publishEntry(ctx context.Context, entry *eventlog.Entry) error {
	start := time.Now()

	msg, err := Message(w.topic, entry)
	if err != nil {
		return err
	}
	if err := w.producer.Produce(ctx, msg); err != nil {
		return err
	}

	if w.metrics != nil {
		w.metrics.ObservePublishDuration(time.Since(start).Seconds())
	}
	return nil
}

// drain publishes what is left during shutdown. It gives up when a batch makes no
// progress or the drain timeout passes.
func (w *Worker) drain() {
	if w.logger != nil {
		w.logger.Info("draining event publisher")
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	for {
		published, err := w.PublishBatch(ctx)
		if err != nil {
			w.logError("event publish failed during drain", "error", err)
			return
		}
		if published == 0 {
			return
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) updatePending(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	count, err := w.outbox.CountUnpublished(ctx)
	if err != nil {
		return
	}
	w.metrics.SetPendingDepth(count)
}

func (w *Worker) logError(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Error(msg, args...)
	}
}
