package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the event publisher.
type Metrics struct {
	// Queue health
	PendingDepth prometheus.Gauge
	LastSeq      prometheus.Gauge

	// Processing
	PublishedTotal  prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
	PollDuration    prometheus.Histogram
}

// NewMetrics registers the publisher metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PendingDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "certledger_events_pending",
			Help: "Committed events not yet published to Kafka",
		}),
		LastSeq: f.NewGauge(prometheus.GaugeOpts{
			Name: "certledger_events_last_published_seq",
			Help: "Sequence number of the most recently published event",
		}),
		PublishedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "certledger_events_published_total",
			Help: "Events successfully published to Kafka",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "certledger_events_publish_failures_total",
			Help: "Failed attempts to read, publish or mark events",
		}),
		PublishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_events_publish_duration_seconds",
			Help:    "Time taken to publish one event",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_events_batch_size",
			Help:    "Events fetched per poll",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		PollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_events_poll_duration_seconds",
			Help:    "Time taken for each poll cycle",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) SetPendingDepth(count int) {
	m.PendingDepth.Set(float64(count))
}

func (m *Metrics) IncPublished(seq uint64) {
	m.PublishedTotal.Inc()
	m.LastSeq.Set(float64(seq))
}

func (m *Metrics) IncPublishFailures() {
	m.PublishFailures.Inc()
}

func (m *Metrics) ObservePublishDuration(durationSeconds float64) {
	m.PublishDuration.Observe(durationSeconds)
}

func (m *Metrics) ObserveBatchSize(size int) {
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) ObservePollDuration(durationSeconds float64) {
	m.PollDuration.Observe(durationSeconds)
}
