package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers calls from the registry process to off-ledger collaborators:
// the metadata blob store, its cache and the breaker guarding it.
type Metrics struct {
	CollaboratorRequests *prometheus.CounterVec
	CollaboratorLatency  *prometheus.HistogramVec
	CacheLookups         *prometheus.CounterVec
	BreakerOpen          *prometheus.GaugeVec
}

// New creates and registers all collaborator metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CollaboratorRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_collaborator_requests_total",
			Help: "Requests to external collaborators by backend, operation and outcome",
		}, []string{"backend", "operation", "outcome"}),
		CollaboratorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certledger_collaborator_latency_seconds",
			Help:    "Latency of external collaborator requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"backend", "operation"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_metadata_cache_lookups_total",
			Help: "Metadata cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		BreakerOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "certledger_circuit_breaker_open",
			Help: "1 while the named circuit breaker is open",
		}, []string{"name"}),
	}
}

// ObserveRequest records one collaborator call.
func (m *Metrics) ObserveRequest(backend, operation, outcome string, durationSeconds float64) {
	m.CollaboratorRequests.WithLabelValues(backend, operation, outcome).Inc()
	m.CollaboratorLatency.WithLabelValues(backend, operation).Observe(durationSeconds)
}

func (m *Metrics) IncCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SetBreakerOpen(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(name).Set(v)
}
