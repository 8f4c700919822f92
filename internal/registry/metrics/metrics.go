package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers registry mutations, verification outcomes and the ledger lock.
type Metrics struct {
	Mutations         *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
	TxLockWait        prometheus.Histogram
	OperationDuration *prometheus.HistogramVec
	CertificatesTotal prometheus.Gauge
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors with reg. Tests pass a fresh registry so that
// constructing several services does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_registry_mutations_total",
			Help: "Registry mutations by operation and outcome code",
		}, []string{"operation", "outcome"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_verifications_total",
			Help: "Verification lookups by path (id, hash) and result (valid, revoked, unknown)",
		}, []string{"path", "result"}),
		TxLockWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_ledger_lock_wait_seconds",
			Help:    "Time spent waiting for the ledger's global mutation lock",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certledger_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		CertificatesTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "certledger_certificates_issued",
			Help: "Certificates ever issued, as last observed by this process",
		}),
	}
}

func (m *Metrics) IncMutation(operation, outcome string) {
	m.Mutations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncVerification(path, result string) {
	m.Verifications.WithLabelValues(path, result).Inc()
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	m.TxLockWait.Observe(d.Seconds())
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetCertificatesTotal(n uint64) {
	m.CertificatesTotal.Set(float64(n))
}
