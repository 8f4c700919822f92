package service

import (
	"log/slog"

	"certledger/internal/platform/tracer"
	registrymetrics "certledger/internal/registry/metrics"
)

// serviceConfig holds optional dependencies for the service.
type serviceConfig struct {
	logger  *slog.Logger
	metrics *registrymetrics.Metrics
	tracer  tracer.Tracer
	tx      StoreTx
}

// Option configures a Service.
type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = t
	}
}

// WithTx replaces the default in-memory transaction, e.g. with NewSQLStoreTx.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}
