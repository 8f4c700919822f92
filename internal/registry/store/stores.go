// Package store assembles the registry's certificate, issuer and event-log stores
// for a chosen backend.
package store

import (
	"database/sql"

	"certledger/internal/eventlog/publisher"
	eventstore "certledger/internal/eventlog/store"
	registrymetrics "certledger/internal/registry/metrics"
	"certledger/internal/registry/service"
	"certledger/internal/registry/store/certificate"
	"certledger/internal/registry/store/issuer"
)

// Backend is the set of stores plus the transaction that serializes writes to them.
type Backend struct {
	Stores service.Stores
	Tx     service.StoreTx
	// Outbox is the event log as seen by the publisher.
	Outbox publisher.Outbox
}

// NewInMemory returns fresh in-memory stores. Tx is nil; the service falls back to
// its in-memory lock.
func NewInMemory() *Backend {
	events := eventstore.NewInMemory()
	return &Backend{
		Stores: service.Stores{
			Certificates: certificate.NewInMemory(),
			Issuers:      issuer.NewInMemory(),
			Events:       events,
		},
		Outbox: events,
	}
}

// NewPostgres returns stores backed by db and a transaction that binds fresh
// tx-scoped stores per mutation.
func NewPostgres(db *sql.DB, metrics *registrymetrics.Metrics) *Backend {
	events := eventstore.NewPostgres(db)
	return &Backend{
		Stores: service.Stores{
			Certificates: certificate.NewPostgres(db),
			Issuers:      issuer.NewPostgres(db),
			Events:       events,
		},
		Tx:     service.NewSQLStoreTx(db, BindTx, metrics),
		Outbox: events,
	}
}

// BindTx constructs Postgres stores bound to tx.
func BindTx(tx *sql.Tx) service.Stores {
	return service.Stores{
		Certificates: certificate.NewPostgresTx(tx),
		Issuers:      issuer.NewPostgresTx(tx),
		Events:       eventstore.NewPostgresTx(tx),
	}
}

// ServiceOptions returns the service options this backend needs.
func (b *Backend) ServiceOptions() []service.Option {
	if b.Tx == nil {
		return nil
	}
	return []service.Option{service.WithTx(b.Tx)}
}
