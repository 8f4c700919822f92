package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	registrymetrics "certledger/internal/registry/metrics"
	dErrors "certledger/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for registry mutations. Every
// mutation runs under one global order: the in-memory version holds a single
// mutex, the SQL version a transaction-scoped advisory lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

const defaultTxTimeout = 5 * time.Second

// ledgerLockKey is the pg_advisory_xact_lock key serializing registry writers.
const ledgerLockKey int64 = 0x63657274

// inMemoryStoreTx serializes mutations for in-memory stores. The stores cannot roll
// back, so mutation closures perform every check before their first write.
type inMemoryStoreTx struct {
	mu      sync.Mutex
	stores  Stores
	timeout time.Duration
	metrics *registrymetrics.Metrics
}

func newInMemoryStoreTx(stores Stores, metrics *registrymetrics.Metrics) *inMemoryStoreTx {
	return &inMemoryStoreTx{stores: stores, metrics: metrics}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := withTxTimeout(ctx, t.timeout)
	defer cancel()

	waitStart := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.ObserveLockWait(time.Since(waitStart))
	}

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.stores)
}

// SQLStoreTx runs mutations in a database transaction holding the ledger lock.
type SQLStoreTx struct {
	db      *sql.DB
	bind    func(tx *sql.Tx) Stores
	timeout time.Duration
	metrics *registrymetrics.Metrics
}

// NewSQLStoreTx builds a StoreTx over db. bind constructs transaction-bound stores.
func NewSQLStoreTx(db *sql.DB, bind func(tx *sql.Tx) Stores, metrics *registrymetrics.Metrics) *SQLStoreTx {
	return &SQLStoreTx{db: db, bind: bind, metrics: metrics}
}

func (t *SQLStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := withTxTimeout(ctx, t.timeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return txErr(ctx, err, "begin registry transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	waitStart := time.Now()
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return txErr(ctx, err, "acquire ledger lock")
	}
	if t.metrics != nil {
		t.metrics.ObserveLockWait(time.Since(waitStart))
	}

	if err = fn(ctx, t.bind(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return txErr(ctx, err, "commit registry transaction")
	}
	return nil
}

func withTxTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func txErr(ctx context.Context, err error, action string) error {
	if ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: "+action)
	}
	return dErrors.Wrap(fmt.Errorf("%s: %w", action, err), dErrors.CodeInternal, action)
}
