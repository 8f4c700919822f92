package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"certledger/internal/eventlog"
	"certledger/pkg/platform/sentinel"
)

// PostgresStore persists the event log in PostgreSQL. Appends must run inside the
// registry transaction, which already holds the ledger advisory lock, so reading
// the head and inserting after it cannot interleave with another writer.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const selectEntry = `
	SELECT seq, tx_id, event_type, aggregate_id, payload, created_at, prev_hash, hash, published_at
	FROM event_log
`

func (s *PostgresStore) Append(ctx context.Context, txID string, events []eventlog.Event, now time.Time) ([]eventlog.Entry, error) {
	if s.tx == nil {
		return nil, fmt.Errorf("event log append requires a transaction")
	}
	head, err := s.Head(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	sealed := make([]eventlog.Entry, 0, len(events))
	for _, ev := range events {
		entry, err := eventlog.Seal(head, txID, ev, now)
		if err != nil {
			return nil, err
		}
		_, err = s.tx.ExecContext(ctx, `
			INSERT INTO event_log (seq, tx_id, event_type, aggregate_id, payload, created_at, prev_hash, hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, int64(entry.Seq), entry.TxID, string(entry.Type), entry.AggregateID,
			[]byte(entry.Payload), entry.CreatedAt, entry.PrevHash, entry.Hash)
		if err != nil {
			return nil, fmt.Errorf("append event %d: %w", entry.Seq, err)
		}
		sealed = append(sealed, entry)
		head = &sealed[len(sealed)-1]
	}
	return sealed, nil
}

func (s *PostgresStore) ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]eventlog.Entry, error) {
	query := selectEntry + ` WHERE seq > $1 ORDER BY seq`
	args := []any{int64(afterSeq)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return s.list(ctx, query, args...)
}

func (s *PostgresStore) ListByTx(ctx context.Context, txID string) ([]eventlog.Entry, error) {
	return s.list(ctx, selectEntry+` WHERE tx_id = $1 ORDER BY seq`, txID)
}

func (s *PostgresStore) Head(ctx context.Context) (*eventlog.Entry, error) {
	entry, err := scanEntry(s.execer().QueryRowContext(ctx, selectEntry+` ORDER BY seq DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read event log head: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]eventlog.Entry, error) {
	return s.list(ctx, selectEntry+` WHERE published_at IS NULL ORDER BY seq LIMIT $1`, limit)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, seq uint64, at time.Time) error {
	res, err := s.execer().ExecContext(ctx,
		`UPDATE event_log SET published_at = $2 WHERE seq = $1`, int64(seq), at)
	if err != nil {
		return fmt.Errorf("mark event %d published: %w", seq, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark event %d published: %w", seq, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountUnpublished(ctx context.Context) (int, error) {
	var count int
	err := s.execer().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_log WHERE published_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unpublished events: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]eventlog.Entry, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	entries := []eventlog.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*eventlog.Entry, error) {
	var (
		entry       eventlog.Entry
		seq         int64
		eventType   string
		payload     []byte
		publishedAt sql.NullTime
	)
	if err := row.Scan(&seq, &entry.TxID, &eventType, &entry.AggregateID, &payload,
		&entry.CreatedAt, &entry.PrevHash, &entry.Hash, &publishedAt); err != nil {
		return nil, err
	}
	entry.Seq = uint64(seq)
	entry.Type = eventlog.Type(eventType)
	entry.Payload = payload
	entry.CreatedAt = entry.CreatedAt.UTC()
	if publishedAt.Valid {
		t := publishedAt.Time
		entry.PublishedAt = &t
	}
	return &entry, nil
}
