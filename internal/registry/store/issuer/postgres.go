package issuer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

// PostgresStore persists the owner and issuer set in PostgreSQL.
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

func (s *PostgresStore) Owner(ctx context.Context) (domain.Address, error) {
	var raw []byte
	err := s.execer().QueryRowContext(ctx, `SELECT address FROM registry_owner WHERE singleton`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ZeroAddress, sentinel.ErrNotFound
		}
		return domain.ZeroAddress, fmt.Errorf("find registry owner: %w", err)
	}
	return addressFromBytes(raw), nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, owner domain.Address) error {
	res, err := s.execer().ExecContext(ctx, `
		INSERT INTO registry_owner (singleton, address) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO NOTHING
	`, owner[:])
	if err != nil {
		return fmt.Errorf("set registry owner: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set registry owner: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, addr domain.Address) (*models.Issuer, error) {
	issuer, err := scanIssuer(s.execer().QueryRowContext(ctx,
		`SELECT address, authorized, updated_at FROM issuers WHERE address = $1`, addr[:]))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find issuer: %w", err)
	}
	return issuer, nil
}

func (s *PostgresStore) Save(ctx context.Context, issuer *models.Issuer) error {
	_, err := s.execer().ExecContext(ctx, `
		INSERT INTO issuers (address, authorized, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE SET
			authorized = EXCLUDED.authorized,
			updated_at = EXCLUDED.updated_at
	`, issuer.Address[:], issuer.Authorized, issuer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuthorized(ctx context.Context) ([]*models.Issuer, error) {
	rows, err := s.execer().QueryContext(ctx,
		`SELECT address, authorized, updated_at FROM issuers WHERE authorized ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	out := []*models.Issuer{}
	for rows.Next() {
		issuer, err := scanIssuer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issuer: %w", err)
		}
		out = append(out, issuer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuers: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssuer(row rowScanner) (*models.Issuer, error) {
	var (
		issuer models.Issuer
		raw    []byte
	)
	if err := row.Scan(&raw, &issuer.Authorized, &issuer.UpdatedAt); err != nil {
		return nil, err
	}
	issuer.Address = addressFromBytes(raw)
	issuer.UpdatedAt = issuer.UpdatedAt.UTC()
	return &issuer, nil
}

func addressFromBytes(raw []byte) domain.Address {
	var addr domain.Address
	copy(addr[:], raw)
	return addr
}
