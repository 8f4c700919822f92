package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists certificates in PostgreSQL.
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

// NextID advances the certificate counter. It only makes sense inside the
// registry transaction: a rollback returns the number, so ids stay gapless.
func (s *PostgresStore) NextID(ctx context.Context) (domain.CertificateID, error) {
	if s.tx == nil {
		return 0, fmt.Errorf("certificate id allocation requires a transaction")
	}
	var next int64
	err := s.tx.QueryRowContext(ctx, `
		UPDATE ledger_counters SET value = value + 1
		WHERE name = 'certificate'
		RETURNING value
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocate certificate id: %w", err)
	}
	return domain.CertificateID(next), nil
}

func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	_, err := s.execer().ExecContext(ctx, `
		INSERT INTO certificates (id, holder, subject_name, program_name, content_hash, issued_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, int64(cert.ID), cert.Holder[:], cert.SubjectName, cert.ProgramName,
		string(cert.ContentHash), cert.IssuedAt, string(cert.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, cert *models.Certificate) error {
	var revokedBy []byte
	if cert.RevokedBy != nil {
		revokedBy = cert.RevokedBy[:]
	}
	res, err := s.execer().ExecContext(ctx, `
		UPDATE certificates SET status = $2, revoked_at = $3, revoked_by = $4
		WHERE id = $1
	`, int64(cert.ID), string(cert.Status), cert.RevokedAt, revokedBy)
	if err != nil {
		return fmt.Errorf("update certificate status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate status: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID domain.CertificateID) (*models.Certificate, error) {
	cert, err := scanCertificate(s.execer().QueryRowContext(ctx, `
		SELECT id, holder, subject_name, program_name, content_hash, issued_at, status, revoked_at, revoked_by
		FROM certificates WHERE id = $1
	`, int64(certID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) FindIDByContentHash(ctx context.Context, hash domain.ContentHash) (domain.CertificateID, error) {
	var certID int64
	err := s.execer().QueryRowContext(ctx,
		`SELECT id FROM certificates WHERE content_hash = $1`, string(hash)).Scan(&certID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("find certificate by content hash: %w", err)
	}
	return domain.CertificateID(certID), nil
}

func (s *PostgresStore) ListIDsByHolder(ctx context.Context, holder domain.Address) ([]domain.CertificateID, error) {
	rows, err := s.execer().QueryContext(ctx,
		`SELECT id FROM certificates WHERE holder = $1 ORDER BY id`, holder[:])
	if err != nil {
		return nil, fmt.Errorf("list certificates by holder: %w", err)
	}
	defer rows.Close()

	ids := []domain.CertificateID{}
	for rows.Next() {
		var certID int64
		if err := rows.Scan(&certID); err != nil {
			return nil, fmt.Errorf("scan certificate id: %w", err)
		}
		ids = append(ids, domain.CertificateID(certID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificate ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var count int64
	if err := s.execer().QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return uint64(count), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	var (
		cert        models.Certificate
		certID      int64
		holder      []byte
		contentHash string
		status      string
		revokedAt   sql.NullTime
		revokedBy   []byte
	)
	if err := row.Scan(&certID, &holder, &cert.SubjectName, &cert.ProgramName, &contentHash,
		&cert.IssuedAt, &status, &revokedAt, &revokedBy); err != nil {
		return nil, err
	}
	cert.ID = domain.CertificateID(certID)
	copy(cert.Holder[:], holder)
	cert.ContentHash = domain.ContentHash(contentHash)
	cert.Status = models.CertificateStatus(status)
	cert.IssuedAt = cert.IssuedAt.UTC()
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		cert.RevokedAt = &t
	}
	if len(revokedBy) == domain.AddressLength {
		var by domain.Address
		copy(by[:], revokedBy)
		cert.RevokedBy = &by
	}
	return &cert, nil
}
