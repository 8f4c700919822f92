package service

import (
	"context"
	"errors"
	"time"

	"certledger/internal/eventlog"
	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/sentinel"
)

// Store interfaces define persistence contracts.

type CertificateStore interface {
	NextID(ctx context.Context) (domain.CertificateID, error)
	Create(ctx context.Context, cert *models.Certificate) error
	UpdateStatus(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, certID domain.CertificateID) (*models.Certificate, error)
	FindIDByContentHash(ctx context.Context, hash domain.ContentHash) (domain.CertificateID, error)
	ListIDsByHolder(ctx context.Context, holder domain.Address) ([]domain.CertificateID, error)
	Count(ctx context.Context) (uint64, error)
}

type IssuerStore interface {
	Owner(ctx context.Context) (domain.Address, error)
	SetOwner(ctx context.Context, owner domain.Address) error
	Find(ctx context.Context, addr domain.Address) (*models.Issuer, error)
	Save(ctx context.Context, issuer *models.Issuer) error
	ListAuthorized(ctx context.Context) ([]*models.Issuer, error)
}

type EventLog interface {
	Append(ctx context.Context, txID string, events []eventlog.Event, now time.Time) ([]eventlog.Entry, error)
	ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]eventlog.Entry, error)
	ListByTx(ctx context.Context, txID string) ([]eventlog.Entry, error)
	Head(ctx context.Context) (*eventlog.Entry, error)
}

// Stores groups the three registry stores. Inside RunInTx they are bound to the
// transaction; outside they serve reads.
type Stores struct {
	Certificates CertificateStore
	Issuers      IssuerStore
	Events       EventLog
}

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapCertificateErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapIssuerErr(err error, action string) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapEventErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

// outcome labels a mutation metric with the error code, or "ok".
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return string(dErrors.CodeInternal)
}
