package models

import (
	"strings"
	"time"

	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
)

// Certificate is one issued credential. Everything except the revocation fields is
// immutable after issuance; corrections are a revoke plus a fresh issue.
type Certificate struct {
	ID          domain.CertificateID `json:"id"`
	Holder      domain.Address       `json:"holder"`
	SubjectName string               `json:"subject_name"`
	ProgramName string               `json:"program_name"`
	ContentHash domain.ContentHash   `json:"content_hash"`
	IssuedAt    time.Time            `json:"issued_at"`
	Status      CertificateStatus    `json:"status"`
	RevokedAt   *time.Time           `json:"revoked_at,omitempty"`
	RevokedBy   *domain.Address      `json:"revoked_by,omitempty"`
}

func NewCertificate(
	certID domain.CertificateID,
	holder domain.Address,
	subjectName string,
	programName string,
	contentHash domain.ContentHash,
	now time.Time,
) (*Certificate, error) {
	if certID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate id must be positive")
	}
	if holder.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "holder cannot be the zero address")
	}
	if strings.TrimSpace(subjectName) == "" || strings.TrimSpace(programName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject and program names cannot be empty")
	}
	if len(subjectName) > MaxDisplayNameLength || len(programName) > MaxDisplayNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "names must be 256 characters or less")
	}
	if contentHash.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "content hash cannot be empty")
	}
	return &Certificate{
		ID:          certID,
		Holder:      holder,
		SubjectName: subjectName,
		ProgramName: programName,
		ContentHash: contentHash,
		IssuedAt:    now,
		Status:      CertificateStatusValid,
	}, nil
}

func (c *Certificate) IsValid() bool {
	return c.Status == CertificateStatusValid
}

// Revoke moves the certificate to its terminal state. Revoking twice is an error so
// that operator mistakes surface instead of being absorbed.
func (c *Certificate) Revoke(by domain.Address, now time.Time) error {
	if !c.IsValid() {
		return dErrors.New(dErrors.CodeAlreadyRevoked, "certificate is already revoked")
	}
	c.Status = CertificateStatusRevoked
	c.RevokedAt = &now
	c.RevokedBy = &by
	return nil
}

// Verification is the public answer to "is certificate N genuine and in force".
type Verification struct {
	IsValid     bool                 `json:"is_valid"`
	SubjectName string               `json:"subject_name"`
	ProgramName string               `json:"program_name"`
	ContentHash domain.ContentHash   `json:"content_hash"`
	IssuedAt    time.Time            `json:"issued_at"`
	Holder      domain.Address       `json:"holder"`
	ID          domain.CertificateID `json:"id"`
}

func (c *Certificate) Verification() *Verification {
	return &Verification{
		IsValid:     c.IsValid(),
		SubjectName: c.SubjectName,
		ProgramName: c.ProgramName,
		ContentHash: c.ContentHash,
		IssuedAt:    c.IssuedAt,
		Holder:      c.Holder,
		ID:          c.ID,
	}
}

// HashVerification answers a lookup by content hash. ID is 0 when the hash was never
// certified; a revoked certificate reports IsValid=false with its real ID.
type HashVerification struct {
	IsValid bool                 `json:"is_valid"`
	ID      domain.CertificateID `json:"id"`
}
