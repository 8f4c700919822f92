// Package metadata stores the descriptive half of a credential off the ledger.
// The ledger keeps only a content hash; this package turns a Metadata document
// into that hash and back.
package metadata

import (
	"context"
	"encoding/json"
	"strings"

	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/validation"
)

// Metadata is the document pinned for each credential. Field names are the
// wire format shared with existing documents.
type Metadata struct {
	StudentName    string `json:"studentName"`
	StudentAddress string `json:"studentAddress"`
	CourseName     string `json:"courseName"`
	IssuerName     string `json:"issuerName"`
	IssuedDate     string `json:"issuedDate"`
	CertificateID  uint64 `json:"certificateId,omitempty"`
	Grade          string `json:"grade,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Store is a content-addressed blob store for metadata documents.
// Put must be deterministic: the same document always yields the same hash.
type Store interface {
	Put(ctx context.Context, m *Metadata) (domain.ContentHash, error)
	Get(ctx context.Context, hash domain.ContentHash) (*Metadata, error)
}

func (m *Metadata) Normalize() {
	m.StudentName = strings.TrimSpace(m.StudentName)
	m.StudentAddress = strings.TrimSpace(m.StudentAddress)
	m.CourseName = strings.TrimSpace(m.CourseName)
	m.IssuerName = strings.TrimSpace(m.IssuerName)
	m.IssuedDate = strings.TrimSpace(m.IssuedDate)
	m.Grade = strings.TrimSpace(m.Grade)
	m.Description = strings.TrimSpace(m.Description)
}

func (m *Metadata) Validate() error {
	if m == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata is required")
	}
	required := []struct{ field, value string }{
		{"student_name", m.StudentName},
		{"course_name", m.CourseName},
		{"issuer_name", m.IssuerName},
		{"issued_date", m.IssuedDate},
	}
	for _, r := range required {
		if r.value == "" {
			return dErrors.New(dErrors.CodeInvalidInput, r.field+" is required")
		}
	}
	if _, err := m.Holder(); err != nil {
		return err
	}
	checks := []error{
		validation.CheckStringLength("student_name", m.StudentName, validation.MaxDisplayNameLength),
		validation.CheckStringLength("course_name", m.CourseName, validation.MaxDisplayNameLength),
		validation.CheckStringLength("issuer_name", m.IssuerName, validation.MaxDisplayNameLength),
		validation.CheckStringLength("issued_date", m.IssuedDate, validation.MaxIssuedDateLength),
		validation.CheckStringLength("grade", m.Grade, validation.MaxGradeLength),
		validation.CheckStringLength("description", m.Description, validation.MaxDescriptionLength),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// Holder parses StudentAddress.
func (m *Metadata) Holder() (domain.Address, error) {
	addr, err := domain.ParseAddress(m.StudentAddress)
	if err != nil {
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInvalidInput, "student_address is invalid")
	}
	if addr.IsZero() {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "student_address cannot be the zero address")
	}
	return addr, nil
}

// Canonical validates m and returns the byte form that gets hashed and pinned.
// Fields are trimmed and the address is rewritten to its checksummed form, so
// cosmetic variants of one document produce one hash.
func Canonical(m *Metadata) ([]byte, error) {
	if m == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "metadata is required")
	}
	c := *m
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	holder, _ := c.Holder()
	c.StudentAddress = holder.String()
	body, err := json.Marshal(&c)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode metadata")
	}
	return body, nil
}

func notFound(hash domain.ContentHash) error {
	return dErrors.New(dErrors.CodeNotFound, "metadata not found for content hash "+hash.String())
}
