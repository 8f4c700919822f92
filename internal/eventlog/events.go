package eventlog

import (
	"time"

	"certledger/pkg/domain"
)

// Type names a registry state transition. The values are part of the published
// contract and must not change.
type Type string

const (
	TypeCertificateIssued  Type = "CertificateIssued"
	TypeCertificateRevoked Type = "CertificateRevoked"
	TypeIssuerAdded        Type = "IssuerAdded"
	TypeIssuerRemoved      Type = "IssuerRemoved"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeCertificateIssued, TypeCertificateRevoked, TypeIssuerAdded, TypeIssuerRemoved:
		return true
	}
	return false
}

// Payloads. JSON field names are the integration contract for downstream consumers.

type CertificateIssued struct {
	ID          domain.CertificateID `json:"id"`
	Holder      domain.Address       `json:"holder"`
	SubjectName string               `json:"subjectName"`
	ProgramName string               `json:"programName"`
	ContentHash domain.ContentHash   `json:"contentHash"`
	IssuedAt    time.Time            `json:"issuedAt"`
}

type CertificateRevoked struct {
	ID        domain.CertificateID `json:"id"`
	RevokedBy domain.Address       `json:"revokedBy"`
}

type IssuerAdded struct {
	Identity domain.Address `json:"identity"`
}

type IssuerRemoved struct {
	Identity domain.Address `json:"identity"`
}
