// Package seeder loads demo or bootstrap data from a YAML file and applies it
// through the registry, so seeded state carries the same events and checks as
// state created over the API.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"certledger/internal/eventlog"
	"certledger/internal/issuance"
	"certledger/internal/metadata"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/validation"
)

// File is the seed document.
//
//	issuers:
//	  - 0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359
//	certificates:
//	  - issuer: 0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359
//	    holder: 0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb
//	    subject_name: Ada Lovelace
//	    program_name: Analytical Engines 101
//	    content_hash: bafy...
type File struct {
	Issuers      []domain.Address  `yaml:"issuers"`
	Certificates []CertificateSeed `yaml:"certificates"`
}

// CertificateSeed names either a content hash or a metadata document to pin.
type CertificateSeed struct {
	Issuer      domain.Address     `yaml:"issuer"`
	Holder      domain.Address     `yaml:"holder"`
	SubjectName string             `yaml:"subject_name"`
	ProgramName string             `yaml:"program_name"`
	ContentHash domain.ContentHash `yaml:"content_hash"`
	Metadata    *MetadataSeed      `yaml:"metadata"`
}

type MetadataSeed struct {
	StudentName    string `yaml:"student_name"`
	StudentAddress string `yaml:"student_address"`
	CourseName     string `yaml:"course_name"`
	IssuerName     string `yaml:"issuer_name"`
	IssuedDate     string `yaml:"issued_date"`
	Grade          string `yaml:"grade"`
	Description    string `yaml:"description"`
}

func (m *MetadataSeed) document() *metadata.Metadata {
	if m == nil {
		return nil
	}
	return &metadata.Metadata{
		StudentName:    m.StudentName,
		StudentAddress: m.StudentAddress,
		CourseName:     m.CourseName,
		IssuerName:     m.IssuerName,
		IssuedDate:     m.IssuedDate,
		Grade:          m.Grade,
		Description:    m.Description,
	}
}

// IssuerRegistry adds issuers on the owner's behalf.
type IssuerRegistry interface {
	AddIssuer(ctx context.Context, caller, identity domain.Address) (*eventlog.Receipt, error)
}

// Issuer issues certificates, pinning metadata when present.
type Issuer interface {
	Issue(ctx context.Context, caller domain.Address, req issuance.IssueRequest) (*issuance.Issued, error)
}

// Result counts what a seed run changed.
type Result struct {
	IssuersAdded       int
	CertificatesIssued int
	Skipped            int
}

// Seeder applies seed files.
type Seeder struct {
	issuers IssuerRegistry
	issuer  Issuer
	logger  *slog.Logger
}

func New(issuers IssuerRegistry, issuer Issuer, logger *slog.Logger) *Seeder {
	return &Seeder{
		issuers: issuers,
		issuer:  issuer,
		logger:  logger,
	}
}

// Load parses a seed file from disk.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := validation.CheckSliceCount("issuers", len(f.Issuers), validation.MaxSeedEntries); err != nil {
		return nil, err
	}
	if err := validation.CheckSliceCount("certificates", len(f.Certificates), validation.MaxSeedEntries); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply adds the issuers as owner, then issues each certificate as its issuer.
// Re-applying a file is safe: known issuers produce no events and certificates
// whose content is already on the ledger are skipped.
func (s *Seeder) Apply(ctx context.Context, owner domain.Address, f *File) (Result, error) {
	var res Result
	s.logger.InfoContext(ctx, "seeding registry...",
		"issuers", len(f.Issuers),
		"certificates", len(f.Certificates),
	)

	for _, identity := range f.Issuers {
		receipt, err := s.issuers.AddIssuer(ctx, owner, identity)
		if err != nil {
			return res, fmt.Errorf("seed issuer %s: %w", identity, err)
		}
		if len(receipt.Events) > 0 {
			res.IssuersAdded++
		}
	}

	for i, c := range f.Certificates {
		caller := c.Issuer
		if caller.IsZero() {
			caller = owner
		}
		issued, err := s.issuer.Issue(ctx, caller, issuance.IssueRequest{
			Holder:      c.Holder,
			SubjectName: c.SubjectName,
			ProgramName: c.ProgramName,
			ContentHash: c.ContentHash,
			Metadata:    c.Metadata.document(),
		})
		if dErrors.HasCode(err, dErrors.CodeDuplicateContent) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed certificate %d: %w", i+1, err)
		}
		res.CertificatesIssued++
		s.logger.DebugContext(ctx, "seeded certificate",
			"certificate_id", issued.CertificateID.String(),
			"holder", c.Holder.String(),
		)
	}

	s.logger.InfoContext(ctx, "registry seeded",
		"issuers_added", res.IssuersAdded,
		"certificates_issued", res.CertificatesIssued,
		"skipped", res.Skipped,
	)
	return res, nil
}
