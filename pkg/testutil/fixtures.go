package testutil

import (
	"fmt"
	"time"

	"certledger/internal/registry/models"
	"certledger/pkg/domain"
)

// TestAddresses provides fixed identities for tests. They are valid EIP-55 strings
// so they can be pasted into requests unchanged.
var TestAddresses = struct {
	Owner    domain.Address
	IssuerA  domain.Address
	IssuerB  domain.Address
	Student1 domain.Address
	Student2 domain.Address
	Stranger domain.Address
}{
	Owner:    domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
	IssuerA:  domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"),
	IssuerB:  domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"),
	Student1: domain.MustParseAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"),
	Student2: domain.MustParseAddress("0x00000000000000000000000000000000000000b2"),
	Stranger: domain.MustParseAddress("0x00000000000000000000000000000000000000c3"),
}

// FixedNow is a microsecond-aligned instant that survives a Postgres round trip.
var FixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC)

// CertificateBuilder provides a fluent interface for building test certificates.
type CertificateBuilder struct {
	cert *models.Certificate
}

// NewCertificateBuilder creates a valid certificate #1 held by Student1.
func NewCertificateBuilder() *CertificateBuilder {
	return &CertificateBuilder{
		cert: &models.Certificate{
			ID:          1,
			Holder:      TestAddresses.Student1,
			SubjectName: "Ada Lovelace",
			ProgramName: "Analytical Engines 101",
			ContentHash: ContentHash(1),
			IssuedAt:    FixedNow,
			Status:      models.CertificateStatusValid,
		},
	}
}

func (b *CertificateBuilder) WithID(certID domain.CertificateID) *CertificateBuilder {
	b.cert.ID = certID
	return b
}

func (b *CertificateBuilder) WithHolder(holder domain.Address) *CertificateBuilder {
	b.cert.Holder = holder
	return b
}

func (b *CertificateBuilder) WithNames(subject, program string) *CertificateBuilder {
	b.cert.SubjectName = subject
	b.cert.ProgramName = program
	return b
}

func (b *CertificateBuilder) WithContentHash(hash domain.ContentHash) *CertificateBuilder {
	b.cert.ContentHash = hash
	return b
}

func (b *CertificateBuilder) IssuedAt(t time.Time) *CertificateBuilder {
	b.cert.IssuedAt = t
	return b
}

func (b *CertificateBuilder) RevokedBy(by domain.Address, at time.Time) *CertificateBuilder {
	b.cert.Status = models.CertificateStatusRevoked
	b.cert.RevokedAt = &at
	b.cert.RevokedBy = &by
	return b
}

func (b *CertificateBuilder) Build() *models.Certificate {
	out := *b.cert
	return &out
}

// NewTestCertificate creates a valid certificate with a content hash derived from its id.
func NewTestCertificate(certID domain.CertificateID, holder domain.Address) *models.Certificate {
	return NewCertificateBuilder().
		WithID(certID).
		WithHolder(holder).
		WithContentHash(ContentHash(int(certID))).
		Build()
}

// ContentHash returns a distinct CIDv0-shaped hash for n.
func ContentHash(n int) domain.ContentHash {
	return domain.ContentHash(fmt.Sprintf("QmTestContent%033d", n))
}
