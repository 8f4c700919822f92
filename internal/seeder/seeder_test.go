package seeder_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/issuance"
	"certledger/internal/metadata"
	"certledger/internal/registry/service"
	"certledger/internal/registry/store"
	"certledger/internal/seeder"
	"certledger/pkg/domain"
	"certledger/pkg/testutil"
)

const seedYAML = `
issuers:
  - "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
certificates:
  - issuer: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
    holder: "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
    subject_name: Ada Lovelace
    program_name: Analytical Engines 101
    content_hash: QmSeedContent0001
  - metadata:
      student_name: Grace Hopper
      student_address: "0x00000000000000000000000000000000000000b2"
      course_name: Compilers
      issuer_name: Navy School
      issued_date: "1952-05-01"
      grade: A
`

func newSeeder(t *testing.T) (*seeder.Seeder, *service.Service, context.Context) {
	t.Helper()
	ctx := context.Background()
	backend := store.NewInMemory()
	registry := service.New(backend.Stores, backend.ServiceOptions()...)
	require.NoError(t, registry.EnsureOwner(ctx, testutil.TestAddresses.Owner))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	iss := issuance.New(registry, metadata.NewMemoryStore(), issuance.WithLogger(logger))
	return seeder.New(registry, iss, logger), registry, ctx
}

func TestApplySeedsThroughRegistry(t *testing.T) {
	s, registry, ctx := newSeeder(t)
	f, err := seeder.Parse([]byte(seedYAML))
	require.NoError(t, err)

	res, err := s.Apply(ctx, testutil.TestAddresses.Owner, f)
	require.NoError(t, err)
	assert.Equal(t, seeder.Result{IssuersAdded: 1, CertificatesIssued: 2}, res)

	ok, err := registry.IsAuthorized(ctx, testutil.TestAddresses.IssuerA)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := registry.GetStudentCertificates(ctx, testutil.TestAddresses.Student2)
	require.NoError(t, err)
	require.Equal(t, []domain.CertificateID{2}, ids)
	cert, err := registry.GetCertificate(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Compilers", cert.ProgramName)
	assert.True(t, strings.HasPrefix(cert.ContentHash.String(), "sha256-"))
}

func TestApplyTwiceIsHarmless(t *testing.T) {
	s, registry, ctx := newSeeder(t)
	f, err := seeder.Parse([]byte(seedYAML))
	require.NoError(t, err)

	_, err = s.Apply(ctx, testutil.TestAddresses.Owner, f)
	require.NoError(t, err)
	res, err := s.Apply(ctx, testutil.TestAddresses.Owner, f)
	require.NoError(t, err)
	assert.Equal(t, seeder.Result{Skipped: 2}, res)

	total, err := registry.GetTotalCertificates(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func TestApplyStopsOnUnauthorizedIssuer(t *testing.T) {
	s, _, ctx := newSeeder(t)
	f, err := seeder.Parse([]byte(`
certificates:
  - issuer: "0x00000000000000000000000000000000000000c3"
    holder: "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
    subject_name: Ada
    program_name: Math
    content_hash: QmX
`))
	require.NoError(t, err)

	_, err = s.Apply(ctx, testutil.TestAddresses.Owner, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed certificate 1")
}

func TestLoadRejectsBadAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("issuers:\n  - \"0x1234\"\n"), 0o600))

	_, err := seeder.Load(path)
	require.Error(t, err)

	_, err = seeder.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
