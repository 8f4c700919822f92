//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	registrymetrics "certledger/internal/registry/metrics"
	"certledger/internal/registry/service"
	"certledger/internal/registry/store"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
	"certledger/pkg/testutil"
	"certledger/pkg/testutil/containers"
)

var addrs = testutil.TestAddresses

// PostgresServiceSuite drives the registry service end to end against
// Postgres, including the advisory-lock transaction and the outbox view.
type PostgresServiceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	backend  *store.Backend
	svc      *service.Service
	ctx      context.Context
}

func TestPostgresServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresServiceSuite))
}

func (s *PostgresServiceSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), testutil.FixedNow)
	s.Require().NoError(s.postgres.ResetLedger(s.ctx))

	metrics := registrymetrics.NewWith(prometheus.NewRegistry())
	s.backend = store.NewPostgres(s.postgres.DB, metrics)
	s.svc = service.New(s.backend.Stores, append(s.backend.ServiceOptions(), service.WithMetrics(metrics))...)
	s.Require().NoError(s.svc.EnsureOwner(s.ctx, addrs.Owner))
}

func (s *PostgresServiceSuite) issue(caller domain.Address, holder domain.Address, n int) (domain.CertificateID, error) {
	receipt, err := s.svc.IssueCertificate(s.ctx, service.IssueCommand{
		Caller:      caller,
		Holder:      holder,
		SubjectName: "Ada Lovelace",
		ProgramName: "Analytical Engines 101",
		ContentHash: testutil.ContentHash(n),
	})
	if err != nil {
		return 0, err
	}
	certID, ok := receipt.CertificateID()
	s.Require().True(ok)
	return certID, nil
}

func (s *PostgresServiceSuite) TestOwnerIsPersistedOnce() {
	s.Require().NoError(s.svc.EnsureOwner(s.ctx, addrs.Owner))

	err := s.svc.EnsureOwner(s.ctx, addrs.Stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	owner, err := s.svc.Owner(s.ctx)
	s.Require().NoError(err)
	s.Equal(addrs.Owner, owner)
}

func (s *PostgresServiceSuite) TestLifecycle() {
	_, err := s.svc.AddIssuer(s.ctx, addrs.Owner, addrs.IssuerA)
	s.Require().NoError(err)

	certID, err := s.issue(addrs.IssuerA, addrs.Student1, 1)
	s.Require().NoError(err)
	s.Equal(domain.CertificateID(1), certID)

	_, err = s.issue(addrs.IssuerA, addrs.Student1, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateContent))

	_, err = s.svc.RevokeCertificate(s.ctx, addrs.IssuerA, certID)
	s.Require().NoError(err)
	_, err = s.svc.RevokeCertificate(s.ctx, addrs.IssuerA, certID)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))

	v, err := s.svc.VerifyCertificate(s.ctx, certID)
	s.Require().NoError(err)
	s.False(v.IsValid)
	s.Equal(testutil.ContentHash(1), v.ContentHash)

	_, err = s.svc.RemoveIssuer(s.ctx, addrs.Owner, addrs.IssuerA)
	s.Require().NoError(err)
	_, err = s.issue(addrs.IssuerA, addrs.Student1, 2)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	total, err := s.svc.GetTotalCertificates(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)

	report, err := s.svc.VerifyEventChain(s.ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
	s.Equal(uint64(4), report.Entries)
}

func (s *PostgresServiceSuite) TestConcurrentIssuanceIsDense() {
	const n = 20
	res := testutil.RunConcurrent(n, func(idx int) error {
		_, err := s.issue(addrs.Owner, addrs.Student1, idx+1)
		return err
	})
	s.Equal(int32(n), res.Successes)

	ids, err := s.svc.GetStudentCertificates(s.ctx, addrs.Student1)
	s.Require().NoError(err)
	s.Require().Len(ids, n)
	for i, certID := range ids {
		s.Equal(domain.CertificateID(i+1), certID)
	}

	report, err := s.svc.VerifyEventChain(s.ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
	s.Equal(uint64(n), report.Entries)
}

func (s *PostgresServiceSuite) TestConcurrentDuplicateContentHasOneWinner() {
	res := testutil.RunConcurrent(10, func(int) error {
		_, err := s.issue(addrs.Owner, addrs.Student1, 1)
		return err
	})
	s.Equal(int32(1), res.Successes)
	s.Equal(int32(9), res.Duplicates)

	total, err := s.svc.GetTotalCertificates(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
}

func (s *PostgresServiceSuite) TestUnauthorizedLeavesNoTrace() {
	_, err := s.issue(addrs.Stranger, addrs.Student1, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.svc.AddIssuer(s.ctx, addrs.Stranger, addrs.IssuerA)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	entries, err := s.svc.Events(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Empty(entries)

	ok, err := s.svc.IsAuthorized(s.ctx, addrs.IssuerA)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresServiceSuite) TestOutboxSeesCommittedEvents() {
	_, err := s.svc.AddIssuer(s.ctx, addrs.Owner, addrs.IssuerA)
	s.Require().NoError(err)
	_, err = s.issue(addrs.IssuerA, addrs.Student2, 3)
	s.Require().NoError(err)

	pending, err := s.backend.Outbox.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(uint64(1), pending[0].Seq)

	s.Require().NoError(s.backend.Outbox.MarkPublished(s.ctx, pending[0].Seq, time.Now()))
	count, err := s.backend.Outbox.CountUnpublished(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}
