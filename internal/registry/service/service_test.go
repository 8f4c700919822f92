package service

//go:generate mockgen -source=contracts.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certledger/internal/eventlog"
	eventstore "certledger/internal/eventlog/store"
	registrymetrics "certledger/internal/registry/metrics"
	"certledger/internal/registry/store/certificate"
	"certledger/internal/registry/store/issuer"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/requestcontext"
	fixtures "certledger/pkg/testutil"
)

var (
	owner    = fixtures.TestAddresses.Owner
	issuerA  = fixtures.TestAddresses.IssuerA
	issuerB  = fixtures.TestAddresses.IssuerB
	student  = fixtures.TestAddresses.Student1
	student2 = fixtures.TestAddresses.Student2
	stranger = fixtures.TestAddresses.Stranger
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	events  *eventstore.InMemoryStore
	metrics *registrymetrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), fixtures.FixedNow)
	s.events = eventstore.NewInMemory()
	s.stores = Stores{
		Certificates: certificate.NewInMemory(),
		Issuers:      issuer.NewInMemory(),
		Events:       s.events,
	}
	s.metrics = registrymetrics.NewWith(prometheus.NewRegistry())
	s.service = New(s.stores,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(s.service.EnsureOwner(s.ctx, owner))
}

func (s *ServiceSuite) issueCmd(caller, holder domain.Address, hash domain.ContentHash) IssueCommand {
	return IssueCommand{
		Caller:      caller,
		Holder:      holder,
		SubjectName: "Ada Lovelace",
		ProgramName: "Analytical Engines 101",
		ContentHash: hash,
	}
}

func (s *ServiceSuite) issue(caller, holder domain.Address, hash domain.ContentHash) domain.CertificateID {
	receipt, err := s.service.IssueCertificate(s.ctx, s.issueCmd(caller, holder, hash))
	s.Require().NoError(err)
	certID, ok := receipt.CertificateID()
	s.Require().True(ok)
	return certID
}

func (s *ServiceSuite) addIssuer(identity domain.Address) {
	_, err := s.service.AddIssuer(s.ctx, owner, identity)
	s.Require().NoError(err)
}

func (s *ServiceSuite) eventCount() int {
	entries, err := s.events.ListAfter(s.ctx, 0, 0)
	s.Require().NoError(err)
	return len(entries)
}

// TestLifecycleScenario walks the canonical issue / duplicate / revoke / removal flow.
func (s *ServiceSuite) TestLifecycleScenario() {
	s.addIssuer(issuerA)

	certID := s.issue(issuerA, student, "abc")
	s.Equal(domain.CertificateID(1), certID)
	before, err := s.service.GetCertificate(s.ctx, certID)
	s.Require().NoError(err)
	s.True(before.IsValid())

	_, err = s.service.IssueCertificate(s.ctx, s.issueCmd(issuerA, student, "abc"))
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateContent))
	total, err := s.service.GetTotalCertificates(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)

	_, err = s.service.RevokeCertificate(s.ctx, issuerA, certID)
	s.Require().NoError(err)
	verification, err := s.service.VerifyCertificate(s.ctx, certID)
	s.Require().NoError(err)
	s.False(verification.IsValid)
	s.Equal(before.SubjectName, verification.SubjectName)
	s.Equal(before.ProgramName, verification.ProgramName)
	s.Equal(before.ContentHash, verification.ContentHash)
	s.Equal(before.Holder, verification.Holder)
	s.True(before.IssuedAt.Equal(verification.IssuedAt))

	_, err = s.service.RevokeCertificate(s.ctx, issuerA, certID)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))

	_, err = s.service.RemoveIssuer(s.ctx, owner, issuerA)
	s.Require().NoError(err)
	_, err = s.service.IssueCertificate(s.ctx, s.issueCmd(issuerA, student, "def"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	report, err := s.service.VerifyEventChain(s.ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
	// IssuerAdded, CertificateIssued, CertificateRevoked, IssuerRemoved
	s.Equal(uint64(4), report.Entries)
}

func (s *ServiceSuite) TestIDsAreDenseAndIncreasing() {
	s.addIssuer(issuerA)
	for i := 1; i <= 5; i++ {
		certID := s.issue(issuerA, student, fixtures.ContentHash(i))
		s.Equal(domain.CertificateID(i), certID)
	}
	total, err := s.service.GetTotalCertificates(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(5), total)
	s.Equal(float64(5), testutil.ToFloat64(s.metrics.CertificatesTotal))
}

func (s *ServiceSuite) TestOwnerCanIssueWithoutBeingAdded() {
	certID := s.issue(owner, student, "owner-hash")
	s.Equal(domain.CertificateID(1), certID)

	ok, err := s.service.IsAuthorized(s.ctx, owner)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ServiceSuite) TestDuplicateContentRegardlessOfCaller() {
	s.addIssuer(issuerA)
	s.addIssuer(issuerB)
	s.issue(issuerA, student, "shared")

	_, err := s.service.IssueCertificate(s.ctx, s.issueCmd(issuerB, student2, "shared"))
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateContent))

	ids, err := s.service.GetStudentCertificates(s.ctx, student2)
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *ServiceSuite) TestIssueValidation() {
	s.addIssuer(issuerA)
	cases := map[string]IssueCommand{
		"zero holder":     s.issueCmd(issuerA, domain.ZeroAddress, "h1"),
		"empty subject":   {Caller: issuerA, Holder: student, SubjectName: "  ", ProgramName: "p", ContentHash: "h2"},
		"empty program":   {Caller: issuerA, Holder: student, SubjectName: "s", ProgramName: "", ContentHash: "h3"},
		"empty hash":      s.issueCmd(issuerA, student, " "),
		"oversized names": {Caller: issuerA, Holder: student, SubjectName: string(make([]byte, 257)), ProgramName: "p", ContentHash: "h4"},
	}
	for name, cmd := range cases {
		s.Run(name, func() {
			_, err := s.service.IssueCertificate(s.ctx, cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "got %v", err)
		})
	}
	s.Equal(1, s.eventCount(), "only the IssuerAdded event is logged")
}

func (s *ServiceSuite) TestUnauthorizedPrecedesValidation() {
	_, err := s.service.IssueCertificate(s.ctx, s.issueCmd(stranger, domain.ZeroAddress, ""))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestUnauthorizedMutationsLeaveStateUnchanged() {
	s.addIssuer(issuerA)
	certID := s.issue(issuerA, student, "h1")
	eventsBefore := s.eventCount()

	_, err := s.service.IssueCertificate(s.ctx, s.issueCmd(stranger, student, "h2"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.RevokeCertificate(s.ctx, stranger, certID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.AddIssuer(s.ctx, issuerA, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.RemoveIssuer(s.ctx, issuerA, issuerA)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.AddIssuer(s.ctx, domain.ZeroAddress, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Equal(eventsBefore, s.eventCount())
	total, err := s.service.GetTotalCertificates(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
	verification, err := s.service.VerifyCertificate(s.ctx, certID)
	s.Require().NoError(err)
	s.True(verification.IsValid)
	issuers, err := s.service.ListIssuers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(issuers, 1)
	s.Equal(issuerA, issuers[0].Address)
	unauthorized := func(op string) float64 {
		return testutil.ToFloat64(s.metrics.Mutations.WithLabelValues(op, "unauthorized"))
	}
	s.Equal(float64(1), unauthorized("issue"))
	s.Equal(float64(1), unauthorized("revoke"))
	s.Equal(float64(2), unauthorized("add_issuer"))
	s.Equal(float64(1), unauthorized("remove_issuer"))
}

func (s *ServiceSuite) TestRevokeUnknownCertificate() {
	s.addIssuer(issuerA)
	for _, certID := range []domain.CertificateID{0, 42} {
		_, err := s.service.RevokeCertificate(s.ctx, issuerA, certID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	}
}

func (s *ServiceSuite) TestRevocationRecordsRevoker() {
	s.addIssuer(issuerA)
	s.addIssuer(issuerB)
	certID := s.issue(issuerA, student, "h1")

	receipt, err := s.service.RevokeCertificate(s.ctx, issuerB, certID)
	s.Require().NoError(err)
	s.Require().Len(receipt.Events, 1)
	decoded, err := receipt.Events[0].Decode()
	s.Require().NoError(err)
	revoked := decoded.(*eventlog.CertificateRevoked)
	s.Equal(certID, revoked.ID)
	s.Equal(issuerB, revoked.RevokedBy)

	cert, err := s.service.GetCertificate(s.ctx, certID)
	s.Require().NoError(err)
	s.Require().NotNil(cert.RevokedBy)
	s.Equal(issuerB, *cert.RevokedBy)
}

func (s *ServiceSuite) TestVerifyByHash() {
	s.addIssuer(issuerA)
	certID := s.issue(issuerA, student, "h1")

	found, err := s.service.VerifyByHash(s.ctx, "h1")
	s.Require().NoError(err)
	s.True(found.IsValid)
	s.Equal(certID, found.ID)

	missing, err := s.service.VerifyByHash(s.ctx, "never-issued")
	s.Require().NoError(err)
	s.False(missing.IsValid)
	s.Equal(domain.CertificateID(0), missing.ID)

	_, err = s.service.RevokeCertificate(s.ctx, issuerA, certID)
	s.Require().NoError(err)
	revoked, err := s.service.VerifyByHash(s.ctx, "h1")
	s.Require().NoError(err)
	s.False(revoked.IsValid)
	s.Equal(certID, revoked.ID)

	_, err = s.service.VerifyByHash(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Verifications.WithLabelValues("hash", "unknown")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Verifications.WithLabelValues("hash", "revoked")))
}

func (s *ServiceSuite) TestVerifyUnknownID() {
	_, err := s.service.VerifyCertificate(s.ctx, 7)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestHolderListing() {
	s.addIssuer(issuerA)
	a := s.issue(issuerA, student, "h1")
	s.issue(issuerA, student2, "h2")
	c := s.issue(issuerA, student, "h3")

	ids, err := s.service.GetStudentCertificates(s.ctx, student)
	s.Require().NoError(err)
	s.Equal([]domain.CertificateID{a, c}, ids)

	none, err := s.service.GetStudentCertificates(s.ctx, stranger)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *ServiceSuite) TestIssuerChangesAreIdempotent() {
	first, err := s.service.AddIssuer(s.ctx, owner, issuerA)
	s.Require().NoError(err)
	s.Len(first.Events, 1)
	s.Equal(eventlog.TypeIssuerAdded, first.Events[0].Type)

	again, err := s.service.AddIssuer(s.ctx, owner, issuerA)
	s.Require().NoError(err)
	s.Empty(again.Events)

	removed, err := s.service.RemoveIssuer(s.ctx, owner, issuerA)
	s.Require().NoError(err)
	s.Len(removed.Events, 1)

	removedAgain, err := s.service.RemoveIssuer(s.ctx, owner, issuerA)
	s.Require().NoError(err)
	s.Empty(removedAgain.Events)

	neverAdded, err := s.service.RemoveIssuer(s.ctx, owner, stranger)
	s.Require().NoError(err)
	s.Empty(neverAdded.Events)

	readded, err := s.service.AddIssuer(s.ctx, owner, issuerA)
	s.Require().NoError(err)
	s.Len(readded.Events, 1)

	s.Equal(3, s.eventCount())
}

func (s *ServiceSuite) TestAddIssuerRejectsZeroIdentity() {
	_, err := s.service.AddIssuer(s.ctx, owner, domain.ZeroAddress)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestAuthorization() {
	s.addIssuer(issuerA)

	ownerAuth, err := s.service.Authorization(s.ctx, owner)
	s.Require().NoError(err)
	s.True(ownerAuth.Authorized)
	s.True(ownerAuth.IsOwner)

	issuerAuth, err := s.service.Authorization(s.ctx, issuerA)
	s.Require().NoError(err)
	s.True(issuerAuth.Authorized)
	s.False(issuerAuth.IsOwner)

	strangerAuth, err := s.service.Authorization(s.ctx, stranger)
	s.Require().NoError(err)
	s.False(strangerAuth.Authorized)
}

func (s *ServiceSuite) TestReceiptMatchesRecord() {
	s.addIssuer(issuerA)
	receipt, err := s.service.IssueCertificate(s.ctx, s.issueCmd(issuerA, student, "h1"))
	s.Require().NoError(err)

	certID, ok := receipt.CertificateID()
	s.Require().True(ok)
	cert, err := s.service.GetCertificate(s.ctx, certID)
	s.Require().NoError(err)

	decoded, err := receipt.Events[0].Decode()
	s.Require().NoError(err)
	issued := decoded.(*eventlog.CertificateIssued)
	s.Equal(cert.Holder, issued.Holder)
	s.Equal(cert.ContentHash, issued.ContentHash)
	s.True(cert.IssuedAt.Equal(issued.IssuedAt))
	s.True(cert.IssuedAt.Equal(fixtures.FixedNow), "issuedAt comes from the request clock")

	reread, err := s.service.Receipt(s.ctx, receipt.TxID)
	s.Require().NoError(err)
	s.Equal(receipt.Events, reread.Events)
}

func (s *ServiceSuite) TestReceiptLookupErrors() {
	_, err := s.service.Receipt(s.ctx, "not-a-uuid")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Receipt(s.ctx, "6f1c1a0e-8f55-4d8e-9d7a-2b8f1c0e9a11")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestEventsPaging() {
	s.addIssuer(issuerA)
	for i := 1; i <= 3; i++ {
		s.issue(issuerA, student, fixtures.ContentHash(i))
	}

	page, err := s.service.Events(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(uint64(2), page[0].Seq)
	s.Equal(uint64(3), page[1].Seq)

	all, err := s.service.Events(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Len(all, 4)
}

func (s *ServiceSuite) TestVerifyEventChainDetectsTampering() {
	s.addIssuer(issuerA)
	s.issue(issuerA, student, "h1")
	s.issue(issuerA, student, "h2")

	tampered := New(Stores{
		Certificates: s.stores.Certificates,
		Issuers:      s.stores.Issuers,
		Events:       &tamperingLog{EventLog: s.events, seq: 2},
	})
	report, err := tampered.VerifyEventChain(s.ctx)
	s.Require().NoError(err)
	s.False(report.Valid)
	s.Equal(uint64(2), report.BrokenAt)
	s.Equal("hash mismatch", report.Reason)
}

func (s *ServiceSuite) TestVerifyEventChainOnEmptyLog() {
	fresh := New(Stores{
		Certificates: certificate.NewInMemory(),
		Issuers:      issuer.NewInMemory(),
		Events:       eventstore.NewInMemory(),
	})
	report, err := fresh.VerifyEventChain(s.ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
	s.Equal(uint64(0), report.Entries)
	s.Equal(eventlog.GenesisHash, report.HeadHash)
}

func (s *ServiceSuite) TestConcurrentIssuanceOfSameContent() {
	s.addIssuer(issuerA)
	result := fixtures.RunConcurrent(20, func(idx int) error {
		_, err := s.service.IssueCertificate(s.ctx, s.issueCmd(issuerA, student, "contended"))
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.Duplicates)
	s.Equal(int32(0), result.Errors)
}

func (s *ServiceSuite) TestConcurrentIssuanceKeepsIDsDense() {
	s.addIssuer(issuerA)
	result := fixtures.RunConcurrent(25, func(idx int) error {
		_, err := s.service.IssueCertificate(s.ctx, s.issueCmd(issuerA, student, fixtures.ContentHash(idx)))
		return err
	})
	s.Equal(int32(25), result.Successes)

	ids, err := s.service.GetStudentCertificates(s.ctx, student)
	s.Require().NoError(err)
	s.Require().Len(ids, 25)
	for i, certID := range ids {
		s.Equal(domain.CertificateID(i+1), certID)
	}
	report, err := s.service.VerifyEventChain(s.ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
}

func (s *ServiceSuite) TestConcurrentRevocation() {
	s.addIssuer(issuerA)
	certID := s.issue(issuerA, student, "h1")
	result := fixtures.RunConcurrent(10, func(int) error {
		_, err := s.service.RevokeCertificate(s.ctx, issuerA, certID)
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.AlreadyRevoked)
}

func TestEnsureOwner(t *testing.T) {
	ctx := context.Background()
	svc := New(Stores{
		Certificates: certificate.NewInMemory(),
		Issuers:      issuer.NewInMemory(),
		Events:       eventstore.NewInMemory(),
	})

	_, err := svc.Owner(ctx)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	require.NoError(t, svc.EnsureOwner(ctx, owner))
	require.NoError(t, svc.EnsureOwner(ctx, owner), "restart with the same owner")

	err = svc.EnsureOwner(ctx, issuerA)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	err = svc.EnsureOwner(ctx, domain.ZeroAddress)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	got, err := svc.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestRunInTxHonoursCancellation(t *testing.T) {
	tx := newInMemoryStoreTx(Stores{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tx.RunInTx(ctx, func(context.Context, Stores) error {
		called = true
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.False(t, called)
}

func TestRunInTxAppliesDefaultTimeout(t *testing.T) {
	tx := newInMemoryStoreTx(Stores{}, nil)
	err := tx.RunInTx(context.Background(), func(ctx context.Context, _ Stores) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(defaultTxTimeout), deadline, time.Second)
		return nil
	})
	require.NoError(t, err)
}

// tamperingLog rewrites one entry's payload on read, as an edited database row would.
type tamperingLog struct {
	EventLog
	seq uint64
}

func (l *tamperingLog) ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]eventlog.Entry, error) {
	entries, err := l.EventLog.ListAfter(ctx, afterSeq, limit)
	for i := range entries {
		if entries[i].Seq == l.seq {
			entries[i].Payload = []byte(`{"forged":true}`)
		}
	}
	return entries, err
}

func TestAuditFallsBackToDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	ctx := requestcontext.WithTime(context.Background(), fixtures.FixedNow)
	svc := New(Stores{
		Certificates: certificate.NewInMemory(),
		Issuers:      issuer.NewInMemory(),
		Events:       eventstore.NewInMemory(),
	}, WithMetrics(registrymetrics.NewWith(prometheus.NewRegistry())))
	require.NoError(t, svc.EnsureOwner(ctx, owner))

	_, err := svc.AddIssuer(ctx, owner, issuerA)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"log_type":"audit"`)
	assert.Contains(t, buf.String(), `"event":"issuer_added"`)
}
