// Package service composes the issuer set, the credential ledger and the event log
// into the registry's caller-facing operations. Every mutation checks the caller's
// role inside its transaction, and either lands with all of its index updates and
// events or not at all.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"certledger/internal/eventlog"
	"certledger/internal/platform/tracer"
	registrymetrics "certledger/internal/registry/metrics"
	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/sentinel"
	"certledger/pkg/requestcontext"
)

const (
	defaultEventPage = 100
	maxEventPage     = 1000
)

// Service is the registry.
type Service struct {
	stores  Stores
	tx      StoreTx
	logger  *slog.Logger
	audit   *auditEmitter
	metrics *registrymetrics.Metrics
	tracer  tracer.Tracer
}

// New builds a registry over stores. Without WithTx, mutations serialize on an
// in-memory lock and run directly against stores.
func New(stores Stores, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = newInMemoryStoreTx(stores, cfg.metrics)
	}
	tr := cfg.tracer
	if tr == nil {
		tr = tracer.NewNoop()
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		stores:  stores,
		tx:      tx,
		logger:  logger,
		audit:   newAuditEmitter(logger),
		metrics: cfg.metrics,
		tracer:  tr,
	}
}

// EnsureOwner records owner on first start. Later starts must configure the same
// owner; there is no ownership transfer.
func (s *Service) EnsureOwner(ctx context.Context, owner domain.Address) error {
	if owner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "owner cannot be the zero address")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context, st Stores) error {
		current, err := st.Issuers.Owner(txCtx)
		switch {
		case err == nil && current == owner:
			return nil
		case err == nil:
			return dErrors.New(dErrors.CodeConflict, "registry is already owned by "+current.String())
		case !errors.Is(err, sentinel.ErrNotFound):
			return wrapIssuerErr(err, "failed to load registry owner")
		}
		if err := st.Issuers.SetOwner(txCtx, owner); err != nil {
			return wrapIssuerErr(err, "failed to record registry owner")
		}
		s.audit.emit(txCtx, "registry_owner_initialized", "owner", owner.String())
		return nil
	})
}

// IssueCertificate records a new credential and returns the receipt carrying its
// CertificateIssued event. Checks run in order: caller role, input, content hash.
func (s *Service) IssueCertificate(ctx context.Context, cmd IssueCommand) (*eventlog.Receipt, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue,
		tracer.String(tracer.AttrCaller, cmd.Caller.String()),
		tracer.String(tracer.AttrHolder, cmd.Holder.String()),
	)

	txID := uuid.NewString()
	var (
		receipt *eventlog.Receipt
		issued  *models.Certificate
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context, st Stores) error {
		if err := s.requireAuthorized(txCtx, st, cmd.Caller); err != nil {
			return err
		}
		cmd.Normalize()
		if err := cmd.Validate(); err != nil {
			return err
		}

		_, err := st.Certificates.FindIDByContentHash(txCtx, cmd.ContentHash)
		if err == nil {
			return dErrors.New(dErrors.CodeDuplicateContent, "content hash is already certified")
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return wrapCertificateErr(err, "failed to check content hash")
		}

		certID, err := st.Certificates.NextID(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate certificate id")
		}
		now := ledgerTime(txCtx)
		cert, err := models.NewCertificate(certID, cmd.Holder, cmd.SubjectName, cmd.ProgramName, cmd.ContentHash, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid certificate")
		}
		if err := st.Certificates.Create(txCtx, cert); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeDuplicateContent, "content hash is already certified")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store certificate")
		}

		entries, err := st.Events.Append(txCtx, txID, []eventlog.Event{
			eventlog.NewCertificateIssued(eventlog.CertificateIssued{
				ID:          cert.ID,
				Holder:      cert.Holder,
				SubjectName: cert.SubjectName,
				ProgramName: cert.ProgramName,
				ContentHash: cert.ContentHash,
				IssuedAt:    cert.IssuedAt,
			}),
		}, now)
		if err != nil {
			return wrapEventErr(err, "failed to append event")
		}

		receipt = &eventlog.Receipt{TxID: txID, Events: entries}
		issued = cert
		return nil
	})
	s.finish(span, "issue", start, err)
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, "certificate_issued",
		"certificate_id", issued.ID.String(),
		"holder", issued.Holder.String(),
		"issuer", cmd.Caller.String(),
		"content_hash", issued.ContentHash.String(),
		"tx_id", txID,
	)
	if s.metrics != nil {
		// ids are dense, so the newest id is the total.
		s.metrics.SetCertificatesTotal(uint64(issued.ID))
	}
	return receipt, nil
}

// RevokeCertificate moves a credential to Revoked. Revoking twice fails with
// CodeAlreadyRevoked.
func (s *Service) RevokeCertificate(ctx context.Context, caller domain.Address, certID domain.CertificateID) (*eventlog.Receipt, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanRevoke,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.Int64(tracer.AttrCertificateID, int64(certID)),
	)

	txID := uuid.NewString()
	var receipt *eventlog.Receipt
	err := s.tx.RunInTx(ctx, func(txCtx context.Context, st Stores) error {
		if err := s.requireAuthorized(txCtx, st, caller); err != nil {
			return err
		}
		cert, err := st.Certificates.FindByID(txCtx, certID)
		if err != nil {
			return wrapCertificateErr(err, "failed to load certificate")
		}

		now := ledgerTime(txCtx)
		if err := cert.Revoke(caller, now); err != nil {
			return err
		}
		if err := st.Certificates.UpdateStatus(txCtx, cert); err != nil {
			return wrapCertificateErr(err, "failed to update certificate")
		}

		entries, err := st.Events.Append(txCtx, txID, []eventlog.Event{
			eventlog.NewCertificateRevoked(eventlog.CertificateRevoked{ID: cert.ID, RevokedBy: caller}),
		}, now)
		if err != nil {
			return wrapEventErr(err, "failed to append event")
		}
		receipt = &eventlog.Receipt{TxID: txID, Events: entries}
		return nil
	})
	s.finish(span, "revoke", start, err)
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, "certificate_revoked",
		"certificate_id", certID.String(),
		"revoked_by", caller.String(),
		"tx_id", txID,
	)
	return receipt, nil
}

// AddIssuer authorizes identity. Adding an authorized identity succeeds with a
// receipt that carries no events.
func (s *Service) AddIssuer(ctx context.Context, caller, identity domain.Address) (*eventlog.Receipt, error) {
	return s.setIssuer(ctx, caller, identity, true)
}

// RemoveIssuer withdraws identity's authorization. Removing an identity that is
// not authorized succeeds with no events.
func (s *Service) RemoveIssuer(ctx context.Context, caller, identity domain.Address) (*eventlog.Receipt, error) {
	return s.setIssuer(ctx, caller, identity, false)
}

func (s *Service) setIssuer(ctx context.Context, caller, identity domain.Address, authorize bool) (*eventlog.Receipt, error) {
	op, spanName, auditEvent := "add_issuer", tracer.SpanAddIssuer, "issuer_added"
	if !authorize {
		op, spanName, auditEvent = "remove_issuer", tracer.SpanRemoveIssuer, "issuer_removed"
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, spanName,
		tracer.String(tracer.AttrCaller, caller.String()),
		tracer.String(tracer.AttrIdentity, identity.String()),
	)

	txID := uuid.NewString()
	var receipt *eventlog.Receipt
	err := s.tx.RunInTx(ctx, func(txCtx context.Context, st Stores) error {
		if err := s.requireOwner(txCtx, st, caller); err != nil {
			return err
		}
		if identity.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "identity cannot be the zero address")
		}

		issuer, err := st.Issuers.Find(txCtx, identity)
		if errors.Is(err, sentinel.ErrNotFound) {
			issuer, err = &models.Issuer{Address: identity}, nil
		}
		if err != nil {
			return wrapIssuerErr(err, "failed to load issuer")
		}

		now := ledgerTime(txCtx)
		var changed bool
		if authorize {
			changed = issuer.Authorize(now)
		} else {
			changed = issuer.Deauthorize(now)
		}
		receipt = &eventlog.Receipt{TxID: txID, Events: []eventlog.Entry{}}
		if !changed {
			return nil
		}

		if err := st.Issuers.Save(txCtx, issuer); err != nil {
			return wrapIssuerErr(err, "failed to save issuer")
		}
		ev := eventlog.NewIssuerAdded(eventlog.IssuerAdded{Identity: identity})
		if !authorize {
			ev = eventlog.NewIssuerRemoved(eventlog.IssuerRemoved{Identity: identity})
		}
		entries, err := st.Events.Append(txCtx, txID, []eventlog.Event{ev}, now)
		if err != nil {
			return wrapEventErr(err, "failed to append event")
		}
		receipt.Events = entries
		return nil
	})
	s.finish(span, op, start, err)
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, auditEvent,
		"identity", identity.String(),
		"owner", caller.String(),
		"changed", len(receipt.Events) > 0,
		"tx_id", txID,
	)
	return receipt, nil
}

// VerifyCertificate reports a credential's validity and public fields. Unknown ids
// fail with CodeNotFound.
func (s *Service) VerifyCertificate(ctx context.Context, certID domain.CertificateID) (*models.Verification, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify, tracer.Int64(tracer.AttrCertificateID, int64(certID)))
	cert, err := s.stores.Certificates.FindByID(ctx, certID)
	if err != nil {
		err = wrapCertificateErr(err, "failed to load certificate")
		span.End(err)
		s.observeVerification("id", nil, err)
		return nil, err
	}
	span.End(nil)
	s.observeVerification("id", cert, nil)
	return cert.Verification(), nil
}

// VerifyByHash looks a credential up by content hash. A hash that was never
// certified yields IsValid=false and ID=0, not an error.
func (s *Service) VerifyByHash(ctx context.Context, hash domain.ContentHash) (*models.HashVerification, error) {
	hash, err := domain.ParseContentHash(string(hash))
	if err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyByHash, tracer.String(tracer.AttrContentHash, hash.String()))

	certID, err := s.stores.Certificates.FindIDByContentHash(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		span.End(nil)
		s.observeVerification("hash", nil, nil)
		return &models.HashVerification{IsValid: false, ID: 0}, nil
	}
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up content hash")
		span.End(err)
		return nil, err
	}
	cert, err := s.stores.Certificates.FindByID(ctx, certID)
	if err != nil {
		// The hash index only ever points at stored records.
		err = dErrors.Wrap(err, dErrors.CodeInternal, "content hash index is inconsistent")
		span.End(err)
		return nil, err
	}
	span.End(nil)
	s.observeVerification("hash", cert, nil)
	return &models.HashVerification{IsValid: cert.IsValid(), ID: cert.ID}, nil
}

// GetCertificate returns the full record, including revocation details.
func (s *Service) GetCertificate(ctx context.Context, certID domain.CertificateID) (*models.Certificate, error) {
	cert, err := s.stores.Certificates.FindByID(ctx, certID)
	if err != nil {
		return nil, wrapCertificateErr(err, "failed to load certificate")
	}
	return cert, nil
}

// GetStudentCertificates lists the holder's certificate ids in issuance order.
func (s *Service) GetStudentCertificates(ctx context.Context, holder domain.Address) ([]domain.CertificateID, error) {
	ids, err := s.stores.Certificates.ListIDsByHolder(ctx, holder)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return ids, nil
}

func (s *Service) GetTotalCertificates(ctx context.Context) (uint64, error) {
	count, err := s.stores.Certificates.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count certificates")
	}
	return count, nil
}

// IsAuthorized reports whether identity may issue and revoke: the owner or a
// currently authorized issuer.
func (s *Service) IsAuthorized(ctx context.Context, identity domain.Address) (bool, error) {
	return s.isAuthorized(ctx, s.stores, identity)
}

// Authorization describes identity's standing in the issuer set.
func (s *Service) Authorization(ctx context.Context, identity domain.Address) (*models.Authorization, error) {
	owner, err := s.stores.Issuers.Owner(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapIssuerErr(err, "failed to load registry owner")
	}
	authorized, err := s.isAuthorized(ctx, s.stores, identity)
	if err != nil {
		return nil, err
	}
	return &models.Authorization{
		Address:    identity,
		Authorized: authorized,
		IsOwner:    !identity.IsZero() && identity == owner,
	}, nil
}

func (s *Service) ListIssuers(ctx context.Context) ([]*models.Issuer, error) {
	issuers, err := s.stores.Issuers.ListAuthorized(ctx)
	if err != nil {
		return nil, wrapIssuerErr(err, "failed to list issuers")
	}
	return issuers, nil
}

func (s *Service) Owner(ctx context.Context) (domain.Address, error) {
	owner, err := s.stores.Issuers.Owner(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeNotFound, "registry owner is not initialized")
	}
	if err != nil {
		return domain.ZeroAddress, wrapIssuerErr(err, "failed to load registry owner")
	}
	return owner, nil
}

// Receipt re-reads the events a committed transaction emitted. Transactions that
// emitted nothing are not recorded and report CodeNotFound.
func (s *Service) Receipt(ctx context.Context, txID string) (*eventlog.Receipt, error) {
	if _, err := uuid.Parse(txID); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid transaction id")
	}
	entries, err := s.stores.Events.ListByTx(ctx, txID)
	if err != nil {
		return nil, wrapEventErr(err, "failed to load transaction")
	}
	if len(entries) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	return &eventlog.Receipt{TxID: txID, Events: entries}, nil
}

// Events pages through the log after afterSeq. limit <= 0 selects the default
// page size; larger limits are capped.
func (s *Service) Events(ctx context.Context, afterSeq uint64, limit int) ([]eventlog.Entry, error) {
	if limit <= 0 {
		limit = defaultEventPage
	}
	if limit > maxEventPage {
		limit = maxEventPage
	}
	entries, err := s.stores.Events.ListAfter(ctx, afterSeq, limit)
	if err != nil {
		return nil, wrapEventErr(err, "failed to list events")
	}
	return entries, nil
}

// ChainReport is the outcome of walking the whole event log.
type ChainReport struct {
	Valid    bool   `json:"valid"`
	Entries  uint64 `json:"entries"`
	HeadHash string `json:"head_hash"`
	BrokenAt uint64 `json:"broken_at,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// VerifyEventChain recomputes every entry hash from genesis. A broken chain is a
// report, not an error; errors are reserved for failing to read the log.
func (s *Service) VerifyEventChain(ctx context.Context) (*ChainReport, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyChain)

	report := &ChainReport{Valid: true, HeadHash: eventlog.GenesisHash}
	var prev *eventlog.Entry
	for {
		var after uint64
		if prev != nil {
			after = prev.Seq
		}
		page, err := s.stores.Events.ListAfter(ctx, after, maxEventPage)
		if err != nil {
			err = wrapEventErr(err, "failed to read event log")
			span.End(err)
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		if err := eventlog.Verify(prev, page); err != nil {
			var chainErr *eventlog.ChainError
			if errors.As(err, &chainErr) {
				report.Valid = false
				report.BrokenAt = chainErr.Seq
				report.Reason = chainErr.Reason
				s.logger.WarnContext(ctx, "event chain verification failed",
					"seq", chainErr.Seq,
					"reason", chainErr.Reason,
				)
				break
			}
			span.End(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify event log")
		}
		last := page[len(page)-1]
		prev = &last
		report.Entries = last.Seq
		report.HeadHash = last.Hash
	}
	span.SetAttributes(tracer.Int64(tracer.AttrEventCount, int64(report.Entries)))
	span.End(nil)
	return report, nil
}

func (s *Service) requireAuthorized(ctx context.Context, st Stores, caller domain.Address) error {
	ok, err := s.isAuthorized(ctx, st, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized issuer")
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, st Stores, caller domain.Address) error {
	owner, err := st.Issuers.Owner(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return wrapIssuerErr(err, "failed to load registry owner")
	}
	if err != nil || caller.IsZero() || caller != owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the registry owner can manage issuers")
	}
	return nil
}

func (s *Service) isAuthorized(ctx context.Context, st Stores, identity domain.Address) (bool, error) {
	if identity.IsZero() {
		return false, nil
	}
	owner, err := st.Issuers.Owner(ctx)
	switch {
	case err == nil && owner == identity:
		return true, nil
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return false, wrapIssuerErr(err, "failed to load registry owner")
	}
	issuer, err := st.Issuers.Find(ctx, identity)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapIssuerErr(err, "failed to load issuer")
	}
	return issuer.Authorized, nil
}

func (s *Service) finish(span tracer.Span, operation string, start time.Time, err error) {
	span.End(err)
	if s.metrics == nil {
		return
	}
	s.metrics.IncMutation(operation, outcome(err))
	s.metrics.ObserveOperation(operation, start)
}

func (s *Service) observeVerification(path string, cert *models.Certificate, err error) {
	if s.metrics == nil {
		return
	}
	result := "unknown"
	switch {
	case err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound):
		result = "error"
	case cert == nil:
	case cert.IsValid():
		result = "valid"
	default:
		result = "revoked"
	}
	s.metrics.IncVerification(path, result)
}

// ledgerTime is the transaction timestamp: the request-scoped clock, in UTC and
// at the precision the stores keep.
func ledgerTime(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}
