// Package issuance composes the registry with the metadata store: it pins a
// credential's descriptive document, issues the credential against the
// resulting hash, and reassembles both halves for display.
package issuance

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"certledger/internal/eventlog"
	"certledger/internal/metadata"
	"certledger/internal/platform/tracer"
	"certledger/internal/registry/models"
	"certledger/internal/registry/service"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
)

const defaultPortfolioConcurrency = 8

// Registry is the slice of the registry service this package drives.
type Registry interface {
	IsAuthorized(ctx context.Context, identity domain.Address) (bool, error)
	IssueCertificate(ctx context.Context, cmd service.IssueCommand) (*eventlog.Receipt, error)
	VerifyCertificate(ctx context.Context, certID domain.CertificateID) (*models.Verification, error)
	GetStudentCertificates(ctx context.Context, holder domain.Address) ([]domain.CertificateID, error)
}

// IssueRequest carries either a precomputed ContentHash or a Metadata document
// to pin. With metadata, empty holder and names are filled from the document.
type IssueRequest struct {
	Holder      domain.Address
	SubjectName string
	ProgramName string
	ContentHash domain.ContentHash
	Metadata    *metadata.Metadata
}

// Issued is the outcome of a successful issuance.
type Issued struct {
	CertificateID domain.CertificateID
	ContentHash   domain.ContentHash
	Receipt       *eventlog.Receipt
}

// Description is a credential's ledger state joined with its metadata.
// MetadataStatus is "ok", "missing" or "unavailable"; verification does not
// depend on the blob store being reachable.
type Description struct {
	Verification   *models.Verification `json:"verification"`
	Metadata       *metadata.Metadata   `json:"metadata,omitempty"`
	MetadataStatus string               `json:"metadata_status"`
}

type Service struct {
	registry    Registry
	blobs       metadata.Store
	logger      *slog.Logger
	tracer      tracer.Tracer
	concurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithConcurrency bounds the parallel verifications of HolderPortfolio.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(registry Registry, blobs metadata.Store, opts ...Option) *Service {
	s := &Service{
		registry:    registry,
		blobs:       blobs,
		logger:      slog.Default(),
		tracer:      tracer.NewNoop(),
		concurrency: defaultPortfolioConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue pins req.Metadata (when given) and issues the credential. Authorization
// is checked before pinning so that strangers cannot fill the blob store; the
// registry checks it again inside its transaction.
func (s *Service) Issue(ctx context.Context, caller domain.Address, req IssueRequest) (*Issued, error) {
	if req.Metadata != nil {
		ok, err := s.registry.IsAuthorized(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized issuer")
		}
	}

	cmd, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	cmd.Caller = caller

	if req.Metadata != nil {
		pctx, span := s.tracer.Start(ctx, tracer.SpanMetadataPut, tracer.String(tracer.AttrHolder, cmd.Holder.String()))
		hash, err := s.blobs.Put(pctx, req.Metadata)
		span.End(err)
		if err != nil {
			return nil, err
		}
		cmd.ContentHash = hash
	}

	receipt, err := s.registry.IssueCertificate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	certID, ok := receipt.CertificateID()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "issuance receipt carries no certificate id")
	}
	s.logger.InfoContext(ctx, "certificate issued with metadata",
		"certificate_id", certID.String(),
		"content_hash", cmd.ContentHash.String(),
		"pinned", req.Metadata != nil,
	)
	return &Issued{CertificateID: certID, ContentHash: cmd.ContentHash, Receipt: receipt}, nil
}

func (s *Service) resolve(req IssueRequest) (service.IssueCommand, error) {
	cmd := service.IssueCommand{
		Holder:      req.Holder,
		SubjectName: req.SubjectName,
		ProgramName: req.ProgramName,
		ContentHash: req.ContentHash,
	}
	if req.Metadata == nil {
		return cmd, nil
	}
	if !req.ContentHash.IsNil() {
		return cmd, dErrors.New(dErrors.CodeInvalidInput, "provide either content_hash or metadata, not both")
	}

	doc := *req.Metadata
	doc.Normalize()
	docHolder, err := doc.Holder()
	if err != nil {
		return cmd, err
	}
	if cmd.Holder.IsZero() {
		cmd.Holder = docHolder
	} else if cmd.Holder != docHolder {
		return cmd, dErrors.New(dErrors.CodeInvalidInput, "metadata student_address does not match holder")
	}
	if cmd.SubjectName == "" {
		cmd.SubjectName = doc.StudentName
	}
	if cmd.ProgramName == "" {
		cmd.ProgramName = doc.CourseName
	}
	return cmd, nil
}

// Describe verifies certID and attaches its metadata when the store has it.
func (s *Service) Describe(ctx context.Context, certID domain.CertificateID) (*Description, error) {
	v, err := s.registry.VerifyCertificate(ctx, certID)
	if err != nil {
		return nil, err
	}
	d := &Description{Verification: v, MetadataStatus: "ok"}

	doc, err := s.fetch(ctx, v.ContentHash)
	switch {
	case err == nil:
		d.Metadata = doc
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		d.MetadataStatus = "missing"
	default:
		d.MetadataStatus = "unavailable"
		s.logger.WarnContext(ctx, "metadata fetch failed",
			"certificate_id", certID.String(),
			"content_hash", v.ContentHash.String(),
			"error", err,
		)
	}
	return d, nil
}

// Metadata returns certID's document, failing when the store cannot produce it.
func (s *Service) Metadata(ctx context.Context, certID domain.CertificateID) (*metadata.Metadata, error) {
	v, err := s.registry.VerifyCertificate(ctx, certID)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, v.ContentHash)
}

func (s *Service) fetch(ctx context.Context, hash domain.ContentHash) (*metadata.Metadata, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanMetadataGet, tracer.String(tracer.AttrContentHash, hash.String()))
	doc, err := s.blobs.Get(ctx, hash)
	span.End(err)
	return doc, err
}

// HolderPortfolio verifies every credential held by holder, in issuance order.
func (s *Service) HolderPortfolio(ctx context.Context, holder domain.Address) ([]*models.Verification, error) {
	ids, err := s.registry.GetStudentCertificates(ctx, holder)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Verification, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, certID := range ids {
		g.Go(func() error {
			v, err := s.registry.VerifyCertificate(gctx, certID)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
