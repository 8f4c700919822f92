// Package handler exposes the registry over HTTP. Reads are public; writes run
// behind the caller middleware and act as the identity it resolved.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"certledger/internal/eventlog"
	"certledger/internal/issuance"
	"certledger/internal/metadata"
	"certledger/internal/registry/models"
	"certledger/internal/registry/service"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/httputil"
	"certledger/pkg/requestcontext"
)

// Registry defines the registry operations the handler serves.
// Returns domain objects, not HTTP response DTOs.
type Registry interface {
	RevokeCertificate(ctx context.Context, caller domain.Address, certID domain.CertificateID) (*eventlog.Receipt, error)
	AddIssuer(ctx context.Context, caller, identity domain.Address) (*eventlog.Receipt, error)
	RemoveIssuer(ctx context.Context, caller, identity domain.Address) (*eventlog.Receipt, error)
	GetCertificate(ctx context.Context, certID domain.CertificateID) (*models.Certificate, error)
	VerifyCertificate(ctx context.Context, certID domain.CertificateID) (*models.Verification, error)
	VerifyByHash(ctx context.Context, hash domain.ContentHash) (*models.HashVerification, error)
	GetStudentCertificates(ctx context.Context, holder domain.Address) ([]domain.CertificateID, error)
	GetTotalCertificates(ctx context.Context) (uint64, error)
	Authorization(ctx context.Context, identity domain.Address) (*models.Authorization, error)
	ListIssuers(ctx context.Context) ([]*models.Issuer, error)
	Owner(ctx context.Context) (domain.Address, error)
	Receipt(ctx context.Context, txID string) (*eventlog.Receipt, error)
	Events(ctx context.Context, afterSeq uint64, limit int) ([]eventlog.Entry, error)
	VerifyEventChain(ctx context.Context) (*service.ChainReport, error)
}

// Issuance covers the operations that touch the metadata store.
type Issuance interface {
	Issue(ctx context.Context, caller domain.Address, req issuance.IssueRequest) (*issuance.Issued, error)
	Describe(ctx context.Context, certID domain.CertificateID) (*issuance.Description, error)
	Metadata(ctx context.Context, certID domain.CertificateID) (*metadata.Metadata, error)
	HolderPortfolio(ctx context.Context, holder domain.Address) ([]*models.Verification, error)
}

type Handler struct {
	registry Registry
	issuance Issuance
	logger   *slog.Logger
}

func New(registry Registry, issuance Issuance, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, issuance: issuance, logger: logger}
}

// Register mounts the public reads on r and the writes behind requireCaller.
func (h *Handler) Register(r chi.Router, requireCaller func(http.Handler) http.Handler) {
	r.Get("/certificates/count", h.HandleCount)
	r.Get("/certificates/{id}", h.HandleGetCertificate)
	r.Get("/certificates/{id}/verify", h.HandleVerifyCertificate)
	r.Get("/certificates/{id}/metadata", h.HandleGetMetadata)
	r.Get("/verify", h.HandleVerifyByHash)
	r.Get("/holders/{address}/certificates", h.HandleHolderCertificates)
	r.Get("/issuers", h.HandleListIssuers)
	r.Get("/issuers/{address}", h.HandleGetIssuer)
	r.Get("/events", h.HandleListEvents)
	r.Get("/events/integrity", h.HandleVerifyEvents)
	r.Get("/transactions/{tx_id}", h.HandleGetTransaction)

	r.Group(func(r chi.Router) {
		r.Use(requireCaller)
		r.Post("/certificates", h.HandleIssueCertificate)
		r.Post("/certificates/{id}/revoke", h.HandleRevokeCertificate)
		r.Post("/issuers", h.HandleAddIssuer)
		r.Delete("/issuers/{address}", h.HandleRemoveIssuer)
	})
}

// HandleIssueCertificate issues a credential as the caller, pinning inline
// metadata first when the request carries it.
func (h *Handler) HandleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueCertificateRequest](w, r, h.logger)
	if !ok {
		return
	}
	issueReq, err := req.toIssueRequest()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issued, err := h.issuance.Issue(ctx, caller, issueReq)
	if err != nil {
		h.logger.WarnContext(ctx, "issue certificate failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &IssueCertificateResponse{
		CertificateID: issued.CertificateID,
		ContentHash:   issued.ContentHash,
		TxID:          issued.Receipt.TxID,
		Events:        issued.Receipt.Events,
	})
}

func (h *Handler) HandleRevokeCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.registry.RevokeCertificate(ctx, caller, certID)
	if err != nil {
		h.logger.WarnContext(ctx, "revoke certificate failed",
			"error", err,
			"request_id", requestID,
			"certificate_id", certID.String(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddIssuerRequest](w, r, h.logger)
	if !ok {
		return
	}
	identity, err := req.identity()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.registry.AddIssuer(ctx, caller, identity)
	if err != nil {
		h.logger.WarnContext(ctx, "add issuer failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, err := httputil.RequireCaller(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	identity, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.registry.RemoveIssuer(ctx, caller, identity)
	if err != nil {
		h.logger.WarnContext(ctx, "remove issuer failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.registry.GetCertificate(ctx, certID)
	if err != nil {
		h.readFailed(ctx, "get certificate failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cert)
}

// HandleVerifyCertificate answers the public verification question. With
// ?include=metadata the answer also carries the pinned document, degraded to a
// status when the metadata store cannot serve it.
func (h *Handler) HandleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if r.URL.Query().Get("include") == "metadata" {
		desc, err := h.issuance.Describe(ctx, certID)
		if err != nil {
			h.readFailed(ctx, "describe certificate failed", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, desc)
		return
	}

	v, err := h.registry.VerifyCertificate(ctx, certID)
	if err != nil {
		h.readFailed(ctx, "verify certificate failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) HandleGetMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID, err := domain.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.issuance.Metadata(ctx, certID)
	if err != nil {
		h.readFailed(ctx, "get metadata failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.registry.GetTotalCertificates(ctx)
	if err != nil {
		h.readFailed(ctx, "count certificates failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CountResponse{Total: total})
}

func (h *Handler) HandleVerifyByHash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash, err := domain.ParseContentHash(r.URL.Query().Get("content_hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.registry.VerifyByHash(ctx, hash)
	if err != nil {
		h.readFailed(ctx, "verify by hash failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, v)
}

// HandleHolderCertificates lists a holder's certificate ids in issuance order.
// ?detail=true adds the verification of each one.
func (h *Handler) HandleHolderCertificates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holder, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if r.URL.Query().Get("detail") == "true" {
		detail, err := h.issuance.HolderPortfolio(ctx, holder)
		if err != nil {
			h.readFailed(ctx, "holder portfolio failed", err)
			httputil.WriteError(w, err)
			return
		}
		ids := make([]domain.CertificateID, len(detail))
		for i, v := range detail {
			ids[i] = v.ID
		}
		httputil.WriteJSON(w, http.StatusOK, toHolderResponse(holder, ids, detail))
		return
	}

	ids, err := h.registry.GetStudentCertificates(ctx, holder)
	if err != nil {
		h.readFailed(ctx, "list holder certificates failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toHolderResponse(holder, ids, nil))
}

func (h *Handler) HandleListIssuers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := h.registry.Owner(ctx)
	if err != nil {
		h.readFailed(ctx, "load owner failed", err)
		httputil.WriteError(w, err)
		return
	}
	issuers, err := h.registry.ListIssuers(ctx)
	if err != nil {
		h.readFailed(ctx, "list issuers failed", err)
		httputil.WriteError(w, err)
		return
	}
	if issuers == nil {
		issuers = []*models.Issuer{}
	}
	httputil.WriteJSON(w, http.StatusOK, &IssuersResponse{Owner: owner, Issuers: issuers})
}

func (h *Handler) HandleGetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	auth, err := h.registry.Authorization(ctx, identity)
	if err != nil {
		h.readFailed(ctx, "get issuer failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auth)
}

func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	after, err := parseUintParam(r, "after")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseUintParam(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.registry.Events(ctx, after, int(min(limit, 1<<20)))
	if err != nil {
		h.readFailed(ctx, "list events failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventsResponse(entries, after))
}

func (h *Handler) HandleVerifyEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.registry.VerifyEventChain(ctx)
	if err != nil {
		h.readFailed(ctx, "verify event chain failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receipt, err := h.registry.Receipt(ctx, chi.URLParam(r, "tx_id"))
	if err != nil {
		h.readFailed(ctx, "get transaction failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// readFailed logs read errors that are not plain client mistakes.
func (h *Handler) readFailed(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		return
	}
	h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}

func parseUintParam(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+name+" parameter")
	}
	return v, nil
}
