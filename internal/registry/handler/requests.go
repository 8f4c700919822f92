package handler

import (
	"certledger/internal/issuance"
	"certledger/internal/metadata"
	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
	str "certledger/pkg/string"
	"certledger/pkg/validation"
)

// HTTP Request DTOs - contain JSON tags for API serialization.
// These are converted to issuance requests or registry calls before processing.

// IssueCertificateRequest issues against either content_hash or an inline
// metadata document. With metadata, holder and names may be omitted.
// Only the shape is checked here; missing or zero values reach the registry,
// which answers a stranger with Unauthorized before judging the arguments.
type IssueCertificateRequest struct {
	Holder      string             `json:"holder" validate:"omitempty,ledgeraddr"`
	SubjectName string             `json:"subject_name"`
	ProgramName string             `json:"program_name"`
	ContentHash string             `json:"content_hash"`
	Metadata    *metadata.Metadata `json:"metadata"`
}

func (r *IssueCertificateRequest) Normalize() {
	if r == nil {
		return
	}
	str.TrimStrings(&r.Holder, &r.SubjectName, &r.ProgramName, &r.ContentHash)
}

func (r *IssueCertificateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// toIssueRequest runs after Validate, so the holder either parses or is empty.
func (r *IssueCertificateRequest) toIssueRequest() (issuance.IssueRequest, error) {
	req := issuance.IssueRequest{
		SubjectName: r.SubjectName,
		ProgramName: r.ProgramName,
		ContentHash: domain.ContentHash(r.ContentHash),
		Metadata:    r.Metadata,
	}
	if r.Holder != "" {
		holder, err := domain.ParseAddress(r.Holder)
		if err != nil {
			return req, err
		}
		req.Holder = holder
	}
	return req, nil
}

// AddIssuerRequest carries the identity to authorize. An empty identity is the
// zero address, which the registry rejects once the caller is known to be the owner.
type AddIssuerRequest struct {
	Identity string `json:"identity" validate:"omitempty,ledgeraddr"`
}

func (r *AddIssuerRequest) Normalize() {
	if r == nil {
		return
	}
	str.TrimStrings(&r.Identity)
}

func (r *AddIssuerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *AddIssuerRequest) identity() (domain.Address, error) {
	if r.Identity == "" {
		return domain.ZeroAddress, nil
	}
	return domain.ParseAddress(r.Identity)
}
