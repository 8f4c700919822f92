package handler

import (
	"certledger/internal/eventlog"
	"certledger/internal/registry/models"
	"certledger/pkg/domain"
)

// HTTP Response DTOs.

type IssueCertificateResponse struct {
	CertificateID domain.CertificateID `json:"certificate_id"`
	ContentHash   domain.ContentHash   `json:"content_hash"`
	TxID          string               `json:"tx_id"`
	Events        []eventlog.Entry     `json:"events"`
}

type CountResponse struct {
	Total uint64 `json:"total"`
}

type HolderCertificatesResponse struct {
	Holder         domain.Address         `json:"holder"`
	CertificateIDs []domain.CertificateID `json:"certificate_ids"`
	Certificates   []*models.Verification `json:"certificates,omitempty"`
}

type IssuersResponse struct {
	Owner   domain.Address   `json:"owner"`
	Issuers []*models.Issuer `json:"issuers"`
}

type EventsResponse struct {
	Events []eventlog.Entry `json:"events"`
	// NextAfter is the cursor for the following page; equal to the request's
	// after when the page is empty.
	NextAfter uint64 `json:"next_after"`
}

func toEventsResponse(entries []eventlog.Entry, after uint64) *EventsResponse {
	if entries == nil {
		entries = []eventlog.Entry{}
	}
	next := after
	if n := len(entries); n > 0 {
		next = entries[n-1].Seq
	}
	return &EventsResponse{Events: entries, NextAfter: next}
}

func toHolderResponse(holder domain.Address, ids []domain.CertificateID, detail []*models.Verification) *HolderCertificatesResponse {
	if ids == nil {
		ids = []domain.CertificateID{}
	}
	return &HolderCertificatesResponse{Holder: holder, CertificateIDs: ids, Certificates: detail}
}
