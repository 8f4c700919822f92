// Package eventlog is the ordered, hash-chained record of every registry mutation.
// Entries are appended inside the mutating transaction, so a committed mutation
// always has its events and a rolled-back one never does. The log doubles as the
// outbox drained by the publisher.
package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	"certledger/pkg/domain"
)

// Event is a state transition waiting to be appended.
type Event struct {
	Type        Type
	AggregateID string
	Payload     any
}

func NewCertificateIssued(p CertificateIssued) Event {
	return Event{Type: TypeCertificateIssued, AggregateID: "certificate:" + p.ID.String(), Payload: p}
}

func NewCertificateRevoked(p CertificateRevoked) Event {
	return Event{Type: TypeCertificateRevoked, AggregateID: "certificate:" + p.ID.String(), Payload: p}
}

func NewIssuerAdded(p IssuerAdded) Event {
	return Event{Type: TypeIssuerAdded, AggregateID: "issuer:" + p.Identity.String(), Payload: p}
}

func NewIssuerRemoved(p IssuerRemoved) Event {
	return Event{Type: TypeIssuerRemoved, AggregateID: "issuer:" + p.Identity.String(), Payload: p}
}

// Entry is a committed event log row.
type Entry struct {
	Seq         uint64          `json:"seq"`
	TxID        string          `json:"tx_id"`
	Type        Type            `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PrevHash    string          `json:"prev_hash"`
	Hash        string          `json:"hash"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

// Decode unmarshals the payload into the struct matching the entry type.
func (e *Entry) Decode() (any, error) {
	var target any
	switch e.Type {
	case TypeCertificateIssued:
		target = &CertificateIssued{}
	case TypeCertificateRevoked:
		target = &CertificateRevoked{}
	case TypeIssuerAdded:
		target = &IssuerAdded{}
	case TypeIssuerRemoved:
		target = &IssuerRemoved{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return target, nil
}

// Receipt is the confirmation of one committed mutation: its transaction id and
// the events it emitted, in order. A repeated idempotent issuer change commits
// with no events.
type Receipt struct {
	TxID   string  `json:"tx_id"`
	Events []Entry `json:"events"`
}

// CertificateID recovers the id assigned by an issuance from the receipt's
// CertificateIssued event. It is the authoritative way to learn a new id.
func (r *Receipt) CertificateID() (domain.CertificateID, bool) {
	if r == nil {
		return 0, false
	}
	for i := range r.Events {
		if r.Events[i].Type != TypeCertificateIssued {
			continue
		}
		decoded, err := r.Events[i].Decode()
		if err != nil {
			return 0, false
		}
		return decoded.(*CertificateIssued).ID, true
	}
	return 0, false
}
