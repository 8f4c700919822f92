// Package certificate stores credential records with their content-hash and holder
// indices. All three structures change together under one lock.
package certificate

import (
	"context"
	"sync"

	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a slice indexed by id-1, which makes the dense id
// sequence structural rather than something to check.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  []*models.Certificate
	byHash   map[domain.ContentHash]domain.CertificateID
	byHolder map[domain.Address][]domain.CertificateID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byHash:   make(map[domain.ContentHash]domain.CertificateID),
		byHolder: make(map[domain.Address][]domain.CertificateID),
	}
}

func (s *InMemoryStore) NextID(_ context.Context) (domain.CertificateID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CertificateID(len(s.records) + 1), nil
}

// Create inserts a new record. The id must be the next in sequence and the content
// hash must be unused (sentinel.ErrAlreadyUsed).
func (s *InMemoryStore) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(cert.ID) != uint64(len(s.records))+1 {
		return sentinel.ErrInvalidState
	}
	if _, taken := s.byHash[cert.ContentHash]; taken {
		return sentinel.ErrAlreadyUsed
	}
	stored := *cert
	s.records = append(s.records, &stored)
	s.byHash[cert.ContentHash] = cert.ID
	s.byHolder[cert.Holder] = append(s.byHolder[cert.Holder], cert.ID)
	return nil
}

// UpdateStatus persists the revocation fields; the rest of a record is immutable.
func (s *InMemoryStore) UpdateStatus(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.lookup(cert.ID)
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.Status = cert.Status
	stored.RevokedAt = cert.RevokedAt
	stored.RevokedBy = cert.RevokedBy
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, certID domain.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.lookup(certID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (s *InMemoryStore) FindIDByContentHash(_ context.Context, hash domain.ContentHash) (domain.CertificateID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certID, ok := s.byHash[hash]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return certID, nil
}

// ListIDsByHolder returns ids in issuance order, empty (not nil) for unknown holders.
func (s *InMemoryStore) ListIDsByHolder(_ context.Context, holder domain.Address) ([]domain.CertificateID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byHolder[holder]
	out := make([]domain.CertificateID, len(ids))
	copy(out, ids)
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

func (s *InMemoryStore) lookup(certID domain.CertificateID) (*models.Certificate, bool) {
	if certID.IsNil() || uint64(certID) > uint64(len(s.records)) {
		return nil, false
	}
	return s.records[certID-1], true
}
