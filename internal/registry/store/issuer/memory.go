// Package issuer persists the registry owner and the issuer set.
package issuer

import (
	"context"
	"sort"
	"sync"

	"certledger/internal/registry/models"
	"certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	owner   *domain.Address
	issuers map[domain.Address]*models.Issuer
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{issuers: make(map[domain.Address]*models.Issuer)}
}

// Owner returns sentinel.ErrNotFound until SetOwner has run.
func (s *InMemoryStore) Owner(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.owner == nil {
		return domain.ZeroAddress, sentinel.ErrNotFound
	}
	return *s.owner, nil
}

// SetOwner records the owner once; a second call fails with sentinel.ErrAlreadyUsed.
func (s *InMemoryStore) SetOwner(_ context.Context, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != nil {
		return sentinel.ErrAlreadyUsed
	}
	s.owner = &owner
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, addr domain.Address) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.issuers[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *stored
	return &out, nil
}

// Save upserts the issuer row. Rows are kept after deauthorization.
func (s *InMemoryStore) Save(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *issuer
	s.issuers[issuer.Address] = &stored
	return nil
}

// ListAuthorized returns currently authorized issuers ordered by address.
func (s *InMemoryStore) ListAuthorized(_ context.Context) ([]*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Issuer, 0, len(s.issuers))
	for _, stored := range s.issuers {
		if !stored.Authorized {
			continue
		}
		issuer := *stored
		out = append(out, &issuer)
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Address[:]) < string(out[j].Address[:])
	})
	return out, nil
}
