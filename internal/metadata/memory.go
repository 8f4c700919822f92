package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
)

// hashPrefix marks hashes minted locally so they cannot be mistaken for IPFS CIDs.
const hashPrefix = "sha256-"

// MemoryStore keeps documents in process, addressed by the SHA-256 of their
// canonical encoding.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[domain.ContentHash][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[domain.ContentHash][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, m *Metadata) (domain.ContentHash, error) {
	body, err := Canonical(m)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	hash := domain.ContentHash(hashPrefix + hex.EncodeToString(sum[:]))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[hash]; !ok {
		s.blobs[hash] = body
	}
	return hash, nil
}

func (s *MemoryStore) Get(_ context.Context, hash domain.ContentHash) (*Metadata, error) {
	s.mu.RLock()
	body, ok := s.blobs[hash]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(hash)
	}
	var m Metadata
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored metadata is corrupt")
	}
	return &m, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
