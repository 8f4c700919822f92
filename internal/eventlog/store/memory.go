package store

import (
	"context"
	"sync"
	"time"

	"certledger/internal/eventlog"
	"certledger/pkg/platform/sentinel"
)

// InMemoryStore keeps the event log in a slice; the index of an entry is Seq-1.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []eventlog.Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, txID string, events []eventlog.Event, now time.Time) ([]eventlog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var head *eventlog.Entry
	if n := len(s.entries); n > 0 {
		head = &s.entries[n-1]
	}
	sealed := make([]eventlog.Entry, 0, len(events))
	for _, ev := range events {
		entry, err := eventlog.Seal(head, txID, ev, now)
		if err != nil {
			return nil, err
		}
		sealed = append(sealed, entry)
		head = &sealed[len(sealed)-1]
	}
	// Nothing is stored unless every event sealed.
	s.entries = append(s.entries, sealed...)
	return cloneEntries(sealed), nil
}

func (s *InMemoryStore) ListAfter(_ context.Context, afterSeq uint64, limit int) ([]eventlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if afterSeq >= uint64(len(s.entries)) {
		return []eventlog.Entry{}, nil
	}
	window := s.entries[afterSeq:]
	if limit > 0 && len(window) > limit {
		window = window[:limit]
	}
	return cloneEntries(window), nil
}

func (s *InMemoryStore) ListByTx(_ context.Context, txID string) ([]eventlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []eventlog.Entry
	for i := range s.entries {
		if s.entries[i].TxID == txID {
			out = append(out, s.entries[i])
		}
	}
	return cloneEntries(out), nil
}

func (s *InMemoryStore) Head(_ context.Context) (*eventlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, sentinel.ErrNotFound
	}
	head := cloneEntries(s.entries[len(s.entries)-1:])[0]
	return &head, nil
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]eventlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []eventlog.Entry
	for i := range s.entries {
		if s.entries[i].PublishedAt != nil {
			continue
		}
		out = append(out, s.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return cloneEntries(out), nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, seq uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq == 0 || seq > uint64(len(s.entries)) {
		return sentinel.ErrNotFound
	}
	t := at
	s.entries[seq-1].PublishedAt = &t
	return nil
}

func (s *InMemoryStore) CountUnpublished(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := range s.entries {
		if s.entries[i].PublishedAt == nil {
			count++
		}
	}
	return count, nil
}

func cloneEntries(in []eventlog.Entry) []eventlog.Entry {
	out := make([]eventlog.Entry, len(in))
	for i, e := range in {
		e.Payload = append([]byte(nil), e.Payload...)
		if e.PublishedAt != nil {
			t := *e.PublishedAt
			e.PublishedAt = &t
		}
		out[i] = e
	}
	return out
}
