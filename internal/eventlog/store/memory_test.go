package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certledger/internal/eventlog"
	"certledger/pkg/domain"
	"certledger/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) issuerEvent(hex string) eventlog.Event {
	return eventlog.NewIssuerAdded(eventlog.IssuerAdded{Identity: domain.MustParseAddress(hex)})
}

func (s *InMemoryStoreSuite) appendTx(txID string, n int) []eventlog.Entry {
	events := make([]eventlog.Event, n)
	for i := range events {
		events[i] = s.issuerEvent("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	}
	entries, err := s.store.Append(s.ctx, txID, events, s.now)
	s.Require().NoError(err)
	return entries
}

func (s *InMemoryStoreSuite) TestAppendAssignsDenseSequence() {
	first := s.appendTx("tx-1", 2)
	second := s.appendTx("tx-2", 1)

	s.Equal(uint64(1), first[0].Seq)
	s.Equal(uint64(2), first[1].Seq)
	s.Equal(uint64(3), second[0].Seq)
	s.Equal(first[1].Hash, second[0].PrevHash)

	all, err := s.store.ListAfter(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.NoError(eventlog.Verify(nil, all))
}

func (s *InMemoryStoreSuite) TestAppendIsAllOrNothing() {
	s.appendTx("tx-1", 1)

	_, err := s.store.Append(s.ctx, "tx-bad", []eventlog.Event{
		s.issuerEvent("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"),
		{Type: "Bogus", Payload: struct{}{}},
	}, s.now)
	s.Require().Error(err)

	head, err := s.store.Head(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), head.Seq)
}

func (s *InMemoryStoreSuite) TestListAfterAndByTx() {
	s.appendTx("tx-1", 2)
	s.appendTx("tx-2", 2)

	page, err := s.store.ListAfter(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(uint64(2), page[0].Seq)
	s.Equal(uint64(3), page[1].Seq)

	beyond, err := s.store.ListAfter(s.ctx, 10, 5)
	s.Require().NoError(err)
	s.Empty(beyond)

	byTx, err := s.store.ListByTx(s.ctx, "tx-2")
	s.Require().NoError(err)
	s.Len(byTx, 2)
	s.Equal(uint64(3), byTx[0].Seq)
}

func (s *InMemoryStoreSuite) TestHeadOnEmptyLog() {
	_, err := s.store.Head(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestPublishTracking() {
	s.appendTx("tx-1", 3)

	pending, err := s.store.FetchUnpublished(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(pending, 2)

	s.Require().NoError(s.store.MarkPublished(s.ctx, 1, s.now))
	count, err := s.store.CountUnpublished(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	pending, err = s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(uint64(2), pending[0].Seq)

	s.ErrorIs(s.store.MarkPublished(s.ctx, 99, s.now), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestReturnedEntriesAreCopies() {
	entries := s.appendTx("tx-1", 1)
	entries[0].Payload[0] = 'X'

	stored, err := s.store.ListAfter(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.NoError(eventlog.Verify(nil, stored))
}
