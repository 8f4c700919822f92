package eventlog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certledger/pkg/domain"
)

type ChainSuite struct {
	suite.Suite
	now    time.Time
	issuer domain.Address
	holder domain.Address
}

func TestChainSuite(t *testing.T) {
	suite.Run(t, new(ChainSuite))
}

func (s *ChainSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)
	s.issuer = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	s.holder = domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
}

func (s *ChainSuite) build(n int) []Entry {
	var (
		entries []Entry
		head    *Entry
	)
	for i := 0; i < n; i++ {
		e, err := Seal(head, "tx-1", NewIssuerAdded(IssuerAdded{Identity: s.issuer}), s.now)
		s.Require().NoError(err)
		entries = append(entries, e)
		head = &entries[len(entries)-1]
	}
	return entries
}

func (s *ChainSuite) TestSealLinksEntries() {
	entries := s.build(3)

	s.Equal(uint64(1), entries[0].Seq)
	s.Equal(GenesisHash, entries[0].PrevHash)
	s.Equal(entries[0].Hash, entries[1].PrevHash)
	s.Equal(entries[1].Hash, entries[2].PrevHash)
	s.Len(entries[2].Hash, 64)
	s.Equal(s.now.Truncate(time.Microsecond), entries[0].CreatedAt)
	s.NoError(Verify(nil, entries))
}

func (s *ChainSuite) TestVerifyFromCheckpoint() {
	entries := s.build(4)
	s.NoError(Verify(&entries[1], entries[2:]))
}

func (s *ChainSuite) TestVerifyDetectsTampering() {
	s.Run("payload rewritten", func() {
		entries := s.build(3)
		entries[1].Payload = []byte(`{"identity":"0x0000000000000000000000000000000000000001"}`)

		err := Verify(nil, entries)
		var chainErr *ChainError
		s.Require().True(errors.As(err, &chainErr))
		s.Equal(uint64(2), chainErr.Seq)
		s.Equal("hash mismatch", chainErr.Reason)
	})

	s.Run("entry dropped", func() {
		entries := s.build(3)
		err := Verify(nil, []Entry{entries[0], entries[2]})
		var chainErr *ChainError
		s.Require().True(errors.As(err, &chainErr))
		s.Equal(uint64(3), chainErr.Seq)
	})

	s.Run("entry resealed in isolation", func() {
		entries := s.build(3)
		entries[1].Payload = []byte(`{}`)
		entries[1].Hash = ComputeHash(&entries[1])

		err := Verify(nil, entries)
		var chainErr *ChainError
		s.Require().True(errors.As(err, &chainErr))
		s.Equal(uint64(3), chainErr.Seq)
		s.Equal("prev hash mismatch", chainErr.Reason)
	})
}

func (s *ChainSuite) TestSealRejectsUnknownType() {
	_, err := Seal(nil, "tx", Event{Type: "Minted", Payload: struct{}{}}, s.now)
	s.Error(err)
}

func (s *ChainSuite) TestPayloadContract() {
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e, err := Seal(nil, "tx", NewCertificateIssued(CertificateIssued{
		ID:          1,
		Holder:      s.holder,
		SubjectName: "Ada Lovelace",
		ProgramName: "Analytical Engines",
		ContentHash: "abc",
		IssuedAt:    issuedAt,
	}), s.now)
	s.Require().NoError(err)

	s.JSONEq(`{
		"id": 1,
		"holder": "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"subjectName": "Ada Lovelace",
		"programName": "Analytical Engines",
		"contentHash": "abc",
		"issuedAt": "2025-03-01T10:00:00Z"
	}`, string(e.Payload))
	s.Equal("certificate:1", e.AggregateID)

	revoked, err := Seal(&e, "tx2", NewCertificateRevoked(CertificateRevoked{ID: 1, RevokedBy: s.issuer}), s.now)
	s.Require().NoError(err)
	s.JSONEq(`{"id":1,"revokedBy":"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"}`, string(revoked.Payload))
}
