package follow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certledger/internal/eventlog"
	"certledger/internal/platform/kafka/consumer"
	"certledger/pkg/testutil"
)

func sealed(t *testing.T, n int) []eventlog.Entry {
	t.Helper()
	var (
		out  []eventlog.Entry
		head *eventlog.Entry
	)
	for i := 0; i < n; i++ {
		e, err := eventlog.Seal(head, "tx", eventlog.NewIssuerAdded(eventlog.IssuerAdded{
			Identity: testutil.TestAddresses.IssuerA,
		}), testutil.FixedNow)
		require.NoError(t, err)
		out = append(out, e)
		head = &out[len(out)-1]
	}
	return out
}

func message(t *testing.T, e eventlog.Entry) *consumer.Message {
	t.Helper()
	value, err := json.Marshal(e)
	require.NoError(t, err)
	return &consumer.Message{Key: []byte(e.AggregateID), Value: value}
}

func TestFollowerVerifiesAndSkipsRedeliveries(t *testing.T) {
	entries := sealed(t, 3)
	var seen []uint64
	f := New(nil, func(e *eventlog.Entry) error {
		seen = append(seen, e.Seq)
		return nil
	})

	ctx := context.Background()
	for _, e := range []eventlog.Entry{entries[0], entries[1], entries[1], entries[0], entries[2]} {
		require.NoError(t, f.Handle(ctx, message(t, e)))
	}

	assert.Equal(t, []uint64{1, 2, 3}, seen)
	assert.Equal(t, 2, f.Skipped())
	assert.Equal(t, entries[2].Hash, f.Last().Hash)
}

func TestFollowerRejectsGapAndTampering(t *testing.T) {
	entries := sealed(t, 3)

	f := New(nil, nil)
	require.NoError(t, f.Accept(&entries[0]))
	var chainErr *eventlog.ChainError
	require.ErrorAs(t, f.Accept(&entries[2]), &chainErr)
	assert.Equal(t, uint64(3), chainErr.Seq)

	tampered := entries[1]
	tampered.TxID = "forged"
	require.ErrorAs(t, f.Accept(&tampered), &chainErr)
	assert.Equal(t, entries[0].Hash, f.Last().Hash, "checkpoint does not move on failure")
}

func TestFollowerResumesMidLog(t *testing.T) {
	entries := sealed(t, 4)

	f := New(nil, nil)
	require.NoError(t, f.Accept(&entries[2]), "first entry is trusted on its own hash")
	require.NoError(t, f.Accept(&entries[3]))

	forged := entries[1]
	forged.Seq = 9
	fresh := New(nil, nil)
	require.Error(t, fresh.Accept(&forged))
}

func TestFollowerPropagatesCallbackError(t *testing.T) {
	entries := sealed(t, 1)
	boom := errors.New("sink unavailable")
	f := New(nil, func(*eventlog.Entry) error { return boom })

	require.ErrorIs(t, f.Accept(&entries[0]), boom)
	assert.Nil(t, f.Last())
}

func TestFollowerRejectsUndecodableValue(t *testing.T) {
	f := New(nil, nil)
	err := f.Handle(context.Background(), &consumer.Message{Offset: 4, Value: []byte("{")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 4")
}
