package eventlog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// GenesisHash is the PrevHash of the first entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Seal builds the next entry after head (nil for an empty log). Payload is
// marshaled once here; the hash covers the exact bytes that get stored.
func Seal(head *Entry, txID string, ev Event, now time.Time) (Entry, error) {
	if !ev.Type.IsValid() {
		return Entry{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal %s payload: %w", ev.Type, err)
	}

	entry := Entry{
		Seq:         1,
		TxID:        txID,
		Type:        ev.Type,
		AggregateID: ev.AggregateID,
		Payload:     payload,
		CreatedAt:   now.UTC().Truncate(time.Microsecond),
		PrevHash:    GenesisHash,
	}
	if head != nil {
		entry.Seq = head.Seq + 1
		entry.PrevHash = head.Hash
	}
	entry.Hash = ComputeHash(&entry)
	return entry, nil
}

// ComputeHash returns SHA-256 over the entry's chained fields. CreatedAt is
// truncated to microseconds so the hash survives a round trip through Postgres.
func ComputeHash(e *Entry) string {
	h := sha256.New()
	for _, part := range []string{
		e.PrevHash,
		strconv.FormatUint(e.Seq, 10),
		e.TxID,
		string(e.Type),
		e.AggregateID,
		string(e.Payload),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ChainError reports the first entry whose linkage or hash does not verify.
type ChainError struct {
	Seq    uint64
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("event chain broken at seq %d: %s", e.Seq, e.Reason)
}

// Verify walks entries in order starting after prev (nil means from genesis).
func Verify(prev *Entry, entries []Entry) error {
	prevHash, prevSeq := GenesisHash, uint64(0)
	if prev != nil {
		prevHash, prevSeq = prev.Hash, prev.Seq
	}
	for i := range entries {
		e := &entries[i]
		if e.Seq != prevSeq+1 {
			return &ChainError{Seq: e.Seq, Reason: fmt.Sprintf("expected seq %d", prevSeq+1)}
		}
		if e.PrevHash != prevHash {
			return &ChainError{Seq: e.Seq, Reason: "prev hash mismatch"}
		}
		if ComputeHash(e) != e.Hash {
			return &ChainError{Seq: e.Seq, Reason: "hash mismatch"}
		}
		prevHash, prevSeq = e.Hash, e.Seq
	}
	return nil
}
