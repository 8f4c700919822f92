// Package follow re-verifies the published event log on the consuming side.
package follow

import (
	"context"
	"encoding/json"
	"fmt"

	"certledger/internal/eventlog"
	"certledger/internal/platform/kafka/consumer"
)

// Follower decodes published entries and checks each one against the last
// verified entry. Publication is at-least-once, so an entry at or below the
// last verified sequence is a redelivery and is skipped.
type Follower struct {
	last    *eventlog.Entry
	onEntry func(*eventlog.Entry) error
	skipped int
}

// New returns a Follower that calls onEntry for every newly verified entry.
// Pass the last entry already trusted to resume mid-log; nil means the first
// entry received is trusted on its own hash.
func New(last *eventlog.Entry, onEntry func(*eventlog.Entry) error) *Follower {
	return &Follower{last: last, onEntry: onEntry}
}

func (f *Follower) Handle(_ context.Context, msg *consumer.Message) error {
	var entry eventlog.Entry
	if err := json.Unmarshal(msg.Value, &entry); err != nil {
		return fmt.Errorf("decode entry at offset %d: %w", msg.Offset, err)
	}
	return f.Accept(&entry)
}

// Accept verifies entry and advances the checkpoint.
func (f *Follower) Accept(entry *eventlog.Entry) error {
	if f.last != nil && entry.Seq <= f.last.Seq {
		f.skipped++
		return nil
	}
	if f.last == nil && entry.Seq > 1 {
		if eventlog.ComputeHash(entry) != entry.Hash {
			return &eventlog.ChainError{Seq: entry.Seq, Reason: "hash mismatch"}
		}
	} else if err := eventlog.Verify(f.last, []eventlog.Entry{*entry}); err != nil {
		return err
	}

	if f.onEntry != nil {
		if err := f.onEntry(entry); err != nil {
			return err
		}
	}
	verified := *entry
	f.last = &verified
	return nil
}

// Last is the most recent verified entry, or nil.
func (f *Follower) Last() *eventlog.Entry { return f.last }

// Skipped counts redeliveries dropped so far.
func (f *Follower) Skipped() int { return f.skipped }
