package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	dErrors "certledger/pkg/domain-errors"
	"certledger/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent registry operations.
type ConcurrentResult struct {
	Successes      int32
	Errors         int32
	Duplicates     int32
	AlreadyRevoked int32
	NotFounds      int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Duplicates + r.AlreadyRevoked + r.NotFounds
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes by
// registry error code (or the equivalent store sentinel).
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, duplicates, revoked, notFounds atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeDuplicateContent), errors.Is(err, sentinel.ErrAlreadyUsed):
				duplicates.Add(1)
			case dErrors.HasCode(err, dErrors.CodeAlreadyRevoked):
				revoked.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound), errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes:      successes.Load(),
		Errors:         errs.Load(),
		Duplicates:     duplicates.Load(),
		AlreadyRevoked: revoked.Load(),
		NotFounds:      notFounds.Load(),
	}
}

// RunConcurrentCtx executes fn in parallel goroutines with context support.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}
