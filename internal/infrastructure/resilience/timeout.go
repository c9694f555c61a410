package resilience

import (
	"context"
	"errors"
	"time"
)

// Operation is a unit of work executed under retry protection. The context
// carries the per-attempt deadline; operations that honor it stop early
// instead of running on as abandoned work.
type Operation func(ctx context.Context) (interface{}, error)

type outcome struct {
	value interface{}
	err   error
}

// runWithTimeout races op against a deadline. If the deadline fires first
// the attempt fails with ErrTimeout and the loser's eventual result is
// discarded; the derived context is cancelled so cooperative operations can
// abandon in-flight work. Parent cancellation is reported as the parent's
// error, not as a timeout.
func runWithTimeout(ctx context.Context, timeout time.Duration, op Operation) (interface{}, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so the loser can settle without a receiver
	done := make(chan outcome, 1)
	go func() {
		value, err := op(attemptCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		// Operations that surface the attempt deadline themselves still
		// count as timeouts
		if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrTimeout
		}
		return out.value, out.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTimeout
	}
}
