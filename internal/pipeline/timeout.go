package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

// RunWithTimeout bounds the caller's wait on an untrusted call. The function
// runs in its own goroutine; if it misses the deadline the caller gets
// domain.ErrOCRTimeout and the goroutine is abandoned, not cancelled. ML
// backends may be uninterruptible, so the abandoned call can still finish
// invisibly. Its result channel is buffered so it never leaks blocked.
func RunWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	results := make(chan outcome, 1)

	go func() {
		value, err := fn(ctx)
		results <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T

	select {
	case r := <-results:
		return r.value, r.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", domain.ErrOCRTimeout, timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
