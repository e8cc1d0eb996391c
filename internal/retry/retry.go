// Package retry provides an exponential-backoff executor for remote calls.
package retry

import (
	"context"
	"time"
)

// Policy controls retry behavior. Delay before retrying attempt n
// (0-indexed) is BaseDelay * 2^n.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// sleep is replaced in tests to make delays observable.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy creates a retry policy. maxAttempts < 1 is treated as 1.
func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, sleep: sleepCtx}
}

// Do executes op, retrying failures up to MaxAttempts total invocations.
// The final failure is returned unchanged; no error translation happens here.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if p.sleep == nil {
		p.sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}
		if err := p.sleep(ctx, p.BaseDelay<<attempt); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
