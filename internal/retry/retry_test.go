package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy records requested delays instead of sleeping.
func testPolicy(maxAttempts int, base time.Duration, delays *[]time.Duration) Policy {
	p := NewPolicy(maxAttempts, base)
	p.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	calls := 0

	v, err := Do(context.Background(), testPolicy(4, time.Second, &delays),
		func(context.Context) (string, error) {
			calls++
			if calls <= 2 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	// Backoff doubles: 1s before attempt 1, 2s before attempt 2.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	calls := 0
	wantErr := errors.New("still down")

	_, err := Do(context.Background(), testPolicy(3, 100*time.Millisecond, &delays),
		func(context.Context) (int, error) {
			calls++
			return 0, wantErr
		})

	// The original failure comes back unchanged after exactly MaxAttempts calls.
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestDo_NoRetryOnSuccess(t *testing.T) {
	var delays []time.Duration
	calls := 0

	v, err := Do(context.Background(), testPolicy(5, time.Second, &delays),
		func(context.Context) (int, error) {
			calls++
			return 42, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPolicy(3, time.Minute)
	calls := 0
	_, err := Do(ctx, p, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewPolicy_MinimumOneAttempt(t *testing.T) {
	p := NewPolicy(0, time.Second)
	assert.Equal(t, 1, p.MaxAttempts)
}
