package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
		func(ctx context.Context) error {
			calls++
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientUntilBudget(t *testing.T) {
	calls := 0
	boom := NewTransientError(errors.New("503 from upstream"), 503)

	err := Do(context.Background(), RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
		func(ctx context.Context) error {
			calls++
			return boom
		})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond},
		func(ctx context.Context) error {
			calls++
			return errors.New("schema mismatch")
		})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_BackoffIncreases(t *testing.T) {
	var delays []time.Duration
	last := time.Now()
	calls := 0

	_, err := DoVal(context.Background(), RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 20 * time.Millisecond,
		Multiplier:     2,
		ShouldRetry:    func(error) bool { return true },
	}, func(ctx context.Context) (string, error) {
		now := time.Now()
		delays = append(delays, now.Sub(last))
		last = now
		calls++
		return "", errors.New("still down")
	})

	require.Error(t, err)
	require.Equal(t, 3, calls)
	// Second gap doubles the first (20ms then 40ms), within scheduling slop.
	assert.GreaterOrEqual(t, delays[1], 18*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 36*time.Millisecond)
	assert.Greater(t, delays[2], delays[1])
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := DoVal(ctx, RetryConfig{MaxAttempts: 10, InitialBackoff: time.Hour,
		ShouldRetry: func(error) bool { return true },
	}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.True(t, IsTransient(NewTransientError(errors.New("429"), 429)))
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	assert.True(t, IsTransient(errors.New("read: i/o timeout")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
