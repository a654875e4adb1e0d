package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("overloaded_error"), 529)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	wantErr := errors.New("invalid request")
	err := Do(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		return NewTransientError(errors.New("rate_limit_error"), http.StatusTooManyRequests)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetry(5), func(context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("i/o timeout"), 0)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ShouldRetryOverride(t *testing.T) {
	cfg := fastRetry(3)
	cfg.ShouldRetry = func(error) bool { return true }

	calls := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return errors.New("not normally transient")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("invalid x-api-key")))
	assert.True(t, IsTransient(NewTransientError(errors.New("boom"), 503)))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))

	// Transient marker survives wrapping.
	wrapped := errors.Join(errors.New("outer"), NewTransientError(errors.New("inner"), 500))
	assert.True(t, IsTransient(wrapped))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}

func TestComputeBackoff_Bounds(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     10.0,
		JitterFraction: 0.25,
	})

	for attempt := 0; attempt < 5; attempt++ {
		d := computeBackoff(attempt, cfg)
		assert.LessOrEqual(t, d, time.Duration(float64(cfg.MaxBackoff)*1.25))
		assert.Positive(t, d)
	}
}
