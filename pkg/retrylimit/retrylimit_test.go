package retrylimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct {
	code int
}

func (e *statusErr) Error() string   { return http.StatusText(e.code) }
func (e *statusErr) StatusCode() int { return e.code }

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, fastRetryConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	base := errors.New("always failing")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return base
	}, nil, fastRetryConfig(3))

	require.ErrorIs(t, err, base)
	assert.Equal(t, 3, calls)
}

func TestClientErrorStopsRetries(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &statusErr{code: http.StatusForbidden}
	}, nil, fastRetryConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestTooManyRequestsIsRetried(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 2 {
			return &statusErr{code: http.StatusTooManyRequests}
		}
		return nil
	}, nil, fastRetryConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFatalErrorStopsRetries(t *testing.T) {
	calls := 0
	inner := errors.New("bad credentials")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: inner}
	}, nil, fastRetryConfig(5))

	require.ErrorIs(t, err, inner)
	assert.Equal(t, 1, calls)
}

func TestContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetryConfig(ctx, func() error {
		return errors.New("should not matter")
	}, nil, fastRetryConfig(5))

	require.ErrorIs(t, err, context.Canceled)
}

func TestLimiterBacksOffOnServerErrors(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 20, 1, 0.5)

	_ = WithRetryConfig(context.Background(), func() error {
		return &statusErr{code: http.StatusBadGateway}
	}, lim, fastRetryConfig(2))

	assert.Equal(t, 2.0, lim.CurrentLimit(), "limit halves on each pushback")
}

func TestLimiterSpeedsUpOnSuccess(t *testing.T) {
	lim := NewAdaptiveLimiter(5, 1, 20, 1, 0.5)

	lim.Success()
	assert.Equal(t, 6.0, lim.CurrentLimit())

	// Bounded by max.
	for i := 0; i < 30; i++ {
		lim.Success()
	}
	assert.Equal(t, 20.0, lim.CurrentLimit())
}

func TestLimiterRespectsMin(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 20, 1, 0.5)

	for i := 0; i < 5; i++ {
		lim.RateLimited()
	}
	assert.Equal(t, 1.0, lim.CurrentLimit())
}

func TestLimiterNoSpeedUpRightAfterError(t *testing.T) {
	lim := NewAdaptiveLimiter(5, 1, 20, 1, 0.5)

	lim.RateLimited()
	limit := lim.CurrentLimit()
	lim.Success()
	assert.Equal(t, limit, lim.CurrentLimit(), "recent pushback freezes speed-up")
}
