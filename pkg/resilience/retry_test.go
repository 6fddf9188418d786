package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errProviderDown  = errors.New("provider unavailable")
	errBadCredential = errors.New("invalid api key")
)

func fastRetry(attempts int) RetryConfig {
	config := DefaultRetryConfig()
	config.MaxAttempts = attempts
	config.InitialBackoff = time.Millisecond
	config.MaxBackoff = 5 * time.Millisecond
	return config
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	result, err := Retry(context.Background(), fastRetry(3), func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errProviderDown
		}
		return "verified", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "verified", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	attempts := 0
	result, err := Retry(context.Background(), fastRetry(3), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errProviderDown
	})

	assert.Nil(t, result)
	assert.Equal(t, errProviderDown, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ZeroMaxAttemptsStillRunsOnce(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastRetry(0), func(ctx context.Context) (interface{}, error) {
		attempts++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_NonRetryableErrors(t *testing.T) {
	tests := []struct {
		name   string
		config func() RetryConfig
		err    error
	}{
		{"circuit open", func() RetryConfig { return fastRetry(3) }, ErrCircuitOpen},
		{"context canceled", func() RetryConfig { return fastRetry(3) }, context.Canceled},
		{"not in allow list", func() RetryConfig {
			c := fastRetry(3)
			c.RetryableErrors = []error{errProviderDown}
			return c
		}, errBadCredential},
		{"rejected by checker", func() RetryConfig {
			c := fastRetry(3)
			c.RetryableChecker = func(err error) bool { return !errors.Is(err, errBadCredential) }
			return c
		}, errBadCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			_, err := Retry(context.Background(), tt.config(), func(ctx context.Context) (interface{}, error) {
				attempts++
				return nil, tt.err
			})

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, attempts)
		})
	}
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	config := DefaultRetryConfig()
	config.MaxAttempts = 5
	config.InitialBackoff = 100 * time.Millisecond
	config.EnableJitter = false

	attempts := 0
	_, err := Retry(ctx, config, func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errProviderDown
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestCalculateBackoff(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, 1*time.Second, calculateBackoff(1, config))
	assert.Equal(t, 4*time.Second, calculateBackoff(3, config))
	assert.Equal(t, 16*time.Second, calculateBackoff(5, config))
	assert.Equal(t, 30*time.Second, calculateBackoff(6, config))

	config.EnableJitter = true
	for i := 0; i < 20; i++ {
		d := calculateBackoff(3, config)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestAddJitter_Zero(t *testing.T) {
	assert.Equal(t, time.Duration(0), addJitter(0))
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()
	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, time.Second, config.InitialBackoff)
	assert.True(t, config.EnableJitter)
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for status, want := range map[int]bool{
		200: false, 400: false, 401: false, 404: false,
		408: true, 429: true, 500: true, 503: true,
	} {
		assert.Equal(t, want, IsRetryableHTTPStatus(status), "status %d", status)
	}
}
