package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewCircuitBreaker(For(KindPayment, "stitch-open", Tuning{OpenSeconds: 60, FailureThreshold: 2}))

	failing := func(ctx context.Context) (interface{}, error) { return nil, errProviderDown }

	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(context.Background(), failing)
		assert.ErrorIs(t, err, errProviderDown)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	called := false
	_, err := breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Contains(t, err.Error(), "payment stitch-open")
	assert.False(t, called)
}

func TestCircuitBreaker_CanceledCallsDoNotTrip(t *testing.T) {
	breaker := NewCircuitBreaker(For(KindPayment, "ozow-cancel", Tuning{FailureThreshold: 1}))

	_, err := breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestCircuitBreaker_MetricsLabelledByDependency(t *testing.T) {
	breaker := NewCircuitBreaker(For(KindAlert, "twilio-metrics", Tuning{FailureThreshold: 1}))
	calls := func(outcome string) float64 {
		return testutil.ToFloat64(dependencyCalls.WithLabelValues("alert", "twilio-metrics", outcome))
	}
	state := func() float64 {
		return testutil.ToFloat64(dependencyBreakerState.WithLabelValues("alert", "twilio-metrics"))
	}
	assert.Equal(t, float64(0), state())

	_, err := breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "sent", nil
	})
	require.NoError(t, err)
	_, _ = breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errProviderDown
	})
	_, _ = breaker.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "sent", nil
	})

	assert.Equal(t, float64(1), calls(OutcomeSuccess))
	assert.Equal(t, float64(1), calls(OutcomeFailure))
	assert.Equal(t, float64(1), calls(OutcomeRejected))
	assert.Equal(t, float64(2), state())
	assert.Equal(t, float64(1), testutil.ToFloat64(dependencyBreakerTrips.WithLabelValues("alert", "twilio-metrics", "open")))
}

func TestRetryWithBreaker(t *testing.T) {
	breaker := NewCircuitBreaker(For(KindPayment, "payshap-retry", Tuning{OpenSeconds: 1}))

	attempts := 0
	result, err := RetryWithBreaker(context.Background(), fastRetry(3), breaker, func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, errProviderDown
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBreaker_StopsOnceOpen(t *testing.T) {
	breaker := NewCircuitBreaker(For(KindLookup, "cipc-retry", Tuning{FailureThreshold: 2}))

	attempts := 0
	_, err := RetryWithBreaker(context.Background(), fastRetry(5), breaker, func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errProviderDown
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, attempts)
}

func TestFor_Defaults(t *testing.T) {
	s := For(KindLookup, "cipc", Tuning{})

	assert.Equal(t, KindLookup, s.Kind)
	assert.Equal(t, "cipc", s.Dependency)
	assert.Equal(t, time.Minute, s.Interval)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, uint32(5), s.FailureThreshold)
	assert.Equal(t, uint32(1), s.SuccessThreshold)
	assert.Equal(t, "lookup/cipc", s.name())

	tuned := For(KindAlert, "twilio", Tuning{OpenSeconds: 90, FailureThreshold: 2})
	assert.Equal(t, 90*time.Second, tuned.Timeout)
	assert.Equal(t, uint32(2), tuned.FailureThreshold)
}
