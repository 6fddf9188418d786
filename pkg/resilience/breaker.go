package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a call is rejected by an open breaker.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Operation is a unit of work guarded by a breaker or retried.
type Operation func(ctx context.Context) (interface{}, error)

// CircuitBreaker guards one provider or alert channel
type CircuitBreaker struct {
	kind       Kind
	dependency string
	cb         *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a breaker from settings, filling unset fields
// with defaults
func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	settings = settings.withDefaults()
	b := &CircuitBreaker{kind: settings.Kind, dependency: settings.Dependency}

	failureThreshold := settings.FailureThreshold
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.name(),
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Warn("dependency breaker state changed",
				zap.String("kind", string(b.kind)),
				zap.String("dependency", b.dependency),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			b.observeState(to, true)
		},
		// a caller giving up is not a fault of the dependency
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	b.observeState(gobreaker.StateClosed, false)
	return b
}

// Dependency returns the guarded provider or channel name
func (b *CircuitBreaker) Dependency() string {
	return b.dependency
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Execute runs op through the breaker. Calls rejected while the breaker is
// open or probing return an error wrapping ErrCircuitOpen.
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	switch {
	case err == nil:
		b.observeCall(OutcomeSuccess)
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.observeCall(OutcomeRejected)
		logger.WithContext(ctx).Warn("dependency unavailable, call rejected",
			zap.String("kind", string(b.kind)),
			zap.String("dependency", b.dependency),
		)
		return nil, fmt.Errorf("%s %s: %w", b.kind, b.dependency, ErrCircuitOpen)
	default:
		b.observeCall(OutcomeFailure)
		return nil, err
	}
}
