package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Call outcomes as counted by fraudshield_dependency_calls_total
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

var (
	dependencyBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fraudshield_dependency_breaker_state",
		Help: "Breaker state per guarded dependency (0 closed, 1 half-open, 2 open)",
	}, []string{"kind", "dependency"})

	dependencyCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudshield_dependency_calls_total",
		Help: "Calls to verification providers and alert channels through their breaker, by outcome",
	}, []string{"kind", "dependency", "outcome"})

	dependencyBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudshield_dependency_breaker_transitions_total",
		Help: "Breaker state transitions per guarded dependency",
	}, []string{"kind", "dependency", "to"})
)

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

func (b *CircuitBreaker) observeCall(outcome string) {
	dependencyCalls.WithLabelValues(string(b.kind), b.dependency, outcome).Inc()
}

func (b *CircuitBreaker) observeState(to gobreaker.State, transition bool) {
	dependencyBreakerState.WithLabelValues(string(b.kind), b.dependency).Set(stateValue(to))
	if transition {
		dependencyBreakerTrips.WithLabelValues(string(b.kind), b.dependency, to.String()).Inc()
	}
}
