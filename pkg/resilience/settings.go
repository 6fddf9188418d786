package resilience

import "time"

// Kind groups breakers by the sort of dependency they guard
type Kind string

const (
	KindPayment Kind = "payment" // payment verification providers
	KindLookup  Kind = "lookup"  // company registry, WHOIS and fraud database lookups
	KindAlert   Kind = "alert"   // alert delivery channels
)

const (
	defaultInterval         = time.Minute
	defaultOpenTimeout      = 30 * time.Second
	defaultFailureThreshold = 5
)

// Settings tunes a circuit breaker
type Settings struct {
	Kind Kind
	// Dependency names the provider or channel behind the breaker.
	Dependency string
	// Interval is the cyclic period of the closed state after which counts reset.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// SuccessThreshold is the number of requests allowed through while half-open.
	SuccessThreshold uint32
}

// Tuning holds the breaker knobs read from configuration. Zero values keep
// the defaults.
type Tuning struct {
	OpenSeconds      int
	FailureThreshold int
}

// For returns settings for a breaker of kind guarding dependency
func For(kind Kind, dependency string, t Tuning) Settings {
	s := Settings{Kind: kind, Dependency: dependency}
	if t.OpenSeconds > 0 {
		s.Timeout = time.Duration(t.OpenSeconds) * time.Second
	}
	if t.FailureThreshold > 0 {
		s.FailureThreshold = uint32(t.FailureThreshold)
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Kind == "" {
		s.Kind = KindLookup
	}
	if s.Dependency == "" {
		s.Dependency = "unknown"
	}
	if s.Interval <= 0 {
		s.Interval = defaultInterval
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultOpenTimeout
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = defaultFailureThreshold
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	return s
}

// name is the breaker name used in logs
func (s Settings) name() string {
	return string(s.Kind) + "/" + s.Dependency
}
