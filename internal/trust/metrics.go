package trust

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var badgeTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fraudshield_trust_badge_transitions_total",
		Help: "Trust record badge changes",
	},
	[]string{"from", "to"},
)
