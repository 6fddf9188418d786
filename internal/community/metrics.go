package community

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_entity_checks_total",
			Help: "Entity checks by entity type and resulting risk level",
		},
		[]string{"entity_type", "risk_level"},
	)

	reportsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_reports_submitted_total",
			Help: "Adverse reports submitted by category",
		},
		[]string{"category"},
	)

	entitiesFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_entities_flagged_total",
			Help: "Entities moved into the flagged badge by a report",
		},
		[]string{"entity_type"},
	)
)
