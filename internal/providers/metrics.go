package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_payment_verifications_total",
			Help: "Payment verification attempts by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	companyLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudshield_company_lookups_total",
			Help: "Company registry, WHOIS and fraud database lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)
)
