package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var alertDeliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fraudshield_alert_deliveries_total",
		Help: "Alert delivery attempts by channel and status",
	},
	[]string{"channel", "status"},
)
