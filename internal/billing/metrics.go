package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/study-on/billing/internal/pkg/metrics"
)

var (
	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "ledger",
			Name:      "payments_total",
			Help:      "Committed course payments by course type",
		},
		[]string{"course_type"},
	)

	depositsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "ledger",
			Name:      "deposits_total",
			Help:      "Committed deposits",
		},
	)
)
