package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/study-on/billing/internal/pkg/metrics"
)

var (
	mailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "jobs",
			Name:      "mails_sent_total",
			Help:      "Mails sent by batch jobs",
		},
		[]string{"job", "status"},
	)

	mailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "jobs",
			Name:      "mail_send_duration_seconds",
			Help:      "Time to send a job mail",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"job"},
	)
)
