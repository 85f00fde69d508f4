package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch and check-in counters for the operations dashboard.
var (
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatherpass_emails_sent_total",
		Help: "Credential emails successfully handed to the mail channel.",
	})

	EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatherpass_emails_failed_total",
		Help: "Credential email sends that returned an error.",
	})

	ActiveDispatchRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gatherpass_dispatch_runs_active",
		Help: "Dispatch runs currently in flight.",
	})

	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatherpass_checkins_total",
		Help: "Check-in attempts by result.",
	}, []string{"result"})
)
