// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinjam_live_sessions",
		Help: "Navbar components currently mounted over /live.",
	})

	NavEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinjam_nav_events_total",
		Help: "Navbar events handled, by component and event type.",
	}, []string{"component", "event"})

	LogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinjam_logouts_total",
		Help: "Sessions ended through the logout action.",
	})

	LoanTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinjam_loan_transitions_total",
		Help: "Loan status changes, by resulting status.",
	}, []string{"status"})
)
