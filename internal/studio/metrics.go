package studio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_transitions_total",
		Help: "Controller state transitions by resulting phase",
	}, []string{"phase"})

	discardedCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_discarded_completions_total",
		Help: "Pipeline completions dropped because their job was superseded",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studio_active_sessions",
		Help: "Sessions currently held by the registry",
	})
)
