package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions         *prometheus.CounterVec
	Violations          *prometheus.CounterVec
	SweepRuns           prometheus.Counter
	RetirementsInferred prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_position_transitions_total",
			Help: "Total position state transitions by kind",
		}, []string{"kind"}),
		Violations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_position_violations_total",
			Help: "Total assignment validator rejections by kind",
		}, []string{"kind"}),
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_retirement_sweep_runs_total",
			Help: "Total retirement reconciliation sweeps executed",
		}),
		RetirementsInferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_retirements_inferred_total",
			Help: "Total judges marked retired by the inactivity sweep",
		}),
	}
}

func (m *Metrics) IncrementTransitions(kind string) {
	m.Transitions.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementViolations(kind string) {
	m.Violations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementSweepRuns() {
	m.SweepRuns.Inc()
}

func (m *Metrics) IncrementRetirementsInferred() {
	m.RetirementsInferred.Inc()
}
