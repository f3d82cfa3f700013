package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Outcomes         *prometheus.CounterVec
	CandidateJudges  prometheus.Counter
	VariantAdditions prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_match_outcomes_total",
			Help: "Total match pipeline outcomes by kind and tier",
		}, []string{"kind", "tier"}),
		CandidateJudges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_match_candidate_judges_created_total",
			Help: "Total candidate judges created from unmatched records",
		}),
		VariantAdditions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_match_name_variants_added_total",
			Help: "Total name variants learned through external-id matches",
		}),
	}
}

func (m *Metrics) ObserveOutcome(kind, tier string) {
	m.Outcomes.WithLabelValues(kind, tier).Inc()
}

func (m *Metrics) IncrementCandidateJudges() {
	m.CandidateJudges.Inc()
}

func (m *Metrics) IncrementVariantAdditions() {
	m.VariantAdditions.Inc()
}
