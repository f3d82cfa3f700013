// Package metrics exposes Prometheus counters for the review queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Queued   *prometheus.CounterVec
	Resolved *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Queued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_review_queued_total",
			Help: "Entries added to the review queue, by kind.",
		}, []string{"kind"}),
		Resolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_review_resolved_total",
			Help: "Review entries resolved, by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementQueued(kind string) {
	m.Queued.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementResolved(kind string) {
	m.Resolved.WithLabelValues(kind).Inc()
}
