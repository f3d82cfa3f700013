// Package metrics exposes Prometheus counters for the analytics module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// ProfilesComputed counts snapshot computations by sample tier.
	ProfilesComputed *prometheus.CounterVec
	// ProfilesPublished counts snapshots that cleared the publication gate.
	ProfilesPublished prometheus.Counter
	// ProfilesWithheld counts snapshots held back for insufficient sample.
	ProfilesWithheld prometheus.Counter
	// GenerationRetries counts recomputes restarted because the position
	// generation moved mid-read.
	GenerationRetries prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ProfilesComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_analytics_profiles_computed_total",
			Help: "Bias profile snapshots computed, by sample tier.",
		}, []string{"tier"}),
		ProfilesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_analytics_profiles_published_total",
			Help: "Bias profile snapshots published to the cache.",
		}),
		ProfilesWithheld: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_analytics_profiles_withheld_total",
			Help: "Bias profile snapshots withheld for insufficient sample.",
		}),
		GenerationRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_analytics_generation_retries_total",
			Help: "Profile recomputes restarted after a concurrent position change.",
		}),
	}
}
