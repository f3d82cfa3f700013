// Package metrics exposes Prometheus metrics for the ingest pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Records counts processed records by disposition: resolved, ambiguous,
	// deferred, malformed, failed.
	Records *prometheus.CounterVec
	// Lag is the seconds between a record's decision date and its
	// processing time.
	Lag prometheus.Histogram
	// ProviderRequests counts provider API calls by result.
	ProviderRequests *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Records: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_ingest_records_total",
			Help: "Raw case records processed, by disposition.",
		}, []string{"disposition"}),
		Lag: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gavel_ingest_lag_seconds",
			Help:    "Delay between a record's decision date and its processing.",
			Buckets: prometheus.ExponentialBuckets(3600, 4, 10),
		}),
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_ingest_provider_requests_total",
			Help: "Provider API requests, by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveRecord(disposition string) {
	m.Records.WithLabelValues(disposition).Inc()
}
