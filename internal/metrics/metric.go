// Package metrics holds the prometheus collectors of the cache layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "consolecache"

var (
	Registry = prometheus.NewRegistry()

	// SyncOutcomes counts per-resource sync results by outcome
	// (success, failed, skipped).
	SyncOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "resource_outcomes_total",
		Help:      "Resource sync outcomes.",
	}, []string{"resource", "outcome"})

	SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "pass_duration_seconds",
		Help:      "Duration of complete sync passes.",
		Buckets:   prometheus.DefBuckets,
	})

	// CacheLookups counts read-through lookups by result
	// (hit, miss, invalid, demo).
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Read-through cache lookups.",
	}, []string{"resource", "result"})

	// SwallowedErrors counts errors the cache logged instead of returning.
	SwallowedErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "swallowed_errors_total",
		Help:      "Errors degraded to partial results.",
	}, []string{"resource", "stage"})

	DefaultedFields = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "normalize",
		Name:      "defaulted_fields_total",
		Help:      "Fields that fell back to a default during normalization.",
	}, []string{"resource"})
)

func init() {
	Registry.MustRegister(
		SyncOutcomes,
		SyncDuration,
		CacheLookups,
		SwallowedErrors,
		DefaultedFields,
	)
}

// Handler serves Registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
