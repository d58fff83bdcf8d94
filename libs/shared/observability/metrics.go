package observability

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ValidationFailures counts section validations that produced errors.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "getlisted",
		Subsystem: "listing",
		Name:      "validation_failures_total",
		Help:      "Section validations that reported at least one error.",
	}, []string{"section"})

	// Submissions counts listing submissions by outcome.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "getlisted",
		Subsystem: "listing",
		Name:      "submissions_total",
		Help:      "Listing submissions by outcome (created, updated, invalid, rejected, failed).",
	}, []string{"outcome"})

	// DeckSaves counts pitch-deck persistence calls by operation.
	DeckSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "getlisted",
		Subsystem: "deck",
		Name:      "saves_total",
		Help:      "Pitch-deck saves by operation (create, update) and result.",
	}, []string{"operation", "result"})

	// BackendLatency observes outbound backend request durations.
	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "getlisted",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls to the GetListed REST backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})

	// IndexedListings counts directory upserts performed by the indexer.
	IndexedListings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "getlisted",
		Subsystem: "directory",
		Name:      "indexed_listings_total",
		Help:      "Listing events applied to the directory index.",
	})
)

// RegisterMetricsEndpoint exposes Prometheus metrics on /metrics.
func RegisterMetricsEndpoint(router chi.Router) {
	router.Handle("/metrics", promhttp.Handler())
}
