// Package metrics holds the prometheus collectors of the extraction engine.
// They register with the default registry and are served by `ailawyer serve`.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction metrics
	DocumentsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_documents_extracted_total",
			Help: "Documents processed by the extraction orchestrator",
		},
		[]string{"outcome"},
	)

	PagesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ailawyer_pages_scanned_total",
		Help: "Pages scanned by the scanner worker",
	})

	OccurrencesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_occurrences_total",
			Help: "Person occurrences found, by scanner rule",
		},
		[]string{"rule"},
	)

	WorkerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ailawyer_worker_errors_total",
		Help: "Pages the scanner worker failed to process",
	})

	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_identity_resolutions_total",
			Help: "Identity resolution outcomes",
		},
		[]string{"outcome"},
	)

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ailawyer_extraction_duration_seconds",
		Help:    "Wall time of extraction runs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// Enrichment metrics
	EnrichmentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_enrichment_requests_total",
			Help: "Calls to enrichment services, by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	BreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ailawyer_address_breaker_open",
		Help: "1 while the address service circuit breaker is open",
	})

	// API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_http_requests_total",
			Help: "Requests served by the HTTP API, by route and status class",
		},
		[]string{"route", "status"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailawyer_cache_misses_total",
			Help: "Number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeOpen      = "breaker_open"
	OutcomeCached    = "cached"
	OutcomeThrottled = "throttled"
	OutcomeMerged    = "merged"
	OutcomeCreated   = "created"
)
