package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch-level metrics track the algorithmic events of main_fetch/http_fetch/
// http_redirect_fetch as they happen, independent of any single caller.
var (
	// RedirectsTotal counts redirect hops followed by http_redirect_fetch,
	// labeled by the response status that triggered them.
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_redirects_total",
			Help: "Total number of redirects followed, by status code",
		},
		[]string{"status"},
	)

	// PreflightRequestsTotal counts OPTIONS preflight dispatches and their outcome.
	PreflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_preflight_requests_total",
			Help: "Total number of CORS preflight requests dispatched",
		},
		[]string{"outcome"},
	)

	// CORSCacheHitsTotal counts CORS-cache lookups that avoided a preflight round trip.
	CORSCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_cors_cache_hits_total",
			Help: "Total number of CORS cache lookups, by hit/miss",
		},
		[]string{"result"},
	)

	// NetworkErrorsTotal counts fetches that collapsed to a network error response,
	// labeled by the stage that produced it.
	NetworkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_network_errors_total",
			Help: "Total number of fetches that resulted in a network error",
		},
		[]string{"stage"},
	)

	// ResponseDuration measures wall-clock time from fetch() entry to a Done/Error body.
	ResponseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_response_duration_seconds",
			Help:    "End-to-end fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"response_type"},
	)

	// ActiveFetches tracks the number of fetch() invocations currently in flight.
	ActiveFetches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetch_active_requests",
			Help: "Number of fetch() invocations currently in flight",
		},
	)
)
