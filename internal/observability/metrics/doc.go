// Package metrics provides the Prometheus metrics registry for the fetch engine.
//
// This package centralizes the counters and histograms that observe the fetch
// algorithm from the outside: redirects followed, preflights dispatched, CORS
// cache hits, network errors, and response latency. All metrics are registered
// with promauto against the default Prometheus registry.
//
// Example usage:
//
//	import "fetchcore/internal/observability/metrics"
//
//	func afterFetch(start time.Time, status string) {
//	    metrics.ResponseDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
//	}
package metrics
