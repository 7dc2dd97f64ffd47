// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing
// for the fetch engine.
//
// This package centralizes observability concerns to enable:
//   - Span tracing across the fetch/main-fetch/http-fetch recursion
//   - Structured logging with fetch-ID propagation
//   - Prometheus metrics for monitoring redirects, preflights, and cache hits
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry for fetch engine events
//   - tracing: OpenTelemetry tracer shared across the fetch algorithm recursion
//
// Example usage:
//
//	import (
//	    "fetchcore/internal/observability/logging"
//	    "fetchcore/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("fetch engine started")
//
//	    metrics.RedirectsTotal.WithLabelValues("302").Inc()
//	}
package observability
