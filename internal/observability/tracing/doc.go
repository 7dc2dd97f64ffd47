// Package tracing provides the shared OpenTelemetry tracer used across the
// fetch algorithm's recursion.
//
// A single fetch() call can recurse through main_fetch, scheme_fetch,
// http_fetch, http_redirect_fetch, and http_network_or_cache_fetch several
// times before it settles on a response. Engine.Fetch starts a "fetch" span
// and httpNetworkFetch starts an "http_network_fetch" span from the tracer
// returned by GetTracer, so a trace viewer shows every network round trip
// of the recursive chain under the initiating fetch() call; the other
// stages start no spans of their own.
//
// Example usage:
//
//	import "fetchcore/internal/observability/tracing"
//
//	func httpNetworkFetch(ctx context.Context, req *fetch.Request) *fetch.Response {
//	    ctx, span := tracing.GetTracer().Start(ctx, "http_network_fetch")
//	    defer span.End()
//	    // ...
//	}
package tracing
