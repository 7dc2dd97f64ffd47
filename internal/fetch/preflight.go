package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fetchcore/internal/observability/logging"
	"fetchcore/internal/observability/metrics"
)

// corsPreflightFetch implements §4.4: synthesize and dispatch an OPTIONS
// preflight, and on a successful, CORS-checked 2xx result, populate the
// CORS cache before returning the real preflight response to the caller.
func corsPreflightFetch(ctx context.Context, env *fetchEnv, req *Request) *Response {
	logger := logging.WithFetchID(ctx, logging.FromContext(ctx))

	preflight := NewRequest(req.CurrentURL(), req.Origin, false)
	preflight.Method = http.MethodOptions
	preflight.Type = req.Type
	preflight.Referer = req.Referer

	preflight.Headers.Set("Access-Control-Request-Method", req.Method)
	if names := nonSimpleHeaderNames(req.Headers); len(names) > 0 {
		preflight.Headers.Set("Access-Control-Request-Headers", strings.Join(names, ", "))
	}

	resp := httpNetworkOrCacheFetch(ctx, env, preflight, false, false)

	if resp.IsNetworkError() || resp.Status < 200 || resp.Status > 299 || !corsCheck(req, resp) {
		logger.Debug("cors preflight rejected", slog.String("url", req.CurrentURL().String()), slog.Int("status", resp.Status))
		metrics.PreflightRequestsTotal.WithLabelValues("rejected").Inc()
		return NetworkError()
	}

	methods, ok := parseAllowList(resp.Headers, "Access-Control-Allow-Methods")
	if !ok {
		metrics.PreflightRequestsTotal.WithLabelValues("malformed").Inc()
		return NetworkError()
	}
	headerNames, ok := parseAllowList(resp.Headers, "Access-Control-Allow-Headers")
	if !ok {
		metrics.PreflightRequestsTotal.WithLabelValues("malformed").Inc()
		return NetworkError()
	}

	if len(methods) == 0 && req.UseCORSPreflight {
		methods = []string{req.Method}
	}

	methodAllowed := isSimpleMethod(req.Method)
	for _, m := range methods {
		if m == req.Method {
			methodAllowed = true
			break
		}
	}
	if !methodAllowed {
		metrics.PreflightRequestsTotal.WithLabelValues("method-denied").Inc()
		return NetworkError()
	}

	allowedHeaders := make(map[string]struct{}, len(headerNames))
	for _, h := range headerNames {
		allowedHeaders[strings.ToLower(h)] = struct{}{}
	}
	for name, values := range req.Headers {
		for _, v := range values {
			if isSimpleHeader(name, v) {
				continue
			}
			if _, ok := allowedHeaders[strings.ToLower(name)]; !ok {
				metrics.PreflightRequestsTotal.WithLabelValues("header-denied").Inc()
				return NetworkError()
			}
		}
	}

	// §4.4: Access-Control-Max-Age defaults to 0 when absent or malformed.
	// FetchEngineConfig.DefaultPreflightMaxAge does not override this —
	// changing the missing-header default would change the algorithm's
	// meaning, which §1 requires stay unchanged; nothing in the engine
	// reads that config field.
	maxAge := time.Duration(parseMaxAgeHeader(resp.Headers.Get("Access-Control-Max-Age"))) * time.Second

	details := NewCacheRequestDetails(req.Origin, req.CurrentURL(), req.CredentialsMode == CredentialsInclude)
	for _, m := range methods {
		env.corsCache.MatchMethodAndUpdate(details, m, maxAge)
	}
	for _, h := range headerNames {
		env.corsCache.MatchHeaderAndUpdate(details, h, maxAge)
	}

	metrics.PreflightRequestsTotal.WithLabelValues("approved").Inc()
	return resp
}

// headerAbsent reports whether name is not present in h at all (as
// opposed to present with an empty value).
func headerAbsent(h http.Header, name string) bool {
	_, ok := h[http.CanonicalHeaderKey(name)]
	return !ok
}

// parseAllowList parses a comma-separated Access-Control-Allow-* header.
// A missing header yields an empty (not nil) list with ok = true; a
// header present but empty is malformed and yields ok = false, mirroring
// the original algorithm's substep 3 ("missing header ⇒ network error").
func parseAllowList(h http.Header, name string) ([]string, bool) {
	if headerAbsent(h, name) {
		return nil, true
	}
	value := h.Get(name)
	parsed := splitCommaList(value)
	if len(parsed) == 0 {
		return nil, false
	}
	return parsed, true
}

// parseMaxAgeHeader parses Access-Control-Max-Age's integer seconds
// value, returning 0 if absent or malformed.
func parseMaxAgeHeader(value string) int {
	if value == "" {
		return 0
	}
	n := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
