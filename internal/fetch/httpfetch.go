package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fetchcore/internal/observability/metrics"
)

// redirectStatuses is the set of HTTP statuses http_fetch treats as a
// redirect (§4.2).
var redirectStatuses = map[int]struct{}{
	301: {}, 302: {}, 303: {}, 307: {}, 308: {},
}

func isRedirectStatus(status int) bool {
	_, ok := redirectStatuses[status]
	return ok
}

// actualResponseOf unwraps a filtered Response down to the unfiltered
// response it was produced from, or returns r itself if it was never
// filtered. http_redirect_fetch needs the unfiltered response to read
// Location off of it even when main_fetch already applied a CORS/opaque
// filter on the way back up.
func actualResponseOf(r *Response) *Response {
	if r.InternalResponse != nil {
		return r.InternalResponse
	}
	return r
}

// httpFetch implements §4.2's http_fetch: decide whether a CORS preflight
// is required (consulting the CORS cache before dispatching a real one),
// perform the actual request via http_network_or_cache_fetch, apply the
// CORS check, and hand redirects to http_redirect_fetch per the request's
// redirect mode.
func httpFetch(ctx context.Context, env *fetchEnv, req *Request) *Response {
	needsPreflight := req.ResponseTainting == TaintingCORS &&
		(req.UseCORSPreflight || !isSimpleMethod(req.Method) || len(nonSimpleHeaderNames(req.Headers)) > 0)

	if needsPreflight {
		req.RedirectMode = RedirectError

		if !preflightAlreadyApproved(env, req) {
			preflightResponse := corsPreflightFetch(ctx, env, req)
			if preflightResponse.IsNetworkError() {
				return preflightResponse
			}
		}
	}

	credentialsFlag := req.CredentialsMode == CredentialsInclude ||
		(req.CredentialsMode == CredentialsSameOrigin && req.ResponseTainting == TaintingBasic)

	response := httpNetworkOrCacheFetch(ctx, env, req, credentialsFlag, true)

	if req.ResponseTainting == TaintingCORS && !response.IsNetworkError() && !corsCheck(req, response) {
		env.corsCache.PurgeByDestination(req.CurrentURL())
		return NetworkError()
	}

	if response.IsNetworkError() || !isRedirectStatus(response.Status) {
		return response
	}

	switch req.RedirectMode {
	case RedirectError:
		return NetworkError()
	case RedirectManual:
		return response.ToFiltered(ResponseTypeOpaqueRedirect)
	default: // RedirectFollow
		return httpRedirectFetch(ctx, env, req, response)
	}
}

// preflightAlreadyApproved reports whether every method/header this
// request needs has a live CORS-cache entry, letting http_fetch skip a
// redundant OPTIONS round trip (§4.6).
func preflightAlreadyApproved(env *fetchEnv, req *Request) bool {
	details := NewCacheRequestDetails(req.Origin, req.CurrentURL(), req.CredentialsMode == CredentialsInclude)

	if !isSimpleMethod(req.Method) && !env.corsCache.MatchMethod(details, req.Method) {
		return false
	}
	for _, name := range nonSimpleHeaderNames(req.Headers) {
		if !env.corsCache.MatchHeader(details, name) {
			return false
		}
	}
	return true
}

// httpRedirectFetch implements §4.2's http_redirect_fetch: resolve the
// Location header against the request's current URL, apply the redirect
// safety checks, rewrite method/body and strip sensitive headers when
// required, append the new URL, and re-enter main_fetch with the
// recursive flag set.
func httpRedirectFetch(ctx context.Context, env *fetchEnv, req *Request, response *Response) *Response {
	actualResponse := actualResponseOf(response)

	locationURL, err := resolveLocationURL(actualResponse, req.CurrentURL())
	if err != nil {
		return NetworkError()
	}
	if locationURL == nil {
		return response
	}

	if !isHTTPScheme(locationURL) {
		return NetworkError()
	}

	limit := maxRedirectCount
	if env.config.MaxRedirects < limit {
		limit = env.config.MaxRedirects
	}
	if req.RedirectCount >= limit {
		return NetworkError()
	}
	req.RedirectCount++

	if req.Mode == ModeCORS && hasCredentials(locationURL) && !req.sameOrigin(locationURL) {
		return NetworkError()
	}
	if req.ResponseTainting == TaintingCORS && hasCredentials(locationURL) {
		return NetworkError()
	}

	rewriteToGET := (actualResponse.Status == 301 || actualResponse.Status == 302) && req.Method == http.MethodPost ||
		actualResponse.Status == 303 && req.Method != http.MethodGet && req.Method != http.MethodHead
	if rewriteToGET {
		req.RewriteToGET()
	}

	if !req.sameOrigin(locationURL) {
		req.Headers.Del("Authorization")
		req.Headers.Del("Cookie")
		req.Headers.Del("Cookie2")
	}

	req.AppendURL(locationURL)

	metrics.RedirectsTotal.WithLabelValues(strconv.Itoa(actualResponse.Status)).Inc()

	return mainFetch(ctx, env, req, true)
}

// resolveLocationURL reads and resolves a response's Location header
// against currentURL, inheriting currentURL's fragment when the location
// itself carries none (§4.2). A response with no Location header yields
// (nil, nil) — "locationURL is null", not an error; a header present but
// unparseable yields a non-nil error.
func resolveLocationURL(resp *Response, currentURL *url.URL) (*url.URL, error) {
	raw := resp.Headers.Get("Location")
	if raw == "" {
		return nil, nil
	}

	parsed, err := currentURL.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Fragment == "" && currentURL.Fragment != "" {
		parsed.Fragment = currentURL.Fragment
	}
	return parsed, nil
}
