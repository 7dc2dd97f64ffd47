package fetch

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"fetchcore/internal/observability/logging"
	"fetchcore/internal/observability/metrics"
)

// fetchEnv bundles the collaborators threaded through the recursive
// algorithm layers: the connector, the persistent HTTP cache, the shared
// CORS cache, and the ambient config. It replaces what the distilled spec
// treats as ambient/global state with an explicit value passed by pointer,
// so an Engine never leaks state across unrelated fetches.
type fetchEnv struct {
	connector Connector
	cache     CacheStore
	corsCache *CORSCache
	config    FetchEngineConfig

	// networkGroup coalesces concurrent GET fetches that land on the same
	// cache key (same method + URL) into a single connector round trip,
	// so a burst of requests for a cold cache entry doesn't stampede the
	// origin. Side-effecting methods are never coalesced.
	networkGroup singleflight.Group
}

// httpNetworkOrCacheFetch implements §4.3: build the wire-level
// "http_request", synthesize its headers, consult the cache, and fall
// back to httpNetworkFetch.
func httpNetworkOrCacheFetch(ctx context.Context, env *fetchEnv, req *Request, credentialsFlag, authFlag bool) *Response {
	logger := logging.WithFetchID(ctx, logging.FromContext(ctx))

	httpReq := req
	if !(req.Window.Kind == WindowNone && req.RedirectMode != RedirectFollow) {
		httpReq = req.Clone()
	}

	synthesizeNetworkHeaders(httpReq, credentialsFlag, authFlag, env.config.UserAgent)

	cacheMode := httpReq.CacheMode
	key := CacheKey{Method: httpReq.Method, URL: httpReq.CurrentURL().String()}

	if cacheMode == CacheNoStore || cacheMode == CacheReload || env.cache == nil {
		return coalescedNetworkFetch(ctx, env, httpReq, nil)
	}

	cached, hit, err := env.cache.Lookup(ctx, key)
	if err != nil {
		logger.Warn("cache store lookup failed", slog.Any("error", err))
		hit = false
	}

	if !hit {
		if cacheMode == CacheOnlyIfCached {
			return NetworkError()
		}
		return coalescedNetworkFetch(ctx, env, httpReq, nil)
	}

	now := time.Now()
	needsRevalidation := cacheMode == CacheNoCache || (cacheMode == CacheDefault && cached.Stale(now))

	if !needsRevalidation {
		metrics.CORSCacheHitsTotal.WithLabelValues("http-cache-hit").Inc()
		return responseFromCache(cached)
	}

	if cacheMode == CacheOnlyIfCached {
		return responseFromCache(cached)
	}

	applyConditionalHeaders(httpReq, cached)
	return coalescedNetworkFetch(ctx, env, httpReq, cached)
}

// coalescedNetworkFetch dispatches through finishNetworkFetch, collapsing
// concurrent identical GET requests (same method and URL) into a single
// connector round trip: every caller that lands inside the same in-flight
// window shares the one *Response, including its still-settling Body.
// Side-effecting methods bypass the group entirely since duplicating (or
// deduplicating) their network effects would change program behavior.
func coalescedNetworkFetch(ctx context.Context, env *fetchEnv, httpReq *Request, revalidating *CachedResponse) *Response {
	if httpReq.Method != http.MethodGet {
		return finishNetworkFetch(ctx, env, httpReq, revalidating)
	}

	groupKey := httpReq.Method + " " + httpReq.CurrentURL().String()
	v, _, _ := env.networkGroup.Do(groupKey, func() (interface{}, error) {
		return finishNetworkFetch(ctx, env, httpReq, revalidating), nil
	})
	return v.(*Response)
}

// synthesizeNetworkHeaders applies the §4.3 header-synthesis steps, in
// order, to httpReq in place.
func synthesizeNetworkHeaders(httpReq *Request, credentialsFlag, authFlag bool, userAgent string) {
	// Content-Length
	switch {
	case httpReq.HasBody:
		httpReq.Headers.Set("Content-Length", strconv.Itoa(len(httpReq.Body)))
	case httpReq.Method == http.MethodHead || httpReq.Method == http.MethodPost || httpReq.Method == http.MethodPut:
		httpReq.Headers.Set("Content-Length", "0")
	}

	// Referer
	switch httpReq.Referer.Kind {
	case RefererNone:
		httpReq.Headers.Set("Referer", "")
	case RefererURL:
		httpReq.Headers.Set("Referer", httpReq.Referer.URL)
	case RefererClient:
		// Programmer error per §4.3: Client must have been resolved to a
		// concrete Referer before reaching this layer. Fail closed rather
		// than leak a sentinel value onto the wire.
		panic("fetch: Referer still Client at http_network_or_cache_fetch")
	}

	// User-Agent
	if httpReq.Headers.Get("User-Agent") == "" {
		httpReq.Headers.Set("User-Agent", userAgent)
	}

	// Cache-mode normalization
	switch {
	case httpReq.CacheMode == CacheDefault && hasAnyConditionalHeader(httpReq.Headers):
		httpReq.CacheMode = CacheNoStore
	case httpReq.CacheMode == CacheNoCache && httpReq.Headers.Get("Cache-Control") == "":
		httpReq.Headers.Set("Cache-Control", "max-age=0")
	case httpReq.CacheMode == CacheReload:
		if httpReq.Headers.Get("Pragma") == "" {
			httpReq.Headers.Set("Pragma", "no-cache")
		}
		if httpReq.Headers.Get("Cache-Control") == "" {
			httpReq.Headers.Set("Cache-Control", "no-cache")
		}
	}

	// Authorization from URL credentials
	if credentialsFlag && httpReq.Headers.Get("Authorization") == "" {
		if authFlag && hasCredentials(httpReq.CurrentURL()) {
			u := httpReq.CurrentURL()
			password, _ := u.User.Password()
			httpReq.Headers.Set("Authorization", basicAuthHeader(u.User.Username(), password))
		}
	}
}

func basicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// applyConditionalHeaders sets If-None-Match / If-Modified-Since from a
// stale cache entry's validators, ahead of a revalidation round trip.
func applyConditionalHeaders(httpReq *Request, cached *CachedResponse) {
	if cached.ETag != "" {
		httpReq.Headers.Set("If-None-Match", cached.ETag)
	}
	if cached.LastModified != "" {
		httpReq.Headers.Set("If-Modified-Since", cached.LastModified)
	}
}

// finishNetworkFetch calls httpNetworkFetch and applies the post-network
// merge-with-cache step (§4.3): a 304 against a revalidated entry is
// merged with the cached body and marked CacheState = "validated"; a
// cacheable fresh response is stored for next time.
func finishNetworkFetch(ctx context.Context, env *fetchEnv, httpReq *Request, revalidating *CachedResponse) *Response {
	resp := httpNetworkFetch(ctx, env.connector, httpReq, env.config.MaxResponseBodyBytes)
	if resp.IsNetworkError() {
		return resp
	}

	if revalidating != nil && resp.Status == 304 {
		merged := responseFromCache(revalidating)
		merged.CacheState = "validated"
		if env.cache != nil {
			refreshed := *revalidating
			refreshed.StoredAt = time.Now()
			_ = env.cache.Store(ctx, CacheKey{Method: httpReq.Method, URL: httpReq.CurrentURL().String()}, &refreshed)
		}
		return merged
	}

	if env.cache != nil && isCacheableResponse(httpReq, resp) {
		storeInCache(ctx, env, httpReq, resp)
	}

	return resp
}

func isCacheableResponse(httpReq *Request, resp *Response) bool {
	return httpReq.Method == http.MethodGet && resp.Status == 200 && httpReq.CacheMode != CacheNoStore
}

func storeInCache(ctx context.Context, env *fetchEnv, httpReq *Request, resp *Response) {
	body := resp.Body.WaitUntilDone()
	entry := &CachedResponse{
		URL:          resp.URL,
		Status:       resp.Status,
		Headers:      resp.Headers,
		Body:         body,
		ETag:         resp.Headers.Get("ETag"),
		LastModified: resp.Headers.Get("Last-Modified"),
		StoredAt:     time.Now(),
		Expiry:       cacheExpiryFromHeaders(resp.Headers),
	}
	_ = env.cache.Store(ctx, CacheKey{Method: httpReq.Method, URL: httpReq.CurrentURL().String()}, entry)
}

// cacheExpiryFromHeaders derives a freshness lifetime from Cache-Control's
// max-age directive, defaulting to an already-expired entry (so ambiguous
// responses always revalidate rather than serve stale-forever).
func cacheExpiryFromHeaders(h http.Header) time.Time {
	maxAge := parseMaxAge(h.Get("Cache-Control"))
	if maxAge <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(maxAge) * time.Second)
}

func responseFromCache(cached *CachedResponse) *Response {
	body := NewBody()
	body.StartReceiving()
	body.Finish(cached.Body)
	return &Response{
		URL:          cached.URL,
		Status:       cached.Status,
		Headers:      cached.Headers,
		URLList:      []*url.URL{cached.URL},
		ResponseType: ResponseTypeDefault,
		Body:         body,
		CacheState:   "local",
	}
}
