package fetch

import (
	"context"
	"time"

	"fetchcore/internal/fetchid"
	"fetchcore/internal/observability/logging"
	"fetchcore/internal/observability/metrics"
	"fetchcore/internal/observability/tracing"
)

// Engine is the public composition root for the fetch algorithm: it owns
// the collaborators (connector, cache store, CORS cache) and the config
// that the algorithmic layers consult, and it stamps every call with a
// fetch correlation ID. Construct one Engine per embedder process; its
// collaborators are safe for concurrent use by multiple goroutines (§5).
type Engine struct {
	env *fetchEnv
}

// NewEngine constructs an Engine from its collaborators. cache may be nil,
// in which case every request behaves as if its cache mode were
// CacheNoStore. corsCache must not be nil; use NewCORSCache to build one.
func NewEngine(connector Connector, cache CacheStore, corsCache *CORSCache, config FetchEngineConfig) *Engine {
	return &Engine{
		env: &fetchEnv{
			connector: connector,
			cache:     cache,
			corsCache: corsCache,
			config:    config,
		},
	}
}

// Fetch runs the fetch algorithm to completion for req, blocking until
// main_fetch returns. The returned Response's Body may still be in the
// Receiving state; callers that need the full body should call
// Body.WaitUntilDone. This corresponds to the Fetch standard's
// "synchronous flag" being unset — the network is never blocked on here,
// only the algorithmic steps up to the first response.
func (e *Engine) Fetch(ctx context.Context, req *Request) *Response {
	ctx = fetchid.WithFetchID(ctx, fetchid.FromContext(ctx))
	ctx, span := tracing.GetTracer().Start(ctx, "fetch")
	defer span.End()

	logger := logging.WithFetchID(ctx, logging.FromContext(ctx))
	logger.Debug("fetch started", "url", req.CurrentURL().String(), "method", req.Method)

	metrics.ActiveFetches.Inc()
	defer metrics.ActiveFetches.Dec()

	start := time.Now()
	resp := fetchEntry(ctx, e.env, req)
	metrics.ResponseDuration.WithLabelValues(resp.ResponseType.String()).Observe(time.Since(start).Seconds())

	if resp.IsNetworkError() {
		logger.Warn("fetch resulted in network error", "url", req.CurrentURL().String())
	} else {
		logger.Debug("fetch completed", "status", resp.Status, "response_type", resp.ResponseType.String())
	}

	return resp
}

// FetchSynchronous runs Fetch and additionally blocks until the response
// body has fully settled (Done, whether cleanly finished or terminated),
// matching a caller's request for req.Synchronous = true. The original
// Response is returned with its Body already populated; callers may still
// safely call Body.WaitUntilDone again (idempotent).
func (e *Engine) FetchSynchronous(ctx context.Context, req *Request) *Response {
	resp := e.Fetch(ctx, req)
	if !resp.IsNetworkError() && resp.Body != nil {
		resp.Body.WaitUntilDone()
	}
	return resp
}

// FetchAsyncResult is delivered to an AsyncFetchListener once a Response
// has been produced, or once its body settles — see
// internal/fetch/listener for the listener contract.
type FetchAsyncResult struct {
	FetchID  string
	Response *Response
}

// FetchAsync runs Fetch in its own goroutine and reports the result
// through the supplied callback exactly once, after the response body has
// reached Done (or immediately, for a network error). This models the
// Fetch standard's "fetch_async" process-the-response-in-parallel behavior
// described in §6, where the listener fires once processResponseEndOfBody
// has run, not once the initial response is merely available.
func (e *Engine) FetchAsync(ctx context.Context, req *Request, onDone func(FetchAsyncResult)) {
	id := fetchid.FromContext(ctx)
	if id == "" {
		id = fetchid.New()
	}
	ctx = fetchid.WithFetchID(ctx, id)

	go func() {
		resp := e.Fetch(ctx, req)
		if !resp.IsNetworkError() && resp.Body != nil {
			resp.Body.WaitUntilDone()
		}
		onDone(FetchAsyncResult{FetchID: id, Response: resp})
	}()
}

// CORSCache exposes the Engine's shared CORS preflight cache: the same
// instance every Fetch populates and StartCORSCacheSweeper sweeps.
func (e *Engine) CORSCache() *CORSCache {
	return e.env.corsCache
}
