package fetch

import (
	"context"
	"net/http"
	"net/url"
)

// basicFetch implements §4.1's scheme dispatch: route a request to the
// loader or network path appropriate for its current URL's scheme. Every
// branch either synthesizes a response locally or delegates to http_fetch;
// anything else is a network error.
func basicFetch(ctx context.Context, env *fetchEnv, req *Request) *Response {
	switch req.CurrentURL().Scheme {
	case "about":
		return aboutBlankResponse(req.CurrentURL())
	case "data":
		return dataURLResponse(req.CurrentURL())
	case "file":
		return fileURLResponse(req.CurrentURL())
	case "http", "https":
		return httpFetch(ctx, env, req)
	default:
		// blob:, ftp:, and anything unrecognized: unsupported in this
		// engine (§9 Non-goals).
		return NetworkError()
	}
}

// isLocalURL reports whether u's scheme is one of the "local" schemes that
// local-urls-only requests are still permitted to reach.
func isLocalURL(u *url.URL) bool {
	switch u.Scheme {
	case "about", "blob", "data", "file":
		return true
	default:
		return false
	}
}

// isHTTPScheme reports whether u's scheme is http or https.
func isHTTPScheme(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// resolveReferer resolves a Request's Referer out of its Client
// placeholder state. This engine has no notion of a referring document's
// URL, so "client" resolves to "no referrer" — a deliberate simplification
// recorded as a decided Open Question: callers who want a concrete
// referrer must set Referer to RefererURL themselves before fetching.
func resolveReferer(req *Request) {
	if req.Referer.Kind == RefererClient {
		req.Referer = Referer{Kind: RefererNone}
	}
}

// mainFetch implements §4.1: resolve response tainting for the current
// hop, dispatch to basic_fetch, and apply the tainting-driven response
// filter and null-body forcing before returning. http_redirect_fetch
// re-enters this function with recursiveFlag set, which skips referrer
// resolution (already done on the initial call) but still re-runs the
// tainting dispatch, since a redirect can cross origins mid-fetch and
// escalate tainting from basic toward cors or opaque.
func mainFetch(ctx context.Context, env *fetchEnv, req *Request, recursiveFlag bool) *Response {
	if req.LocalURLsOnly && !isLocalURL(req.CurrentURL()) {
		return finalizeMainFetch(NetworkError(), req)
	}

	if !recursiveFlag {
		resolveReferer(req)
	}

	sameOrigin := req.sameOrigin(req.CurrentURL())
	switch {
	case sameOrigin && req.ResponseTainting == TaintingBasic:
		req.ResponseTainting = TaintingBasic
	case req.Mode == ModeNavigate:
		req.ResponseTainting = TaintingBasic
	case req.Mode == ModeSameOrigin:
		return finalizeMainFetch(NetworkError(), req)
	case req.Mode == ModeNoCORS:
		req.ResponseTainting = TaintingOpaque
	case !isHTTPScheme(req.CurrentURL()):
		return finalizeMainFetch(NetworkError(), req)
	default: // ModeCORS
		req.ResponseTainting = TaintingCORS
	}

	response := basicFetch(ctx, env, req)
	return finalizeMainFetch(response, req)
}

// finalizeMainFetch applies the tainting-driven response filter (§4.1
// step 2's six-way dispatch determines which of these three applies) and
// forces an empty body on statuses that must never carry one (§4.7) and on
// HEAD/CONNECT responses, regardless of what a loader or the network
// actually produced.
func finalizeMainFetch(response *Response, req *Request) *Response {
	if response.IsNetworkError() {
		return response
	}

	switch {
	case req.ResponseTainting == TaintingCORS:
		response = response.ToFiltered(ResponseTypeCORS)
	case req.ResponseTainting == TaintingOpaque:
		response = response.ToFiltered(ResponseTypeOpaque)
	case response.ResponseType == ResponseTypeDefault:
		response = response.ToFiltered(ResponseTypeBasic)
	}

	nullBodyMethod := req.Method == http.MethodHead || req.Method == http.MethodConnect
	if (isNullBodyStatus(response.Status) || nullBodyMethod) && response.Body != nil {
		// The producer goroutine spawned by http_network_fetch is still
		// writing to this Body concurrently; wait for it to settle before
		// clearing it so ForceEmpty always runs last; otherwise a
		// Finish/Terminate racing after ForceEmpty would either resurrect
		// discarded bytes or strand a waiter in WaitUntilDone forever.
		response.Body.WaitUntilDone()
		response.Body.ForceEmpty()
	}

	return response
}

// fetchEntry implements the public "fetch" algorithm's request-shaping
// steps (§4.1 step 1) ahead of main_fetch: synthesize a default Accept
// header when the caller hasn't set one, favoring the navigation Accept
// value for navigation requests.
func fetchEntry(ctx context.Context, env *fetchEnv, req *Request) *Response {
	if req.Headers.Get("Accept") == "" {
		if req.IsNavigationRequest {
			req.Headers.Set("Accept", navigationAcceptHeader)
		} else {
			req.Headers.Set("Accept", defaultAcceptHeader(req.Type))
		}
	}

	return mainFetch(ctx, env, req, false)
}
