package fetch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRedirectStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{301, 302, 303, 307, 308} {
		assert.True(t, isRedirectStatus(status))
	}
	assert.False(t, isRedirectStatus(200))
	assert.False(t, isRedirectStatus(404))
}

func TestActualResponseOf_UnwrapsFiltered(t *testing.T) {
	t.Parallel()

	unfiltered := newBasicResponse(t, 200, http.Header{}, nil)
	filtered := unfiltered.ToFiltered(ResponseTypeBasic)

	assert.Same(t, unfiltered, actualResponseOf(filtered))
	assert.Same(t, unfiltered, actualResponseOf(unfiltered))
}

func TestHTTPFetch_SimpleRequestSkipsPreflight(t *testing.T) {
	t.Parallel()

	headers := http.Header{
		"Content-Type":                {"application/json"},
		"Access-Control-Allow-Origin": {"https://app.example.com"},
	}
	connector := staticConnector(200, headers, []byte(`{}`))
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.Mode = ModeCORS
	req.ResponseTainting = TaintingCORS
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Equal(t, 1, connector.requestCount(), "a simple GET request needs no preflight round trip")
}

func TestHTTPFetch_NonSimpleMethodDispatchesPreflightThenRealRequest(t *testing.T) {
	t.Parallel()

	requests := 0
	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			requests++
			if req.Method == http.MethodOptions {
				return connectorResponse(req, 204, http.Header{
					"Access-Control-Allow-Origin":  {"https://app.example.com"},
					"Access-Control-Allow-Methods": {"PUT"},
				}, nil), nil
			}
			return connectorResponse(req, 200, http.Header{
				"Access-Control-Allow-Origin": {"https://app.example.com"},
			}, []byte("updated")), nil
		},
	}
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.Method = http.MethodPut
	req.Mode = ModeCORS
	req.ResponseTainting = TaintingCORS
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Equal(t, 2, requests, "non-simple method requires a preflight before the real request")

	details := NewCacheRequestDetails(origin, req.CurrentURL(), false)
	assert.True(t, env.corsCache.MatchMethod(details, "PUT"))
}

func TestHTTPFetch_PreflightedRequestForcesRedirectModeError(t *testing.T) {
	t.Parallel()

	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			if req.Method == http.MethodOptions {
				return connectorResponse(req, 204, http.Header{
					"Access-Control-Allow-Origin":  {"https://app.example.com"},
					"Access-Control-Allow-Methods": {"PUT"},
				}, nil), nil
			}
			return connectorResponse(req, 302, http.Header{
				"Access-Control-Allow-Origin": {"https://app.example.com"},
				"Location":                     {"https://api.example.com/moved"},
			}, nil), nil
		},
	}
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.Method = http.MethodPut
	req.Mode = ModeCORS
	req.ResponseTainting = TaintingCORS
	req.Referer = Referer{Kind: RefererNone}
	require.Equal(t, RedirectFollow, req.RedirectMode, "caller never set a redirect mode")

	resp := httpFetch(context.Background(), env, req)

	assert.True(t, resp.IsNetworkError(), "a preflighted request must error on redirect, not follow it")
	assert.Equal(t, RedirectError, req.RedirectMode)
}

func TestHTTPFetch_PreflightAlreadyApprovedSkipsSecondPreflight(t *testing.T) {
	t.Parallel()

	requests := 0
	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			requests++
			if req.Method == http.MethodOptions {
				return connectorResponse(req, 204, http.Header{
					"Access-Control-Allow-Origin":  {"https://app.example.com"},
					"Access-Control-Allow-Methods": {"PUT"},
				}, nil), nil
			}
			return connectorResponse(req, 200, http.Header{
				"Access-Control-Allow-Origin": {"https://app.example.com"},
			}, nil), nil
		},
	}
	env := newTestEnv(connector, nil)
	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}

	req1 := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req1.Method = http.MethodPut
	req1.Mode = ModeCORS
	req1.ResponseTainting = TaintingCORS
	req1.Referer = Referer{Kind: RefererNone}
	httpFetch(context.Background(), env, req1)
	require.Equal(t, 2, requests)

	req2 := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req2.Method = http.MethodPut
	req2.Mode = ModeCORS
	req2.ResponseTainting = TaintingCORS
	req2.Referer = Referer{Kind: RefererNone}
	httpFetch(context.Background(), env, req2)

	assert.Equal(t, 3, requests, "a second call with the same method should skip preflight, adding only the real request")
}

func TestHTTPFetch_CORSCheckFailurePurgesCache(t *testing.T) {
	t.Parallel()

	connector := staticConnector(200, http.Header{}, []byte("body"))
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.Mode = ModeCORS
	req.ResponseTainting = TaintingCORS
	req.Referer = Referer{Kind: RefererNone}

	details := NewCacheRequestDetails(origin, req.CurrentURL(), false)
	env.corsCache.MatchMethodAndUpdate(details, http.MethodGet, time.Hour)

	resp := httpFetch(context.Background(), env, req)

	assert.True(t, resp.IsNetworkError())
	assert.False(t, env.corsCache.MatchMethod(details, http.MethodGet), "a CORS check failure must purge any stale approval for this destination")
}

func TestHTTPFetch_RedirectModeError(t *testing.T) {
	t.Parallel()

	headers := http.Header{"Location": {"https://api.example.com/next"}}
	connector := staticConnector(302, headers, nil)
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "api.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.RedirectMode = RedirectError
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	assert.True(t, resp.IsNetworkError())
}

func TestHTTPFetch_RedirectModeManualReturnsOpaqueRedirect(t *testing.T) {
	t.Parallel()

	headers := http.Header{"Location": {"https://api.example.com/next"}}
	connector := staticConnector(302, headers, nil)
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "api.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.RedirectMode = RedirectManual
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Equal(t, ResponseTypeOpaqueRedirect, resp.ResponseType)
	assert.Equal(t, 0, resp.Status)
}

func TestHTTPFetch_RedirectModeFollowFollowsToFinalResponse(t *testing.T) {
	t.Parallel()

	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			if req.URL.Path == "/start" {
				return connectorResponse(req, 302, http.Header{"Location": {"/final"}}, nil), nil
			}
			return connectorResponse(req, 200, http.Header{"Content-Type": {"text/plain"}}, []byte("arrived")), nil
		},
	}
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "api.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/start"), origin, false)
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Equal(t, "arrived", string(resp.Body.WaitUntilDone()))
	assert.Len(t, req.URLList, 2)
	assert.Equal(t, "/final", req.CurrentURL().Path)
}

func TestHTTPRedirectFetch_RewritesPOSTToGETOn303(t *testing.T) {
	t.Parallel()

	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			if req.URL.Path == "/submit" {
				assert.Equal(t, http.MethodPost, req.Method)
				return connectorResponse(req, 303, http.Header{"Location": {"/result"}}, nil), nil
			}
			assert.Equal(t, http.MethodGet, req.Method, "303 must rewrite a POST redirect to GET")
			return connectorResponse(req, 200, http.Header{}, []byte("done")), nil
		},
	}
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "api.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/submit"), origin, false)
	req.Method = http.MethodPost
	req.HasBody = true
	req.Body = []byte("data")
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Equal(t, http.MethodGet, req.Method)
	assert.False(t, req.HasBody)
}

func TestHTTPRedirectFetch_StripsCredentialHeadersCrossOrigin(t *testing.T) {
	t.Parallel()

	var capturedAuth string
	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			if req.URL.Host == "origin.example.com" {
				return connectorResponse(req, 302, http.Header{"Location": {"https://other.example.com/target"}}, nil), nil
			}
			capturedAuth = req.Headers.Get("Authorization")
			return connectorResponse(req, 200, http.Header{}, []byte("ok")), nil
		},
	}
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "origin.example.com"}
	req := NewRequest(mustParseURL(t, "https://origin.example.com/start"), origin, false)
	req.Headers.Set("Authorization", "Bearer token")
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Empty(t, capturedAuth, "Authorization must be stripped when the redirect crosses origins")
}

func TestHTTPRedirectFetch_MaxRedirectsExceeded(t *testing.T) {
	t.Parallel()

	connector := &fakeConnector{
		handler: func(req *ConnectorRequest) (*ConnectorResponse, error) {
			return connectorResponse(req, 302, http.Header{"Location": {"/loop"}}, nil), nil
		},
	}
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "api.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/loop"), origin, false)
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	assert.True(t, resp.IsNetworkError())
	assert.LessOrEqual(t, req.RedirectCount, maxRedirectCount+1)
}

func TestHTTPRedirectFetch_NoLocationHeaderReturnsResponseUnchanged(t *testing.T) {
	t.Parallel()

	connector := staticConnector(302, http.Header{}, nil)
	env := newTestEnv(connector, nil)

	origin := Origin{Kind: OriginTuple, Scheme: "https", Host: "api.example.com"}
	req := NewRequest(mustParseURL(t, "https://api.example.com/resource"), origin, false)
	req.Referer = Referer{Kind: RefererNone}

	resp := httpFetch(context.Background(), env, req)

	require.False(t, resp.IsNetworkError())
	assert.Equal(t, 302, resp.Status)
}

func TestResolveLocationURL(t *testing.T) {
	t.Parallel()

	current := mustParseURL(t, "https://example.com/a/b#frag")

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		resp := &Response{Headers: http.Header{}}
		got, err := resolveLocationURL(resp, current)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("relative location inherits fragment", func(t *testing.T) {
		t.Parallel()
		resp := &Response{Headers: http.Header{"Location": {"/c"}}}
		got, err := resolveLocationURL(resp, current)
		require.NoError(t, err)
		assert.Equal(t, "/c", got.Path)
		assert.Equal(t, "frag", got.Fragment)
	})

	t.Run("location with its own fragment is preserved", func(t *testing.T) {
		t.Parallel()
		resp := &Response{Headers: http.Header{"Location": {"/c#other"}}}
		got, err := resolveLocationURL(resp, current)
		require.NoError(t, err)
		assert.Equal(t, "other", got.Fragment)
	})

	t.Run("malformed location is an error", func(t *testing.T) {
		t.Parallel()
		resp := &Response{Headers: http.Header{"Location": {"http://[::1"}}}
		_, err := resolveLocationURL(resp, current)
		assert.Error(t, err)
	})
}
