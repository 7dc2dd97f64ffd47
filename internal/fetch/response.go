package fetch

import (
	"net/http"
	"net/url"
)

// ResponseType tags how a Response has been filtered for the caller.
// Default is the unfiltered shape a loader produces; the other variants
// are projections produced by ToFiltered.
type ResponseType int

const (
	ResponseTypeDefault ResponseType = iota
	ResponseTypeBasic
	ResponseTypeCORS
	ResponseTypeOpaque
	ResponseTypeOpaqueRedirect
	ResponseTypeError
)

func (t ResponseType) String() string {
	switch t {
	case ResponseTypeDefault:
		return "default"
	case ResponseTypeBasic:
		return "basic"
	case ResponseTypeCORS:
		return "cors"
	case ResponseTypeOpaque:
		return "opaque"
	case ResponseTypeOpaqueRedirect:
		return "opaque-redirect"
	case ResponseTypeError:
		return "error"
	default:
		return "unknown"
	}
}

// HTTPSState records the TLS posture of the connection that produced a
// response, propagated from the connector (§4.3).
type HTTPSState int

const (
	HTTPSStateNone HTTPSState = iota
	HTTPSStateDeprecated
	HTTPSStateModern
)

// Response models a fetched response. A "network error" is the sentinel
// produced by NetworkError: ResponseType = ResponseTypeError and every
// other field left at its zero value (§3, §7). Filtered responses
// (produced by ToFiltered) keep a pointer to the unfiltered
// InternalResponse so algorithmic code can keep inspecting the real
// headers/status/body while callers see only the filtered projection
// (DESIGN NOTES: "avoid a subclass hierarchy").
type Response struct {
	URL              *url.URL
	Status           int
	Headers          http.Header
	Body             *Body
	URLList          []*url.URL
	ResponseType     ResponseType
	HTTPSState       HTTPSState
	CacheState       string

	// InternalResponse is nil on an unfiltered (Default) response; set by
	// ToFiltered to point back at the response being filtered.
	InternalResponse *Response
}

// NetworkError returns the sentinel Response representing algorithmic
// failure. Every sub-algorithm that fails — CORS mismatch, excessive
// redirects, I/O failure, disallowed preflight outcome — returns this
// value rather than a Go error (§7).
func NetworkError() *Response {
	return &Response{
		ResponseType: ResponseTypeError,
		Headers:      make(http.Header),
		Body:         NewBody(),
	}
}

// IsNetworkError reports whether r is the network-error sentinel. Callers
// must check this before extracting any other field, matching the "callers
// check is_network_error() before extracting fields" propagation rule
// (§7).
func (r *Response) IsNetworkError() bool {
	return r != nil && r.ResponseType == ResponseTypeError
}

// ToFiltered wraps r in a new Response tagged with responseType, whose
// header/body visibility is determined by the projection rules below. The
// returned response's InternalResponse points at r so algorithmic code
// (redirect handling, cors_check) can keep consulting the real response.
func (r *Response) ToFiltered(responseType ResponseType) *Response {
	if r.IsNetworkError() {
		return r
	}

	filtered := &Response{
		URL:              r.URL,
		Status:           r.Status,
		URLList:          r.URLList,
		ResponseType:     responseType,
		HTTPSState:       r.HTTPSState,
		CacheState:       r.CacheState,
		InternalResponse: r,
	}

	switch responseType {
	case ResponseTypeBasic:
		// Basic: hide only Set-Cookie / Set-Cookie2, expose the rest.
		filtered.Headers = filterHeaders(r.Headers, basicHiddenHeaders)
		filtered.Body = r.Body
	case ResponseTypeCORS:
		// CORS: expose only the headers the server allow-listed via
		// Access-Control-Expose-Headers, plus the always-simple set.
		filtered.Headers = filterCORSHeaders(r.Headers)
		filtered.Body = r.Body
	case ResponseTypeOpaque:
		// Opaque: status is forced to 0, headers and body are hidden.
		filtered.Status = 0
		filtered.Headers = make(http.Header)
		filtered.Body = NewBody()
		filtered.Body.ForceEmpty()
		filtered.URL = nil
		filtered.URLList = nil
	case ResponseTypeOpaqueRedirect:
		// Opaque-redirect: only status 0/type is exposed, everything else
		// hidden, matching a manual-redirect caller's expectations.
		filtered.Status = 0
		filtered.Headers = make(http.Header)
		filtered.Body = NewBody()
		filtered.Body.ForceEmpty()
	default:
		filtered.Headers = r.Headers
		filtered.Body = r.Body
	}

	return filtered
}

var basicHiddenHeaders = map[string]struct{}{
	"Set-Cookie":  {},
	"Set-Cookie2": {},
}

func filterHeaders(h http.Header, hidden map[string]struct{}) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if _, ok := hidden[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

// corsAlwaysExposedHeaders are exposed on a CORS-filtered response even
// without an explicit Access-Control-Expose-Headers entry, mirroring the
// standard's always-safelisted response headers.
var corsAlwaysExposedHeaders = map[string]struct{}{
	"Cache-Control":    {},
	"Content-Language": {},
	"Content-Length":   {},
	"Content-Type":     {},
	"Expires":          {},
	"Last-Modified":    {},
	"Pragma":           {},
}

func filterCORSHeaders(h http.Header) http.Header {
	exposed := make(map[string]struct{}, len(corsAlwaysExposedHeaders))
	for k := range corsAlwaysExposedHeaders {
		exposed[k] = struct{}{}
	}
	for _, name := range splitCommaList(h.Get("Access-Control-Expose-Headers")) {
		exposed[http.CanonicalHeaderKey(name)] = struct{}{}
	}

	out := make(http.Header, len(exposed))
	for k, v := range h {
		if _, ok := exposed[k]; ok {
			out[k] = v
		}
	}
	return out
}
