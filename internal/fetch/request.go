package fetch

import (
	"net/http"
	"net/url"
)

// maxRedirectCount is the Fetch standard's hard ceiling on redirect_count.
// FetchEngineConfig.MaxRedirects may tighten this but never loosen it.
const maxRedirectCount = 20

// Request is the single logical owner of an in-flight fetch's mutable
// state. It is passed by pointer through every algorithm layer (fetch,
// main_fetch, http_fetch, http_redirect_fetch, http_network_or_cache_fetch);
// http_network_or_cache_fetch is the one place that deep-clones it, to keep
// header mutations from leaking across redirect hops (§4.3, DESIGN NOTES).
type Request struct {
	URLList []*url.URL
	Method  string
	Headers http.Header
	Body    []byte
	HasBody bool

	Origin  Origin
	Referer Referer

	Mode             Mode
	CredentialsMode  CredentialsMode
	CacheMode        CacheMode
	RedirectMode     RedirectMode
	ResponseTainting ResponseTainting
	Type             RequestType

	UnsafeRequest             bool
	UseCORSPreflight          bool
	UseURLCredentials         bool
	LocalURLsOnly             bool
	Synchronous               bool
	SkipServiceWorker         bool
	IsServiceWorkerGlobalScope bool
	IsSubresourceRequest      bool
	IsNavigationRequest       bool
	OmitOriginHeader          bool
	SameOriginData            bool

	RedirectCount int

	Window Window
}

// NewRequest constructs a Request for the given URL with Fetch-standard
// defaults, per §6's "Request constructor" external interface: URL,
// optional origin, and a service-worker-global-scope flag are the only
// caller-supplied fields; everything else takes its spec default.
func NewRequest(u *url.URL, origin Origin, isServiceWorkerGlobalScope bool) *Request {
	return &Request{
		URLList:                    []*url.URL{u},
		Method:                     http.MethodGet,
		Headers:                    make(http.Header),
		Origin:                     origin,
		Referer:                    Referer{Kind: RefererClient},
		Mode:                       ModeNoCORS,
		CredentialsMode:            CredentialsSameOrigin,
		CacheMode:                  CacheDefault,
		RedirectMode:               RedirectFollow,
		ResponseTainting:           TaintingBasic,
		Type:                       TypeNone,
		IsServiceWorkerGlobalScope: isServiceWorkerGlobalScope,
		Window:                     Window{Kind: WindowClient},
	}
}

// CurrentURL returns the last element of URLList, the URL the algorithm is
// currently operating against. The invariant that this always equals
// URLList's last element (§3) is maintained by construction: only
// AppendURL ever grows URLList.
func (r *Request) CurrentURL() *url.URL {
	return r.URLList[len(r.URLList)-1]
}

// AppendURL grows URLList by one entry, as http_redirect_fetch does on
// every redirect hop (§4.2 step 8).
func (r *Request) AppendURL(u *url.URL) {
	r.URLList = append(r.URLList, u)
}

// Clone performs the deep copy http_network_or_cache_fetch makes before
// header synthesis when the request has a window or a Follow redirect
// mode (§4.3): a fresh URLList slice, a fresh Header map, and a copied body
// buffer, so mutating the clone never affects the original Request that
// keeps recursing through http_redirect_fetch.
func (r *Request) Clone() *Request {
	clone := *r

	clone.URLList = make([]*url.URL, len(r.URLList))
	copy(clone.URLList, r.URLList)

	clone.Headers = make(http.Header, len(r.Headers))
	for k, v := range r.Headers {
		vv := make([]string, len(v))
		copy(vv, v)
		clone.Headers[k] = vv
	}

	if r.HasBody {
		clone.Body = make([]byte, len(r.Body))
		copy(clone.Body, r.Body)
	}

	return &clone
}

// RewriteToGET implements the POST→GET redirect rewrite of §4.2 step 7:
// the method becomes GET and the body is cleared.
func (r *Request) RewriteToGET() {
	r.Method = http.MethodGet
	r.Body = nil
	r.HasBody = false
}

// sameOrigin reports whether the request's origin is a concrete tuple
// origin equal to u's origin, per §4.1 step 2's same_origin computation.
func (r *Request) sameOrigin(u *url.URL) bool {
	if r.Origin.Kind != OriginTuple {
		return false
	}
	return r.Origin.SameOrigin(originOf(u))
}

// originOf derives a tuple Origin from a URL's scheme/host/port, the way
// the URL standard's origin algorithm does for the schemes this engine
// actually dispatches on (http, https; data/about/file report an opaque
// origin since they have no host authority).
func originOf(u *url.URL) Origin {
	switch u.Scheme {
	case "http", "https":
		return Origin{Kind: OriginTuple, Scheme: u.Scheme, Host: u.Hostname(), Port: u.Port()}
	default:
		return Origin{Kind: OriginOpaque}
	}
}

// hasCredentials reports whether u carries a non-empty username or any
// password, per the has_credentials(url) helper (§4.7).
func hasCredentials(u *url.URL) bool {
	if u.User == nil {
		return false
	}
	if u.User.Username() != "" {
		return true
	}
	_, hasPassword := u.User.Password()
	return hasPassword
}
