package fetch

// Mode controls how main_fetch dispatches and what the final response
// filter hides from the caller.
type Mode int

const (
	ModeSameOrigin Mode = iota
	ModeCORS
	ModeNoCORS
	ModeNavigate
)

func (m Mode) String() string {
	switch m {
	case ModeSameOrigin:
		return "same-origin"
	case ModeCORS:
		return "cors"
	case ModeNoCORS:
		return "no-cors"
	case ModeNavigate:
		return "navigate"
	default:
		return "unknown"
	}
}

// CredentialsMode controls whether credentials (cookies, HTTP auth) are
// attached to the request.
type CredentialsMode int

const (
	CredentialsOmit CredentialsMode = iota
	CredentialsSameOrigin
	CredentialsInclude
)

func (c CredentialsMode) String() string {
	switch c {
	case CredentialsOmit:
		return "omit"
	case CredentialsSameOrigin:
		return "same-origin"
	case CredentialsInclude:
		return "include"
	default:
		return "unknown"
	}
}

// CacheMode selects the HTTP cache interaction strategy applied by
// http_network_or_cache_fetch.
type CacheMode int

const (
	CacheDefault CacheMode = iota
	CacheNoStore
	CacheReload
	CacheNoCache
	CacheForceCache
	CacheOnlyIfCached
)

func (c CacheMode) String() string {
	switch c {
	case CacheDefault:
		return "default"
	case CacheNoStore:
		return "no-store"
	case CacheReload:
		return "reload"
	case CacheNoCache:
		return "no-cache"
	case CacheForceCache:
		return "force-cache"
	case CacheOnlyIfCached:
		return "only-if-cached"
	default:
		return "unknown"
	}
}

// RedirectMode controls how http_fetch reacts to a 3xx response.
type RedirectMode int

const (
	RedirectFollow RedirectMode = iota
	RedirectError
	RedirectManual
)

func (r RedirectMode) String() string {
	switch r {
	case RedirectFollow:
		return "follow"
	case RedirectError:
		return "error"
	case RedirectManual:
		return "manual"
	default:
		return "unknown"
	}
}

// ResponseTainting labels how cross-origin the in-flight request is
// considered, which determines the filter main_fetch applies to the final
// response. It only ever escalates within a single fetch: Basic → CORS →
// Opaque, never the reverse (§3 invariant).
type ResponseTainting int

const (
	TaintingBasic ResponseTainting = iota
	TaintingCORS
	TaintingOpaque
)

func (t ResponseTainting) String() string {
	switch t {
	case TaintingBasic:
		return "basic"
	case TaintingCORS:
		return "cors"
	case TaintingOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// RequestType informs the default Accept header synthesized at the fetch
// entry point.
type RequestType int

const (
	TypeNone RequestType = iota
	TypeImage
	TypeStyle
	TypeScript
)

func (t RequestType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeImage:
		return "image"
	case TypeStyle:
		return "style"
	case TypeScript:
		return "script"
	default:
		return "unknown"
	}
}

// WindowKind distinguishes the three shapes a Request's window field may
// take. Window(w) is represented by WindowHandle plus a non-nil handle;
// the fetch core treats the handle opaquely.
type WindowKind int

const (
	WindowNone WindowKind = iota
	WindowClient
	WindowHandle
)

// Window represents the request's client window association. NewRequest
// sets WindowClient; the entry point (fetch) does not replace it with a
// WindowHandle, so a request keeps the Window its caller gave it.
type Window struct {
	Kind   WindowKind
	Handle any
}

// OriginKind distinguishes the "client" placeholder origin from a concrete
// tuple origin.
type OriginKind int

const (
	OriginClient OriginKind = iota
	OriginTuple
	OriginOpaque
)

// Origin is a simplified tuple origin: scheme, host, and port. Two origins
// are equal (same-origin) when all three fields match; an OriginOpaque
// origin is never equal to anything, including another opaque origin,
// matching the Fetch/URL standard's "opaque origin" semantics.
type Origin struct {
	Kind   OriginKind
	Scheme string
	Host   string
	Port   string
	// opaqueTag is not set anywhere in this package; SameOrigin's Kind
	// check is what keeps two opaque origins from matching.
	opaqueTag uint64
}

// ClientOrigin returns the placeholder origin used before a Request has
// been associated with a concrete client.
func ClientOrigin() Origin {
	return Origin{Kind: OriginClient}
}

// SameOrigin reports whether two tuple origins match. Per the URL standard,
// opaque origins are never same-origin with anything.
func (o Origin) SameOrigin(other Origin) bool {
	if o.Kind != OriginTuple || other.Kind != OriginTuple {
		return false
	}
	return o.Scheme == other.Scheme && o.Host == other.Host && o.Port == other.Port
}

// ASCIISerialization renders a tuple origin the way an Origin header would,
// e.g. "https://example.com" or "https://example.com:8443". Opaque and
// client origins serialize to "null".
func (o Origin) ASCIISerialization() string {
	if o.Kind != OriginTuple {
		return "null"
	}
	if o.Port == "" {
		return o.Scheme + "://" + o.Host
	}
	return o.Scheme + "://" + o.Host + ":" + o.Port
}

// RefererKind distinguishes the three shapes a Request's referer field may
// take.
type RefererKind int

const (
	RefererNone RefererKind = iota
	RefererClient
	RefererURL
)

// Referer models the request's referer policy input. RefererClient is only
// valid before the entry point resolves it; seeing it inside
// http_network_or_cache_fetch is a programmer error (§4.3).
type Referer struct {
	Kind RefererKind
	URL  string
}
