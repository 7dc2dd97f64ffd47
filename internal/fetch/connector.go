package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ConnectorRequest is the wire-level request http_network_fetch and CORS
// preflight dispatch submit to a Connector. It carries no fetch-algorithm
// state (redirect mode, tainting, …): by the time a ConnectorRequest is
// built, all of that has already been resolved into a concrete
// method/URL/header/body tuple (§6).
type ConnectorRequest struct {
	URL     *url.URL
	Method  string
	Headers http.Header
	Body    []byte
}

// ConnectorResponse is the wire-level response a Connector reports back.
// Body is a live stream; the caller (http_network_fetch) is responsible
// for reading it to EOF and closing it.
type ConnectorResponse struct {
	URL        *url.URL
	Status     int
	Headers    http.Header
	Body       io.ReadCloser
	HTTPSState HTTPSState
}

// Connector is the low-level transport collaborator consumed by
// http_network_fetch (§4.3) and cors_preflight_fetch (§4.4). The fetch
// core treats it as an interface-only external per §6; a concrete
// implementation lives in internal/fetch/connector (§10).
type Connector interface {
	// ObtainResponse performs one HTTP round trip. It must not follow
	// redirects itself — redirect policy belongs entirely to
	// http_redirect_fetch — and must respect ctx cancellation by aborting
	// the in-flight request and returning ctx.Err() (or a wrapped form of
	// it).
	ObtainResponse(ctx context.Context, req *ConnectorRequest) (*ConnectorResponse, error)
}
