// Package connector provides the default Connector implementation that
// dispatches http_network_fetch's wire-level round trips over a real
// net/http.Client, guarded by a circuit breaker and rate limiter per
// destination host and a bounded retry for transient connection failures.
package connector

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fetchcore/internal/fetch"
	"fetchcore/internal/resilience/circuitbreaker"
	"fetchcore/internal/resilience/retry"

	"golang.org/x/time/rate"
)

// ErrRedirectSuppressed is returned by the underlying http.Client's
// CheckRedirect hook. http_redirect_fetch, not net/http, owns redirect
// policy (§4.2), so the connector's client must never follow one itself.
var ErrRedirectSuppressed = fmt.Errorf("connector: redirects are handled by http_redirect_fetch, not net/http")

// HTTPConnector implements fetch.Connector over a shared *http.Client. It
// keeps one circuit breaker and one rate limiter per destination host,
// created lazily on first use, so a single misbehaving host can trip
// without affecting fetches to every other host.
type HTTPConnector struct {
	client *http.Client

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
	limiters map[string]*rate.Limiter

	// RequestsPerSecond and Burst configure the per-host rate limiter
	// created for each new destination host. Zero RequestsPerSecond
	// disables rate limiting entirely.
	RequestsPerSecond float64
	Burst             int
}

// NewHTTPConnector builds an HTTPConnector with sane defaults: TLS 1.2
// minimum, connection pooling, no automatic redirects, and a 10 req/s,
// burst-20 per-host rate limit.
func NewHTTPConnector(timeout time.Duration) *HTTPConnector {
	c := &HTTPConnector{
		breakers:          make(map[string]*circuitbreaker.CircuitBreaker),
		limiters:          make(map[string]*rate.Limiter),
		RequestsPerSecond: 10,
		Burst:             20,
	}

	c.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return ErrRedirectSuppressed
		},
	}

	return c
}

// ObtainResponse implements fetch.Connector.
func (c *HTTPConnector) ObtainResponse(ctx context.Context, req *fetch.ConnectorRequest) (*fetch.ConnectorResponse, error) {
	host := req.URL.Hostname()

	if err := c.limiterFor(host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("connector: rate limit wait: %w", err)
	}

	breaker := c.breakerFor(host)

	result, err := breaker.Execute(func() (interface{}, error) {
		var resp *fetch.ConnectorResponse
		retryErr := retry.WithBackoff(ctx, retry.HTTPConnectorConfig(), func() error {
			var doErr error
			resp, doErr = c.doRequest(ctx, req)
			return doErr
		})
		return resp, retryErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fetch.ErrConnectorUnavailable, host, err)
	}

	return result.(*fetch.ConnectorResponse), nil
}

func (c *HTTPConnector) doRequest(ctx context.Context, req *fetch.ConnectorRequest) (*fetch.ConnectorResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	httpReq.Header = req.Headers.Clone()

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	httpsState := fetch.HTTPSStateNone
	if httpResp.TLS != nil {
		httpsState = fetch.HTTPSStateModern
	}

	return &fetch.ConnectorResponse{
		URL:        httpResp.Request.URL,
		Status:     httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       httpResp.Body,
		HTTPSState: httpsState,
	}, nil
}

func (c *HTTPConnector) breakerFor(host string) *circuitbreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[host]; ok {
		return b
	}
	b := circuitbreaker.New(circuitbreaker.HTTPConnectorConfig(host))
	c.breakers[host] = b
	return b
}

func (c *HTTPConnector) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[host]; ok {
		return l
	}
	if c.RequestsPerSecond <= 0 {
		l := rate.NewLimiter(rate.Inf, 0)
		c.limiters[host] = l
		return l
	}
	l := rate.NewLimiter(rate.Limit(c.RequestsPerSecond), c.Burst)
	c.limiters[host] = l
	return l
}
