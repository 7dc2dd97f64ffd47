package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CachedResponse is the subset of a Response that survives into the
// persistent HTTP cache: enough to reconstruct a Response on a hit, or to
// revalidate with conditional headers on a stale hit (§4.3's "notional
// HTTP cache").
type CachedResponse struct {
	URL        *url.URL
	Status     int
	Headers    http.Header
	Body       []byte
	ETag       string
	LastModified string
	StoredAt   time.Time
	Expiry     time.Time
}

// Stale reports whether the cached entry's freshness lifetime has already
// elapsed as of now.
func (c *CachedResponse) Stale(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// CacheKey identifies a cacheable request by method and URL. The Fetch
// standard's HTTP cache is keyed more richly (Vary headers, etc.); this
// engine's notional cache only needs enough to satisfy cache_mode
// dispatch (§4.3), and a concrete CacheStore is free to key more
// precisely internally.
type CacheKey struct {
	Method string
	URL    string
}

// CacheStore is the persistent HTTP cache collaborator consumed by
// http_network_or_cache_fetch (§4.3). The core treats it as
// interface-only (§6); concrete implementations (in-memory, Postgres)
// live in internal/fetch/cache (§10).
type CacheStore interface {
	Lookup(ctx context.Context, key CacheKey) (*CachedResponse, bool, error)
	Store(ctx context.Context, key CacheKey, resp *CachedResponse) error
}
