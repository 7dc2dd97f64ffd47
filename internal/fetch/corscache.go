package fetch

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// CacheRequestDetails is the triple key used by the CORS cache: an origin,
// a destination URL, and whether the request that populated the entry
// carried credentials (§3, §4.6).
type CacheRequestDetails struct {
	Origin        string
	Destination   string
	HasCredentials bool
}

// NewCacheRequestDetails builds a CacheRequestDetails key from a request's
// origin and current URL, matching the key CORS preflight writes under
// (origin, current URL, credentials_mode = Include) (§4.4).
func NewCacheRequestDetails(origin Origin, destination *url.URL, hasCredentials bool) CacheRequestDetails {
	return CacheRequestDetails{
		Origin:         origin.ASCIISerialization(),
		Destination:    destination.String(),
		HasCredentials: hasCredentials,
	}
}

// corsCacheEntry holds the per-method and per-header-name expiries learned
// from one or more successful preflights for a given CacheRequestDetails
// key. Each method/header carries its own expiry so a later preflight that
// only re-approves a subset of methods doesn't reset the clock on the
// others.
type corsCacheEntry struct {
	methods map[string]time.Time
	headers map[string]time.Time
}

// CORSCache is the shared, mutex-guarded preflight memoization table of
// §4.6. It must serialize reads and writes across concurrent fetches (§5).
type CORSCache struct {
	mu      sync.Mutex
	entries map[CacheRequestDetails]*corsCacheEntry
}

// NewCORSCache returns an empty CORS cache.
func NewCORSCache() *CORSCache {
	return &CORSCache{entries: make(map[CacheRequestDetails]*corsCacheEntry)}
}

// MatchMethod reports whether method has a live (unexpired) cache entry
// for details. Method comparison is byte-exact per §4.6.
func (c *CORSCache) MatchMethod(details CacheRequestDetails, method string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[details]
	if !ok {
		return false
	}
	expiry, ok := entry.methods[method]
	return ok && time.Now().Before(expiry)
}

// MatchHeader reports whether name has a live cache entry for details.
// Header names are matched case-insensitively per §4.6.
func (c *CORSCache) MatchHeader(details CacheRequestDetails, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[details]
	if !ok {
		return false
	}
	expiry, ok := entry.headers[strings.ToLower(name)]
	return ok && time.Now().Before(expiry)
}

// MatchMethodAndUpdate upserts method into details' entry, refreshing its
// expiry to now+maxAge, then returns whether it was already live before
// the update.
func (c *CORSCache) MatchMethodAndUpdate(details CacheRequestDetails, method string, maxAge time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.entryLocked(details)
	now := time.Now()
	expiry, wasLive := entry.methods[method]
	live := wasLive && now.Before(expiry)
	entry.methods[method] = now.Add(maxAge)
	return live
}

// MatchHeaderAndUpdate upserts name into details' entry, refreshing its
// expiry to now+maxAge, then returns whether it was already live before
// the update.
func (c *CORSCache) MatchHeaderAndUpdate(details CacheRequestDetails, name string, maxAge time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.entryLocked(details)
	now := time.Now()
	key := strings.ToLower(name)
	expiry, wasLive := entry.headers[key]
	live := wasLive && now.Before(expiry)
	entry.headers[key] = now.Add(maxAge)
	return live
}

func (c *CORSCache) entryLocked(details CacheRequestDetails) *corsCacheEntry {
	entry, ok := c.entries[details]
	if !ok {
		entry = &corsCacheEntry{
			methods: make(map[string]time.Time),
			headers: make(map[string]time.Time),
		}
		c.entries[details] = entry
	}
	return entry
}

// PurgeByDestination removes every cache entry whose destination URL
// matches destination, regardless of origin or credentials. main_fetch
// calls this when a preflighted request ultimately collapses to a network
// error, so a stale approval doesn't outlive the request that earned it
// (§4.1 step 2, §4.6).
func (c *CORSCache) PurgeByDestination(destination *url.URL) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := destination.String()
	for key := range c.entries {
		if key.Destination == target {
			delete(c.entries, key)
		}
	}
}

// Sweep removes every method/header whose expiry has already passed, and
// drops entries left with nothing live. It is pure housekeeping: §4.6's
// expiry-on-read semantics are already correct without ever calling
// Sweep; this only bounds memory growth in long-lived processes (§10's
// corscache cron sweeper).
func (c *CORSCache) Sweep(now time.Time) (swept int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		for m, expiry := range entry.methods {
			if !now.Before(expiry) {
				delete(entry.methods, m)
				swept++
			}
		}
		for h, expiry := range entry.headers {
			if !now.Before(expiry) {
				delete(entry.headers, h)
				swept++
			}
		}
		if len(entry.methods) == 0 && len(entry.headers) == 0 {
			delete(c.entries, key)
		}
	}
	return swept
}

// Len reports the number of distinct (origin, destination, credentials)
// keys currently tracked, exposed for metrics/tests.
func (c *CORSCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
