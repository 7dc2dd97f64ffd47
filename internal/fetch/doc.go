// Package fetch implements the WHATWG Fetch algorithm's core orchestration
// layer: fetch, main_fetch, basic_fetch, http_fetch, http_redirect_fetch,
// http_network_or_cache_fetch, http_network_fetch, cors_preflight_fetch,
// and the CORS preflight cache they share.
//
// The package is organized around a handful of plain data types —
// Request, Response, Body, Origin — and a set of recursive functions that
// pass them by pointer. None of those functions return a Go error:
// algorithmic failure is represented by the network-error sentinel
// Response returned from NetworkError, exactly as the standard specifies
// (see errors.go for why). Ambient concerns — transport, persistent
// caching, configuration — are expressed as small interfaces (Connector,
// CacheStore) so the algorithm itself stays testable against fakes;
// concrete implementations live under internal/fetch/connector and
// internal/fetch/cache.
//
// Engine is the package's composition root: construct one with NewEngine
// and call Fetch, FetchSynchronous, or FetchAsync.
package fetch
