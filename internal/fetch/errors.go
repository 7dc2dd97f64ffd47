package fetch

import "errors"

// Sentinel errors for the ambient layers around the fetch algorithm: config
// loading, connector construction, and cache store I/O. The five algorithmic
// fetch functions themselves never return one of these — per the Fetch
// standard, algorithmic failure collapses to a network error Response
// (ResponseTypeError), not a Go error. See NetworkError.
var (
	// ErrInvalidConfig indicates a FetchEngineConfig failed validation.
	ErrInvalidConfig = errors.New("invalid fetch engine configuration")

	// ErrConnectorUnavailable indicates the configured connector could not be
	// constructed or is refusing new work (e.g. circuit breaker open).
	ErrConnectorUnavailable = errors.New("fetch connector unavailable")

	// ErrCacheStoreUnavailable indicates the persistent HTTP cache store
	// could not service a read or write.
	ErrCacheStoreUnavailable = errors.New("cache store unavailable")

	// ErrNoLocationHeader indicates a redirect status had no Location header;
	// per §4.2 this terminates redirect handling rather than erroring.
	ErrNoLocationHeader = errors.New("redirect response has no Location header")
)
