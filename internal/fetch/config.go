package fetch

import (
	"fmt"
	"os"
	"strconv"
	"time"

	pkgconfig "fetchcore/pkg/config"
)

// FetchEngineConfig holds the ambient tuning knobs around the fetch
// algorithm. http_redirect_fetch reads MaxRedirects, and the network layers
// read UserAgent and MaxResponseBodyBytes; RequestTimeout and
// CORSCacheSweepInterval are handed by the embedder to the connector and
// the CORS cache sweeper. DefaultPreflightMaxAge is validated and loaded
// but not read by the engine.
type FetchEngineConfig struct {
	// MaxRedirects caps redirect_count. The Fetch standard fixes this at 20;
	// this field lets an embedder tighten it further but never loosen it.
	// Default: 20
	MaxRedirects int

	// RequestTimeout bounds a single network round trip performed by the
	// connector (including preflight dispatch). The fetch core itself does
	// not enforce timeouts (§5); this is passed through to the connector.
	// Default: 30s
	RequestTimeout time.Duration

	// MaxResponseBodyBytes caps how much of a response body the network
	// fetch reader will buffer before treating the stream as a fatal
	// termination. Default: 10MB
	MaxResponseBodyBytes int64

	// UserAgent is the platform UA string synthesized onto outgoing
	// requests per §4.3 when the caller did not set one.
	// Default: "fetchcore/1.0"
	UserAgent string

	// DefaultPreflightMaxAge is validated and loaded from the environment or
	// a config file, but the engine does not read it: a preflight response
	// that omits Access-Control-Max-Age is cached with a max-age of 0.
	// Default: 5s
	DefaultPreflightMaxAge time.Duration

	// CORSCacheSweepInterval controls how often the housekeeping sweeper
	// (Engine.StartCORSCacheSweeper in sweeper.go) evicts expired CORS
	// cache entries. This is purely a memory-bound concern; lazy
	// expiry-on-read (§4.6) is correct without it. Default: 5m
	CORSCacheSweepInterval time.Duration
}

// DefaultConfig returns the default fetch engine configuration.
func DefaultConfig() FetchEngineConfig {
	return FetchEngineConfig{
		MaxRedirects:           20,
		RequestTimeout:         30 * time.Second,
		MaxResponseBodyBytes:   10 * 1024 * 1024,
		UserAgent:              "fetchcore/1.0",
		DefaultPreflightMaxAge: 5 * time.Second,
		CORSCacheSweepInterval: 5 * time.Minute,
	}
}

// Validate checks that the configuration values are sane. MaxRedirects may
// not exceed the spec's hard ceiling of 20; it may be tightened down to 0.
func (c *FetchEngineConfig) Validate() error {
	if c.MaxRedirects < 0 || c.MaxRedirects > maxRedirectCount {
		return fmt.Errorf("%w: max redirects must be between 0 and %d, got %d", ErrInvalidConfig, maxRedirectCount, c.MaxRedirects)
	}

	if err := pkgconfig.ValidatePositiveDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("%w: request timeout: %v", ErrInvalidConfig, err)
	}

	minBodySize := int64(1024)
	maxBodySize := int64(1024 * 1024 * 1024)
	if c.MaxResponseBodyBytes < minBodySize || c.MaxResponseBodyBytes > maxBodySize {
		return fmt.Errorf("%w: max response body bytes must be between %d and %d, got %d", ErrInvalidConfig, minBodySize, maxBodySize, c.MaxResponseBodyBytes)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("%w: user agent must not be empty", ErrInvalidConfig)
	}

	if err := pkgconfig.ValidateNonNegativeDuration(c.DefaultPreflightMaxAge); err != nil {
		return fmt.Errorf("%w: default preflight max age: %v", ErrInvalidConfig, err)
	}

	if err := pkgconfig.ValidatePositiveDuration(c.CORSCacheSweepInterval); err != nil {
		return fmt.Errorf("%w: CORS cache sweep interval: %v", ErrInvalidConfig, err)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from FETCH_* environment variables,
// falling back to DefaultConfig for anything unset, and validates the result.
//
// Environment variables:
//   - FETCH_MAX_REDIRECTS: integer (default: 20)
//   - FETCH_REQUEST_TIMEOUT: duration string, e.g. "30s" (default: 30s)
//   - FETCH_MAX_RESPONSE_BODY_BYTES: integer in bytes (default: 10485760)
//   - FETCH_USER_AGENT: string (default: "fetchcore/1.0")
//   - FETCH_DEFAULT_PREFLIGHT_MAX_AGE: duration string (default: 5s)
//   - FETCH_CORS_CACHE_SWEEP_INTERVAL: duration string (default: 5m)
func LoadConfigFromEnv() (FetchEngineConfig, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_REDIRECTS: %w", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("FETCH_REQUEST_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_REQUEST_TIMEOUT: %w (expected format: '30s', '1m')", err)
		}
		cfg.RequestTimeout = parsed
	}

	if val := os.Getenv("FETCH_MAX_RESPONSE_BODY_BYTES"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_MAX_RESPONSE_BODY_BYTES: %w", err)
		}
		cfg.MaxResponseBodyBytes = parsed
	}

	cfg.UserAgent = pkgconfig.GetEnvString("FETCH_USER_AGENT", cfg.UserAgent)

	if val := os.Getenv("FETCH_DEFAULT_PREFLIGHT_MAX_AGE"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_DEFAULT_PREFLIGHT_MAX_AGE: %w", err)
		}
		cfg.DefaultPreflightMaxAge = parsed
	}

	if val := os.Getenv("FETCH_CORS_CACHE_SWEEP_INTERVAL"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_CORS_CACHE_SWEEP_INTERVAL: %w", err)
		}
		cfg.CORSCacheSweepInterval = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
