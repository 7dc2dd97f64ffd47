package fetch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlFetchConfig mirrors FetchEngineConfig for file-based configuration.
// Durations are strings on the wire (e.g. "30s") since yaml.v3 has no
// native time.Duration support, then parsed the same way LoadConfigFromEnv
// parses its FETCH_* counterparts.
type yamlFetchConfig struct {
	Fetch struct {
		MaxRedirects           int    `yaml:"max_redirects"`
		RequestTimeout         string `yaml:"request_timeout"`
		MaxResponseBodyBytes   int64  `yaml:"max_response_body_bytes"`
		UserAgent              string `yaml:"user_agent"`
		DefaultPreflightMaxAge string `yaml:"default_preflight_max_age"`
		CORSCacheSweepInterval string `yaml:"cors_cache_sweep_interval"`
	} `yaml:"fetch"`
}

// LoadConfigFromFile loads a FetchEngineConfig from a YAML file, falling
// back to DefaultConfig for any field the file omits, and validates the
// result. The path is expected to come from a trusted source (a CLI flag
// or a hardcoded deployment default), not user input.
func LoadConfigFromFile(path string) (FetchEngineConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by trusted source, not user input
	if err != nil {
		return cfg, fmt.Errorf("failed to read fetch config file: %w", err)
	}

	var parsed yamlFetchConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return cfg, fmt.Errorf("failed to parse fetch config file: %w", err)
	}

	if parsed.Fetch.MaxRedirects != 0 {
		cfg.MaxRedirects = parsed.Fetch.MaxRedirects
	}
	if parsed.Fetch.RequestTimeout != "" {
		d, err := time.ParseDuration(parsed.Fetch.RequestTimeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid fetch.request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if parsed.Fetch.MaxResponseBodyBytes != 0 {
		cfg.MaxResponseBodyBytes = parsed.Fetch.MaxResponseBodyBytes
	}
	if parsed.Fetch.UserAgent != "" {
		cfg.UserAgent = parsed.Fetch.UserAgent
	}
	if parsed.Fetch.DefaultPreflightMaxAge != "" {
		d, err := time.ParseDuration(parsed.Fetch.DefaultPreflightMaxAge)
		if err != nil {
			return cfg, fmt.Errorf("invalid fetch.default_preflight_max_age: %w", err)
		}
		cfg.DefaultPreflightMaxAge = d
	}
	if parsed.Fetch.CORSCacheSweepInterval != "" {
		d, err := time.ParseDuration(parsed.Fetch.CORSCacheSweepInterval)
		if err != nil {
			return cfg, fmt.Errorf("invalid fetch.cors_cache_sweep_interval: %w", err)
		}
		cfg.CORSCacheSweepInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
