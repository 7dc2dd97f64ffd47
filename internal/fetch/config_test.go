package fetch

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.MaxRedirects)
	assert.Equal(t, "fetchcore/1.0", cfg.UserAgent)
}

func TestConfig_Validate_RejectsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*FetchEngineConfig)
	}{
		{"negative max redirects", func(c *FetchEngineConfig) { c.MaxRedirects = -1 }},
		{"max redirects above ceiling", func(c *FetchEngineConfig) { c.MaxRedirects = maxRedirectCount + 1 }},
		{"zero request timeout", func(c *FetchEngineConfig) { c.RequestTimeout = 0 }},
		{"body limit too small", func(c *FetchEngineConfig) { c.MaxResponseBodyBytes = 1 }},
		{"empty user agent", func(c *FetchEngineConfig) { c.UserAgent = "" }},
		{"negative preflight max age", func(c *FetchEngineConfig) { c.DefaultPreflightMaxAge = -time.Second }},
		{"zero sweep interval", func(c *FetchEngineConfig) { c.CORSCacheSweepInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func clearFetchEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"FETCH_MAX_REDIRECTS",
		"FETCH_REQUEST_TIMEOUT",
		"FETCH_MAX_RESPONSE_BODY_BYTES",
		"FETCH_USER_AGENT",
		"FETCH_DEFAULT_PREFLIGHT_MAX_AGE",
		"FETCH_CORS_CACHE_SWEEP_INTERVAL",
	}
	for _, v := range vars {
		require.NoError(t, os.Unsetenv(v))
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearFetchEnvVars(t)

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnv_OverridesFromEnvironment(t *testing.T) {
	clearFetchEnvVars(t)
	t.Setenv("FETCH_MAX_REDIRECTS", "5")
	t.Setenv("FETCH_REQUEST_TIMEOUT", "10s")
	t.Setenv("FETCH_USER_AGENT", "custom-agent/2.0")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "custom-agent/2.0", cfg.UserAgent)
}

func TestLoadConfigFromEnv_InvalidDurationReturnsError(t *testing.T) {
	clearFetchEnvVars(t)
	t.Setenv("FETCH_REQUEST_TIMEOUT", "not-a-duration")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestLoadConfigFromFile_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeTempYAML(t, `
fetch:
  max_redirects: 3
  request_timeout: 15s
  user_agent: yaml-agent/1.0
`)

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "yaml-agent/1.0", cfg.UserAgent)
	assert.Equal(t, DefaultConfig().MaxResponseBodyBytes, cfg.MaxResponseBodyBytes, "unset fields keep the default")
}

func TestLoadConfigFromFile_InvalidDurationReturnsError(t *testing.T) {
	t.Parallel()

	path := writeTempYAML(t, "fetch:\n  request_timeout: not-a-duration\n")

	_, err := LoadConfigFromFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFromFile_MissingFileReturnsError(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFromFile(t.TempDir() + "/does-not-exist.yaml")
	assert.Error(t, err)
}

func writeTempYAML(t *testing.T, contents string) string {
	t.Helper()
	path := t.TempDir() + "/fetch.yaml"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
