package fetch

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSCache_MatchMethodAndUpdate_LifecycleAndExpiry(t *testing.T) {
	t.Parallel()

	cache := NewCORSCache()
	dest, err := url.Parse("https://api.example.com/resource")
	require.NoError(t, err)
	details := NewCacheRequestDetails(Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}, dest, false)

	assert.False(t, cache.MatchMethod(details, "PUT"), "unknown method must not be live before any approval")

	wasLive := cache.MatchMethodAndUpdate(details, "PUT", time.Hour)
	assert.False(t, wasLive, "first approval was not live beforehand")
	assert.True(t, cache.MatchMethod(details, "PUT"))

	wasLive = cache.MatchMethodAndUpdate(details, "PUT", -time.Second)
	assert.True(t, wasLive, "second call observes the still-live prior entry before overwriting its expiry")
	assert.False(t, cache.MatchMethod(details, "PUT"), "a negative maxAge should expire the entry immediately")
}

func TestCORSCache_MatchHeaderAndUpdate_CaseInsensitive(t *testing.T) {
	t.Parallel()

	cache := NewCORSCache()
	dest, err := url.Parse("https://api.example.com/resource")
	require.NoError(t, err)
	details := NewCacheRequestDetails(Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}, dest, false)

	cache.MatchHeaderAndUpdate(details, "X-Custom-Header", time.Hour)

	assert.True(t, cache.MatchHeader(details, "x-custom-header"))
	assert.True(t, cache.MatchHeader(details, "X-CUSTOM-HEADER"))
	assert.False(t, cache.MatchHeader(details, "x-other-header"))
}

func TestCORSCache_PurgeByDestination(t *testing.T) {
	t.Parallel()

	cache := NewCORSCache()
	dest, err := url.Parse("https://api.example.com/resource")
	require.NoError(t, err)
	other, err := url.Parse("https://api.example.com/other")
	require.NoError(t, err)

	details := NewCacheRequestDetails(Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}, dest, false)
	otherDetails := NewCacheRequestDetails(Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}, other, false)

	cache.MatchMethodAndUpdate(details, "PUT", time.Hour)
	cache.MatchMethodAndUpdate(otherDetails, "PUT", time.Hour)

	cache.PurgeByDestination(dest)

	assert.False(t, cache.MatchMethod(details, "PUT"))
	assert.True(t, cache.MatchMethod(otherDetails, "PUT"), "purging one destination must not affect another")
}

func TestCORSCache_Sweep_RemovesExpiredAndDropsEmptyEntries(t *testing.T) {
	t.Parallel()

	cache := NewCORSCache()
	dest, err := url.Parse("https://api.example.com/resource")
	require.NoError(t, err)
	details := NewCacheRequestDetails(Origin{Kind: OriginTuple, Scheme: "https", Host: "app.example.com"}, dest, false)

	cache.MatchMethodAndUpdate(details, "PUT", -time.Second)
	cache.MatchHeaderAndUpdate(details, "X-Custom", time.Hour)

	swept := cache.Sweep(time.Now())

	assert.Equal(t, 1, swept)
	assert.Equal(t, 1, cache.Len(), "the entry survives because the header approval is still live")
	assert.True(t, cache.MatchHeader(details, "X-Custom"))

	cache.MatchHeaderAndUpdate(details, "X-Custom", -time.Second)
	cache.Sweep(time.Now())
	assert.Equal(t, 0, cache.Len(), "an entry with nothing live left must be dropped entirely")
}
