// Package memory provides an in-process fetch.CacheStore backed by a
// mutex-guarded map. It is the default store for embedders that don't
// need the persistent HTTP cache to survive a restart. internal/fetch's own
// tests do not use it (this package imports internal/fetch); they use a
// fake store of their own.
package memory

import (
	"context"
	"sync"

	"fetchcore/internal/fetch"
)

// Store implements fetch.CacheStore with an in-memory map. Safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[fetch.CacheKey]*fetch.CachedResponse
}

// New returns an empty in-memory cache store.
func New() *Store {
	return &Store{entries: make(map[fetch.CacheKey]*fetch.CachedResponse)}
}

// Lookup implements fetch.CacheStore.
func (s *Store) Lookup(_ context.Context, key fetch.CacheKey) (*fetch.CachedResponse, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return cloneEntry(entry), true, nil
}

// Store implements fetch.CacheStore.
func (s *Store) Store(_ context.Context, key fetch.CacheKey, resp *fetch.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = cloneEntry(resp)
	return nil
}

// cloneEntry deep-copies the Body slice and Headers map so neither the
// caller nor the store can mutate the other's view of an entry: a
// shallow struct copy would leave both pointing at the same backing
// array/map.
func cloneEntry(entry *fetch.CachedResponse) *fetch.CachedResponse {
	clone := *entry

	if entry.Body != nil {
		clone.Body = make([]byte, len(entry.Body))
		copy(clone.Body, entry.Body)
	}

	if entry.Headers != nil {
		clone.Headers = entry.Headers.Clone()
	}

	return &clone
}

// Len reports the number of entries currently cached, exposed for tests
// and metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
