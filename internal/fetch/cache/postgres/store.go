package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fetchcore/internal/fetch"
	"fetchcore/internal/resilience/retry"
)

// Store implements fetch.CacheStore against a fetch_cache table:
//
//	CREATE TABLE fetch_cache (
//	    method        TEXT NOT NULL,
//	    url           TEXT NOT NULL,
//	    status        INTEGER NOT NULL,
//	    headers       JSONB NOT NULL,
//	    body          BYTEA NOT NULL,
//	    etag          TEXT NOT NULL DEFAULT '',
//	    last_modified TEXT NOT NULL DEFAULT '',
//	    stored_at     TIMESTAMPTZ NOT NULL,
//	    expiry        TIMESTAMPTZ,
//	    PRIMARY KEY (method, url)
//	);
type Store struct {
	db *sql.DB
}

// New wraps db as a fetch.CacheStore.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Lookup implements fetch.CacheStore.
func (s *Store) Lookup(ctx context.Context, key fetch.CacheKey) (*fetch.CachedResponse, bool, error) {
	const query = `
SELECT url, status, headers, body, etag, last_modified, stored_at, expiry
FROM fetch_cache
WHERE method = $1 AND url = $2
LIMIT 1`

	var (
		rawURL       string
		status       int
		headersJSON  []byte
		body         []byte
		etag         string
		lastModified string
		storedAt     time.Time
		expiry       sql.NullTime
	)

	var entry *fetch.CachedResponse
	err := retry.WithBackoff(ctx, retry.CacheStoreConfig(), func() error {
		row := s.db.QueryRowContext(ctx, query, key.Method, key.URL)
		scanErr := row.Scan(&rawURL, &status, &headersJSON, &body, &etag, &lastModified, &storedAt, &expiry)
		if scanErr == sql.ErrNoRows {
			entry = nil
			return nil
		}
		if scanErr != nil {
			return scanErr
		}

		parsedURL, parseErr := url.Parse(rawURL)
		if parseErr != nil {
			return fmt.Errorf("lookup: parse cached url: %w", parseErr)
		}

		var headers http.Header
		if unmarshalErr := json.Unmarshal(headersJSON, &headers); unmarshalErr != nil {
			return fmt.Errorf("lookup: unmarshal headers: %w", unmarshalErr)
		}

		entry = &fetch.CachedResponse{
			URL:          parsedURL,
			Status:       status,
			Headers:      headers,
			Body:         body,
			ETag:         etag,
			LastModified: lastModified,
			StoredAt:     storedAt,
		}
		if expiry.Valid {
			entry.Expiry = expiry.Time
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: lookup %s %s: %w", fetch.ErrCacheStoreUnavailable, key.Method, key.URL, err)
	}
	if entry == nil {
		return nil, false, nil
	}
	return entry, true, nil
}

// Store implements fetch.CacheStore, upserting on the (method, url)
// primary key so a revalidation overwrites the prior entry in place.
func (s *Store) Store(ctx context.Context, key fetch.CacheKey, resp *fetch.CachedResponse) error {
	headersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("store: marshal headers: %w", err)
	}

	var expiry sql.NullTime
	if !resp.Expiry.IsZero() {
		expiry = sql.NullTime{Time: resp.Expiry, Valid: true}
	}

	const query = `
INSERT INTO fetch_cache
	(method, url, status, headers, body, etag, last_modified, stored_at, expiry)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (method, url) DO UPDATE SET
	status        = EXCLUDED.status,
	headers       = EXCLUDED.headers,
	body          = EXCLUDED.body,
	etag          = EXCLUDED.etag,
	last_modified = EXCLUDED.last_modified,
	stored_at     = EXCLUDED.stored_at,
	expiry        = EXCLUDED.expiry`

	err = retry.WithBackoff(ctx, retry.CacheStoreConfig(), func() error {
		_, execErr := s.db.ExecContext(ctx, query,
			key.Method, key.URL, resp.Status, headersJSON, resp.Body,
			resp.ETag, resp.LastModified, resp.StoredAt, expiry,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("%w: store %s %s: %w", fetch.ErrCacheStoreUnavailable, key.Method, key.URL, err)
	}
	return nil
}
