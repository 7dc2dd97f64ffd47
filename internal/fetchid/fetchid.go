// Package fetchid generates and propagates a correlation ID for a single
// top-level fetch()/fetch_async() invocation, so the recursive main-fetch /
// http-fetch / http-redirect-fetch calls it triggers can be tied together in
// logs, metrics, and traces.
package fetchid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const idContextKey contextKey = "fetch_id"

// New generates a new fetch correlation ID.
func New() string {
	return uuid.New().String()
}

// FromContext retrieves the fetch ID from the context, or the empty string if absent.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(idContextKey).(string); ok {
		return id
	}
	return ""
}

// WithFetchID attaches a fetch ID to the context, generating one if id is empty.
func WithFetchID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = New()
	}
	return context.WithValue(ctx, idContextKey, id)
}
