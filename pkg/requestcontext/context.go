// Package requestcontext provides HTTP-independent context accessors for
// request- and batch-scoped values. Middleware and workers set values;
// services read them without importing net/http.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey struct{}
	batchTimeKey struct{}
)

// RequestID retrieves the request or batch correlation ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now retrieves the batch-scoped time from context. Falls back to time.Now()
// for contexts outside a batch (handlers, CLI, tests that don't pin time).
// Workers pin a single time per batch so every record in the batch observes
// the same clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(batchTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins a specific time in a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, batchTimeKey{}, t)
}
