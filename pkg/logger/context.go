package logger

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

var correlationIDKey contextKey

// WithCorrelationID returns a context carrying a correlation ID, generating
// a fresh one when the context has none.
func WithCorrelationID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}

	return context.WithValue(ctx, correlationIDKey, uuid.NewString())
}

// CorrelationIDFromContext extracts the correlation ID, or "" when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
