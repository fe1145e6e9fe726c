package requestid

import (
	"context"

	"github.com/google/uuid"
)

const maxLen = 64

type ctxKey struct{}

// New generates a random UUID v4 request ID.
func New() string {
	return uuid.NewString()
}

// Accept returns a client-supplied id if it is safe to echo and log,
// otherwise a fresh one.
func Accept(header string) string {
	if header == "" || len(header) > maxLen {
		return New()
	}
	for _, r := range header {
		ok := r == '-' || r == '_' || r == '.' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return New()
		}
	}
	return header
}

// WithRequestID returns a copy of ctx with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
