package requestid

import (
	"context"

	"github.com/google/uuid"
)

// maxLen bounds client-supplied IDs so they cannot bloat every log line.
const maxLen = 128

type ctxKey struct{}

// New generates a random UUID v4 request ID.
func New() string {
	return uuid.NewString()
}

// FromHeader returns the client-supplied ID when it is short and printable,
// otherwise a fresh one.
func FromHeader(h string) string {
	if h == "" || len(h) > maxLen {
		return New()
	}
	for i := 0; i < len(h); i++ {
		if h[i] < 0x21 || h[i] > 0x7e {
			return New()
		}
	}
	return h
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
