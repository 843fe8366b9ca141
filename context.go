package goSession

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation identifier to ctx. The httpapi client
// forwards it as the X-Request-ID header on every backend call, minting a
// fresh one when the context carries none.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext describes the requestidfromcontext operation and its observable behavior.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
