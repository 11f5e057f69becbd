package goGateway

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation ID to ctx. Execute sends it as the
// X-Request-ID header on the original attempt and its replay, and records it
// on audit events. Without one, Execute generates a UUID per call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
