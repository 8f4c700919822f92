// Package requestcontext carries request-scoped values (request id, caller identity,
// request time) through context without leaking transport types into services.
package requestcontext

import (
	"context"
	"time"

	"certledger/pkg/domain"
)

type (
	contextKeyRequestID   struct{}
	contextKeyCaller      struct{}
	contextKeyRequestTime struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, requestID)
}

// RequestID returns the request id, or "" outside of an HTTP request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID{}).(string); ok {
		return v
	}
	return ""
}

// WithCaller stores the authenticated ledger identity of the caller.
func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, contextKeyCaller{}, caller)
}

// Caller returns the authenticated identity, or the zero address when the request
// is anonymous.
func Caller(ctx context.Context) domain.Address {
	if v, ok := ctx.Value(contextKeyCaller{}).(domain.Address); ok {
		return v
	}
	return domain.ZeroAddress
}

// WithTime injects a specific time into a context.
// Useful for service tests, workers and CLI commands that bypass the HTTP middleware.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyRequestTime{}, t)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyRequestTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
