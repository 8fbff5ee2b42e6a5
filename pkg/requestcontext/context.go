// Package requestcontext carries request-scoped values without tying
// services to net/http. Middleware writes them; services and handlers read:
//
//	caller, ok := requestcontext.Caller(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests can set them directly with the With* helpers.
package requestcontext

import (
	"context"
	"time"

	"credo/pkg/domain"
)

type (
	callerKey      struct{}
	clientIPKey    struct{}
	deviceKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Caller returns the authenticated caller. ok is false for anonymous
// requests.
func Caller(ctx context.Context) (domain.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Address)
	return caller, ok
}

func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// ClientIP is empty when the metadata middleware did not run.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientDevice is the "<browser> on <os>" label derived from the User-Agent,
// empty when the metadata middleware did not run.
func ClientDevice(ctx context.Context) string {
	device, _ := ctx.Value(deviceKey{}).(string)
	return device
}

func WithClientDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now is the time pinned for this request, or time.Now outside a request
// (workers, the CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time, so every timestamp written while serving
// one request agrees.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
