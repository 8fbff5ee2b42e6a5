// Package requesttime pins one "now" per HTTP request so every timestamp and
// expiry check within the request agrees.
package requesttime

import (
	"net/http"
	"time"

	"credo/pkg/requestcontext"
)

// Middleware stores the request start time; read it with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
