package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"credo/internal/ratelimit/metrics"
	"credo/pkg/platform/httputil"
	request "credo/pkg/platform/middleware/request"
	"credo/pkg/requestcontext"
)

// Limiter decides whether key may proceed at now.
type Limiter interface {
	Allow(key string, now time.Time) (bool, time.Duration)
	Len() int
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled || m.limiter == nil {
		m.disabled = true
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimitCaller limits by authenticated caller address, falling back to the
// client IP for requests that carry no caller. Mount it after the auth middleware.
func (m *Middleware) RateLimitCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key, kind := "ip:"+requestcontext.ClientIP(ctx), "ip"
		if caller, ok := requestcontext.Caller(ctx); ok {
			key, kind = "caller:"+caller.Hex(), "caller"
		}

		allowed, wait := m.limiter.Allow(key, requestcontext.Now(ctx))
		if m.metrics != nil {
			m.metrics.SetTrackedKeys(m.limiter.Len())
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		if m.metrics != nil {
			m.metrics.IncrementRejected(kind)
		}
		m.logger.WarnContext(ctx, "rate limit exceeded",
			"key_kind", kind,
			"retry_after", wait,
			"request_id", request.GetRequestID(ctx),
		)
		writeRateLimitExceeded(w, wait)
	})
}

func writeRateLimitExceeded(w http.ResponseWriter, wait time.Duration) {
	retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &RateLimitExceededResponse{
		Error:      "rate_limited",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: retryAfter,
	})
}
