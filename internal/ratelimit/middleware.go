package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"betengine/internal/platform/metrics"
)

// Middleware gates endpoints on the limiter, keyed by client IP.
type Middleware struct {
	limiter  *Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type MiddlewareOption func(*Middleware)

// WithDisabled turns rate limiting off entirely (testing/demo mode).
func WithDisabled(disabled bool) MiddlewareOption {
	return func(m *Middleware) { m.disabled = disabled }
}

func WithMiddlewareMetrics(mm *metrics.Metrics) MiddlewareOption {
	return func(m *Middleware) { m.metrics = mm }
}

func NewMiddleware(limiter *Limiter, logger *slog.Logger, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{limiter: limiter, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit wraps a handler with a fixed-window check under the given scope,
// e.g. scope "login" counts against rl:auth:login:<ip>.
func (m *Middleware) Limit(scope string, limit, windowSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			result := m.limiter.Allow(r.Context(), Key(scope, ClientIP(r)), limit, windowSeconds)
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.RateLimitDenials.Inc()
				}
				m.logger.Warn("rate limit exceeded", "scope", scope)
				writeRateLimited(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the caller address, honoring the first entry of
// X-Forwarded-For when present.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func addRateLimitHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	if result.ResetSeconds != nil {
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(*result.ResetSeconds))
	}
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

// writeRateLimited answers with retry guidance only; counter internals are
// never echoed back.
func writeRateLimited(w http.ResponseWriter, result Result) {
	if result.ResetSeconds != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*result.ResetSeconds))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "rate_limited",
		"message": "too many requests, try again later",
	})
}
