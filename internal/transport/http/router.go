package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig collects the wired handlers and cross-cutting middleware.
type RouterConfig struct {
	Auth      *AuthHandler
	OAuth     *OAuthHandler
	Webhook   *WebhookHandler
	RateLimit func(scope string, limit, windowSeconds int) func(http.Handler) http.Handler
	// Health probes the critical dependencies; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	cfg.Auth.Register(r, cfg.RateLimit)
	cfg.OAuth.Register(r, cfg.RateLimit)
	cfg.Webhook.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
