package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"betengine/internal/audit"
	"betengine/internal/platform/metrics"
	"betengine/internal/ratelimit"
	"betengine/internal/session"
	dErrors "betengine/pkg/domainerrors"
)

// OAuthService is the provider-exchange surface the handler delegates to.
// Google answers the calling page with JSON; Facebook is a full-page bounce.
type OAuthService interface {
	GoogleLogin(ctx context.Context, credential string) (session.Identity, error)
	FacebookBegin(w http.ResponseWriter, r *http.Request) error
	FacebookCallback(w http.ResponseWriter, r *http.Request) (session.Identity, string, error)
}

type OAuthHandler struct {
	oauth    OAuthService
	sessions *session.Protocol
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Publisher
}

func NewOAuthHandler(svc OAuthService, sessions *session.Protocol, logger *slog.Logger, m *metrics.Metrics, publisher *audit.Publisher) *OAuthHandler {
	return &OAuthHandler{
		oauth:    svc,
		sessions: sessions,
		logger:   logger,
		metrics:  m,
		audit:    publisher,
	}
}

func (h *OAuthHandler) Register(r chi.Router, limit func(scope string, limit, windowSeconds int) func(http.Handler) http.Handler) {
	r.With(limit("oauth", 10, 300)).Post("/auth/google", h.handleGoogle)
	r.With(limit("oauth", 10, 300)).Get("/auth/facebook", h.handleFacebookBegin)
	r.Get("/auth/facebook/callback", h.handleFacebookCallback)
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

func (h *OAuthHandler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	identity, err := h.oauth.GoogleLogin(ctx, req.Credential)
	if err != nil {
		h.metrics.Logins.WithLabelValues("google", "failure").Inc()
		h.audit.Publish(ctx, h.event(r, audit.ActionOAuthRejected, "google", "", err.Error()))
		writeError(w, err)
		return
	}

	rec, err := h.issueSession(w, r, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.Logins.WithLabelValues("google", "success").Inc()
	h.audit.Publish(ctx, h.event(r, audit.ActionOAuthLogin, "google", identity.ID, ""))
	writeJSON(w, http.StatusOK, authenticatedResponse(rec))
}

func (h *OAuthHandler) handleFacebookBegin(w http.ResponseWriter, r *http.Request) {
	if err := h.oauth.FacebookBegin(w, r); err != nil {
		writeError(w, err)
	}
}

func (h *OAuthHandler) handleFacebookCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, returnTo, err := h.oauth.FacebookCallback(w, r)
	if err != nil {
		h.metrics.Logins.WithLabelValues("facebook", "failure").Inc()
		h.audit.Publish(ctx, h.event(r, audit.ActionOAuthRejected, "facebook", "", err.Error()))
		writeError(w, err)
		return
	}

	if _, err := h.issueSession(w, r, identity); err != nil {
		writeError(w, err)
		return
	}

	h.metrics.Logins.WithLabelValues("facebook", "success").Inc()
	h.audit.Publish(ctx, h.event(r, audit.ActionOAuthLogin, "facebook", identity.ID, ""))
	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (h *OAuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user session.Identity) (session.Record, error) {
	rec := h.sessions.NewRecord(user, time.Now())
	value, err := h.sessions.Issue(rec)
	if err != nil {
		return session.Record{}, err
	}
	session.WriteSessionCookie(w, r, value, rec.ExpiresAt())
	return rec, nil
}

func (h *OAuthHandler) event(r *http.Request, action audit.Action, method, userID, detail string) audit.Event {
	return audit.Event{
		Action:   action,
		Method:   method,
		UserID:   userID,
		Detail:   detail,
		ClientIP: ratelimit.ClientIP(r),
		Device:   audit.DeviceSummary(r.UserAgent()),
	}
}
