package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"betengine/internal/audit"
	"betengine/internal/auth"
	"betengine/internal/platform/metrics"
	"betengine/internal/ratelimit"
	"betengine/internal/session"
	dErrors "betengine/pkg/domainerrors"
)

// AuthService is the credential-auth surface the handler delegates to.
type AuthService interface {
	Login(ctx context.Context, email, password string) (auth.User, error)
	Register(ctx context.Context, email, username, password string) (auth.User, error)
	RequestPasswordReset(ctx context.Context, email string) (token string, issued bool, err error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Mailer delivers the password-reset token out of band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

type AuthHandler struct {
	auth     AuthService
	sessions *session.Protocol
	mailer   Mailer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Publisher
}

func NewAuthHandler(svc AuthService, sessions *session.Protocol, mailer Mailer, logger *slog.Logger, m *metrics.Metrics, publisher *audit.Publisher) *AuthHandler {
	return &AuthHandler{
		auth:     svc,
		sessions: sessions,
		mailer:   mailer,
		logger:   logger,
		metrics:  m,
		audit:    publisher,
	}
}

func (h *AuthHandler) Register(r chi.Router, limit func(scope string, limit, windowSeconds int) func(http.Handler) http.Handler) {
	r.With(limit("login", 5, 300)).Post("/auth/login", h.handleLogin)
	r.With(limit("register", 5, 300)).Post("/auth/register", h.handleRegister)
	r.Get("/auth/session", h.handleSession)
	r.Post("/auth/logout", h.handleLogout)
	r.With(limit("password-reset", 3, 900)).Post("/auth/password-reset", h.handlePasswordResetRequest)
	r.Post("/auth/password-reset/confirm", h.handlePasswordResetConfirm)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	user, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.metrics.Logins.WithLabelValues("password", "failure").Inc()
		h.audit.Publish(ctx, h.event(r, audit.ActionLoginFailed, "password", ""))
		writeError(w, err)
		return
	}

	rec, err := h.issueSession(w, r, user.SessionIdentity())
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.Logins.WithLabelValues("password", "success").Inc()
	h.audit.Publish(ctx, h.event(r, audit.ActionLogin, "password", user.ID))
	writeJSON(w, http.StatusOK, authenticatedResponse(rec))
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	user, err := h.auth.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.issueSession(w, r, user.SessionIdentity())
	if err != nil {
		writeError(w, err)
		return
	}

	h.audit.Publish(ctx, h.event(r, audit.ActionRegister, "password", user.ID))
	writeJSON(w, http.StatusCreated, authenticatedResponse(rec))
}

// handleSession is a parse-only check. It always answers 200: a missing,
// invalid or expired cookie is an unauthenticated visitor, not an error.
func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	var value string
	if c, err := r.Cookie(session.CookieName); err == nil {
		value = c.Value
	}

	rec, status := h.sessions.Parse(value, time.Now())
	h.metrics.SessionChecks.WithLabelValues(status.String()).Inc()

	switch status {
	case session.StatusValid:
		writeJSON(w, http.StatusOK, authenticatedResponse(rec))
	case session.StatusInvalid, session.StatusExpired:
		// Stop the browser from re-presenting a cookie that will never parse.
		session.ClearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, unauthenticatedResponse())
	default:
		writeJSON(w, http.StatusOK, unauthenticatedResponse())
	}
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.ClearSessionCookie(w, r)
	h.audit.Publish(r.Context(), h.event(r, audit.ActionLogout, "", ""))
	writeJSON(w, http.StatusOK, unauthenticatedResponse())
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// handlePasswordResetRequest answers 200 whether or not the account exists,
// so the endpoint cannot be used to probe registered emails.
func (h *AuthHandler) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	token, issued, err := h.auth.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if issued {
		if err := h.mailer.SendPasswordReset(ctx, req.Email, token); err != nil {
			h.logger.ErrorContext(ctx, "password reset mail delivery failed", "error", err)
		}
		h.audit.Publish(ctx, h.event(r, audit.ActionPasswordReset, "", ""))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type passwordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user session.Identity) (session.Record, error) {
	rec := h.sessions.NewRecord(user, time.Now())
	value, err := h.sessions.Issue(rec)
	if err != nil {
		return session.Record{}, err
	}
	session.WriteSessionCookie(w, r, value, rec.ExpiresAt())
	return rec, nil
}

func (h *AuthHandler) event(r *http.Request, action audit.Action, method, userID string) audit.Event {
	return audit.Event{
		Action:   action,
		Method:   method,
		UserID:   userID,
		ClientIP: ratelimit.ClientIP(r),
		Device:   audit.DeviceSummary(r.UserAgent()),
	}
}
