package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betengine/internal/auth"
	"betengine/internal/auth/resettoken"
	"betengine/internal/platform/metrics"
	"betengine/internal/ratelimit"
	"betengine/internal/session"
	"betengine/internal/webhook"
)

const (
	testEmail    = "test@betengine.dev"
	testPassword = "test123"
)

type capturingMailer struct {
	to, token string
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.to = to
	m.token = token
	return nil
}

type fixture struct {
	router http.Handler
	mailer *capturingMailer
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, &stubOAuthService{})
}

func newFixtureWith(t *testing.T, oauthSvc OAuthService) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewWith(prometheus.NewRegistry())

	resets, err := resettoken.New("reset-signing-key")
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.NewMemoryStore(), resets, auth.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, authSvc.SeedTestUser(context.Background(), testEmail, testPassword))

	sessions, err := session.NewProtocol("session-signing-secret", 0)
	require.NoError(t, err)

	limiter := ratelimit.New(ratelimit.NewInMemoryCounterStore(), ratelimit.WithLogger(logger))
	rl := ratelimit.NewMiddleware(limiter, logger)

	mailer := &capturingMailer{}
	router := NewRouter(RouterConfig{
		Auth:      NewAuthHandler(authSvc, sessions, mailer, logger, m, nil),
		OAuth:     NewOAuthHandler(oauthSvc, sessions, logger, m, nil),
		Webhook:   NewWebhookHandler(webhook.NewGuard("", nil, "transactionId"), "X-Webhook-Signature", logger, m),
		RateLimit: rl.Limit,
	})
	return &fixture{router: router, mailer: mailer}
}

func (f *fixture) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:1234"
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestLoginWithTestCredentials(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: testEmail, Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Positive(t, cookie.MaxAge)

	resp := decodeSession(t, rec)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "user", resp.Role)
	assert.False(t, resp.Premium)
	require.NotNil(t, resp.User.Email)
	assert.Equal(t, testEmail, *resp.User.Email)
}

func TestLoginFailureIsGeneric(t *testing.T) {
	f := newFixture(t)

	for name, req := range map[string]loginRequest{
		"wrong password": {Email: testEmail, Password: "nope-1"},
		"unknown user":   {Email: "ghost@betengine.dev", Password: "whatever"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/auth/login", req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, sessionCookie(rec))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "invalid credentials", body["message"])
		})
	}
}

func TestSessionCheckWithoutCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/session", nil)
	require.Equal(t, http.StatusOK, rec.Code, "session check never errors")

	resp := decodeSession(t, rec)
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.User)
	assert.Equal(t, "user", resp.Role)
	assert.False(t, resp.Premium)
}

func TestSessionCheckRoundTrip(t *testing.T) {
	f := newFixture(t)

	login := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: testEmail, Password: testPassword})
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	rec := f.do(t, http.MethodGet, "/auth/session", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeSession(t, rec)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	require.NotNil(t, resp.User.Email)
	assert.Equal(t, testEmail, *resp.User.Email)
}

func TestSessionCheckClearsBadCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/session", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not.a-real-cookie"})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeSession(t, rec).Authenticated)

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared, "invalid cookie must be cleared")
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeSession(t, rec).Authenticated)

	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestRegisterIssuesSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email:    "newbie@example.com",
		Username: "newbie",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, sessionCookie(rec))
	resp := decodeSession(t, rec)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "newbie", resp.User.Username)
	assert.True(t, strings.HasPrefix(resp.User.ID, "local:"))

	dup := f.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email:    "newbie@example.com",
		Username: "newbie2",
		Password: "secret1",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/password-reset", passwordResetRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, f.mailer.token, "reset token must reach the mail collaborator")
	assert.Equal(t, testEmail, f.mailer.to)

	confirm := f.do(t, http.MethodPost, "/auth/password-reset/confirm", passwordResetConfirm{
		Token:    f.mailer.token,
		Password: "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, confirm.Code)

	old := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: testEmail, Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, old.Code)
	fresh := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: testEmail, Password: "brand-new-pass"})
	assert.Equal(t, http.StatusOK, fresh.Code)
}

func TestPasswordResetHidesUnknownAccounts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/password-reset", passwordResetRequest{Email: "ghost@betengine.dev"})
	assert.Equal(t, http.StatusOK, rec.Code, "unknown accounts must look identical")
	assert.Empty(t, f.mailer.token)
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: testEmail, Password: "wrong-1"})
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))

	// Another client address still has budget.
	other := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: testEmail, Password: testPassword},
		func(r *http.Request) { r.RemoteAddr = "198.51.100.9:4321" })
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredSessionTreatedAsAbsent(t *testing.T) {
	f := newFixture(t)

	// A correctly signed record whose expiry is already in the past. The
	// secret matches the fixture's protocol so only the expiry is at fault.
	sessions, err := session.NewProtocol("session-signing-secret", time.Millisecond)
	require.NoError(t, err)
	rec := sessions.NewRecord(session.Identity{ID: "local:x", Username: "x"}, time.Now().Add(-time.Hour))
	value, err := sessions.Issue(rec)
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/auth/session", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: session.CookieName, Value: value})
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeSession(t, resp).Authenticated)
}
