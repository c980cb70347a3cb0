package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betengine/internal/oauth"
	"betengine/internal/session"
)

type stubOAuthService struct {
	googleIdentity   session.Identity
	googleErr        error
	callbackIdentity session.Identity
	callbackReturnTo string
	callbackErr      error
}

func (s *stubOAuthService) GoogleLogin(context.Context, string) (session.Identity, error) {
	return s.googleIdentity, s.googleErr
}

func (s *stubOAuthService) FacebookBegin(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, "https://www.facebook.com/v19.0/dialog/oauth?state=x", http.StatusFound)
	return nil
}

func (s *stubOAuthService) FacebookCallback(http.ResponseWriter, *http.Request) (session.Identity, string, error) {
	return s.callbackIdentity, s.callbackReturnTo, s.callbackErr
}

func strptr(s string) *string { return &s }

func TestGoogleLoginIssuesSession(t *testing.T) {
	stub := &stubOAuthService{
		googleIdentity: session.Identity{
			ID:       "google:sub-123",
			Username: "jane.doe",
			Email:    strptr("jane@example.com"),
		},
	}
	f := newFixtureWith(t, stub)

	rec := f.do(t, http.MethodPost, "/auth/google", googleLoginRequest{Credential: "id-token"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sessionCookie(rec))

	resp := decodeSession(t, rec)
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "google:sub-123", resp.User.ID)
	assert.Equal(t, "user", resp.Role)
}

func TestGoogleLoginRejectionSurfacesCode(t *testing.T) {
	stub := &stubOAuthService{googleErr: oauth.Reject(oauth.CodeGoogleAudience, nil)}
	f := newFixtureWith(t, stub)

	rec := f.do(t, http.MethodPost, "/auth/google", googleLoginRequest{Credential: "id-token"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec), "rejection must not issue a session")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, oauth.CodeGoogleAudience, body["error"])
}

func TestFacebookBeginRedirects(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/facebook", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "facebook.com")
}

func TestFacebookCallbackRedirectsToReturnTo(t *testing.T) {
	stub := &stubOAuthService{
		callbackIdentity: session.Identity{ID: "facebook:fb-1", Username: "fbuser"},
		callbackReturnTo: "/account",
	}
	f := newFixtureWith(t, stub)

	rec := f.do(t, http.MethodGet, "/auth/facebook/callback?code=c&state=s", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/account", rec.Header().Get("Location"))
	require.NotNil(t, sessionCookie(rec))
}

func TestFacebookCallbackRejection(t *testing.T) {
	stub := &stubOAuthService{
		callbackReturnTo: "/",
		callbackErr:      oauth.Reject(oauth.CodeStateInvalid, nil),
	}
	f := newFixtureWith(t, stub)

	rec := f.do(t, http.MethodGet, "/auth/facebook/callback?code=c&state=bad", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, oauth.CodeStateInvalid, body["error"])
}
