package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokeninfoServer(t *testing.T, status int, info googleTokenInfo) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVerifyCredential(t *testing.T) {
	info := googleTokenInfo{
		Aud:           "client-123",
		Sub:           "108234",
		Email:         "alice@example.com",
		EmailVerified: "true",
		Name:          "Alice Example",
		Picture:       "https://lh3.example/photo.jpg",
	}
	srv := tokeninfoServer(t, http.StatusOK, info)

	g := NewGoogleVerifier("client-123", WithTokeninfoURL(srv.URL))
	id, err := g.VerifyCredential(context.Background(), "some-id-token")
	require.NoError(t, err)

	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "108234", id.Subject)
	assert.Equal(t, "alice@example.com", id.Email)

	normalized := id.Normalize()
	assert.Equal(t, "google:108234", normalized.ID)
	assert.Equal(t, "alice.example", normalized.Username)
	require.NotNil(t, normalized.Email)
	assert.Equal(t, "alice@example.com", *normalized.Email)
}

func TestGoogleVerifyCredentialRejections(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		info     googleTokenInfo
		wantCode string
	}{
		{
			name:     "audience mismatch",
			status:   http.StatusOK,
			info:     googleTokenInfo{Aud: "someone-else", Sub: "1", EmailVerified: "true"},
			wantCode: CodeGoogleAudience,
		},
		{
			name:     "email not verified",
			status:   http.StatusOK,
			info:     googleTokenInfo{Aud: "client-123", Sub: "1", EmailVerified: "false"},
			wantCode: CodeGoogleEmailUnverified,
		},
		{
			name:     "tokeninfo rejects token",
			status:   http.StatusBadRequest,
			info:     googleTokenInfo{},
			wantCode: CodeGoogleUserFetch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tokeninfoServer(t, tt.status, tt.info)
			g := NewGoogleVerifier("client-123", WithTokeninfoURL(srv.URL))

			_, err := g.VerifyCredential(context.Background(), "some-id-token")
			var rej *RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.wantCode, rej.Code)
		})
	}
}

func TestGoogleVerifyCredentialNotConfigured(t *testing.T) {
	g := NewGoogleVerifier("")
	_, err := g.VerifyCredential(context.Background(), "token")
	require.Error(t, err)
	var rej *RejectionError
	assert.False(t, errors.As(err, &rej), "missing configuration is not a provider rejection")
}

func TestGoogleVerifyCredentialMissingInput(t *testing.T) {
	g := NewGoogleVerifier("client-123")
	_, err := g.VerifyCredential(context.Background(), "")
	assert.Error(t, err)
}
