package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	dErrors "betengine/pkg/domainerrors"
)

const (
	defaultFacebookAuthURL  = "https://www.facebook.com/v19.0/dialog/oauth"
	defaultFacebookGraphURL = "https://graph.facebook.com/v19.0"
)

// FacebookProvider implements the full-page authorization-code bounce:
// redirect to the consent dialog, exchange the callback code for an access
// token, then fetch the profile from the Graph API.
type FacebookProvider struct {
	clientID     string
	clientSecret string
	authURL      string
	graphURL     string
	httpClient   *http.Client
}

type FacebookOption func(*FacebookProvider)

// WithFacebookEndpoints overrides the dialog and graph base URLs (tests).
func WithFacebookEndpoints(authURL, graphURL string) FacebookOption {
	return func(f *FacebookProvider) {
		f.authURL = authURL
		f.graphURL = graphURL
	}
}

func WithFacebookHTTPClient(c *http.Client) FacebookOption {
	return func(f *FacebookProvider) { f.httpClient = c }
}

func NewFacebookProvider(clientID, clientSecret string, opts ...FacebookOption) *FacebookProvider {
	f := &FacebookProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      defaultFacebookAuthURL,
		graphURL:     defaultFacebookGraphURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Configured reports whether client credentials are present.
func (f *FacebookProvider) Configured() bool {
	return f.clientID != "" && f.clientSecret != ""
}

// AuthorizationURL builds the consent dialog URL. redirectURI must exactly
// match the value registered with Facebook.
func (f *FacebookProvider) AuthorizationURL(redirectURI, state string) (string, error) {
	if !f.Configured() {
		return "", dErrors.New(dErrors.CodeNotConfigured, "facebook client credentials are not configured")
	}
	q := url.Values{}
	q.Set("client_id", f.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("scope", "email,public_profile")
	q.Set("response_type", "code")
	return f.authURL + "?" + q.Encode(), nil
}

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ExchangeCode swaps the callback code for an access token.
func (f *FacebookProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	if !f.Configured() {
		return "", dErrors.New(dErrors.CodeNotConfigured, "facebook client credentials are not configured")
	}
	q := url.Values{}
	q.Set("client_id", f.clientID)
	q.Set("client_secret", f.clientSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)

	u := f.graphURL + "/oauth/access_token?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", Reject(CodeExchangeFailed, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", Reject(CodeExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", Reject(CodeExchangeFailed, fmt.Errorf("token exchange status %d: %s", resp.StatusCode, body))
	}

	var token facebookTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", Reject(CodeExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return "", Reject(CodeExchangeFailed, fmt.Errorf("empty access token"))
	}
	return token.AccessToken, nil
}

type facebookProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// FetchProfile loads the user profile. appsecret_proof authenticates the
// server-to-server call per Facebook's API hardening guidance.
func (f *FacebookProvider) FetchProfile(ctx context.Context, accessToken string) (Identity, error) {
	q := url.Values{}
	q.Set("fields", "id,name,email,picture")
	q.Set("access_token", accessToken)
	q.Set("appsecret_proof", f.appSecretProof(accessToken))

	u := f.graphURL + "/me?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Identity{}, Reject(CodeFacebookUserFetch, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Identity{}, Reject(CodeFacebookUserFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, Reject(CodeFacebookUserFetch, fmt.Errorf("profile fetch status %d: %s", resp.StatusCode, body))
	}

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Identity{}, Reject(CodeFacebookUserFetch, err)
	}
	if profile.ID == "" {
		return Identity{}, Reject(CodeFacebookUserFetch, fmt.Errorf("profile missing id"))
	}

	return Identity{
		Provider: "facebook",
		Subject:  profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture.Data.URL,
	}, nil
}

func (f *FacebookProvider) appSecretProof(accessToken string) string {
	mac := hmac.New(sha256.New, []byte(f.clientSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}
