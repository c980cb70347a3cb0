package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	dErrors "betengine/pkg/domainerrors"
)

const defaultTokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google Identity Services credentials (ID tokens)
// posted by the page. Verification is delegated to Google's tokeninfo
// endpoint, which checks the token signature server-side; audience and
// email_verified are enforced here.
type GoogleVerifier struct {
	clientID     string
	tokeninfoURL string
	httpClient   *http.Client
}

type GoogleOption func(*GoogleVerifier)

// WithTokeninfoURL overrides the verification endpoint (tests).
func WithTokeninfoURL(u string) GoogleOption {
	return func(g *GoogleVerifier) { g.tokeninfoURL = u }
}

func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleVerifier) { g.httpClient = c }
}

func NewGoogleVerifier(clientID string, opts ...GoogleOption) *GoogleVerifier {
	g := &GoogleVerifier{
		clientID:     clientID,
		tokeninfoURL: defaultTokeninfoURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyCredential checks an ID token and returns the provider identity.
func (g *GoogleVerifier) VerifyCredential(ctx context.Context, credential string) (Identity, error) {
	if g.clientID == "" {
		return Identity{}, dErrors.New(dErrors.CodeNotConfigured, "google client id is not configured")
	}
	if credential == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "missing credential")
	}

	u := g.tokeninfoURL + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Identity{}, Reject(CodeGoogleUserFetch, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Identity{}, Reject(CodeGoogleUserFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, Reject(CodeGoogleUserFetch, fmt.Errorf("tokeninfo status %d: %s", resp.StatusCode, body))
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, Reject(CodeGoogleUserFetch, err)
	}

	if info.Aud != g.clientID {
		return Identity{}, Reject(CodeGoogleAudience, nil)
	}
	if info.EmailVerified == "false" {
		return Identity{}, Reject(CodeGoogleEmailUnverified, nil)
	}

	return Identity{
		Provider: "google",
		Subject:  info.Sub,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	}, nil
}
