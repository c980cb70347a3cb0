package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"betengine/internal/session"
)

// TransactionTTL bounds the OAuth round trip: state and return cookies live
// ten minutes and are consumed exactly once.
const TransactionTTL = 10 * time.Minute

func stateCookieName(provider string) string {
	return fmt.Sprintf("be_%s_oauth_state", provider)
}

func returnCookieName(provider string) string {
	return fmt.Sprintf("be_%s_oauth_return", provider)
}

// NewState returns a high-entropy anti-CSRF token.
func NewState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// BeginTransaction stores the state token and the post-login return path in
// short-lived HttpOnly cookies scoped to /.
func BeginTransaction(w http.ResponseWriter, r *http.Request, provider, state, returnTo string) {
	maxAge := int(TransactionTTL.Seconds())
	secure := session.IsHTTPS(r)
	session.Cookie{Name: stateCookieName(provider), Value: state, MaxAge: maxAge, Secure: secure}.Write(w)
	session.Cookie{Name: returnCookieName(provider), Value: returnTo, MaxAge: maxAge, Secure: secure}.Write(w)
}

// ConsumeTransaction reads and immediately clears both transaction cookies.
// Clearing happens regardless of what the callback decides afterwards: the
// transaction is single-use.
func ConsumeTransaction(w http.ResponseWriter, r *http.Request, provider string) (state, returnTo string) {
	if c, err := r.Cookie(stateCookieName(provider)); err == nil {
		state = c.Value
	}
	if c, err := r.Cookie(returnCookieName(provider)); err == nil {
		returnTo = c.Value
	}
	secure := session.IsHTTPS(r)
	session.Cookie{Name: stateCookieName(provider), Value: "", MaxAge: -1, Secure: secure}.Write(w)
	session.Cookie{Name: returnCookieName(provider), Value: "", MaxAge: -1, Secure: secure}.Write(w)
	return state, SanitizeReturnTo(returnTo)
}

// ValidateState compares the callback state against the cookie state in
// constant time. Both must be non-empty.
func ValidateState(cookieState, callbackState string) bool {
	if cookieState == "" || callbackState == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieState), []byte(callbackState)) == 1
}

// SanitizeReturnTo restricts the post-login redirect to same-origin relative
// paths, defaulting to "/".
func SanitizeReturnTo(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}
	return returnTo
}
