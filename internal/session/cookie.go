package session

import (
	"net/http"
	"strings"
	"time"
)

// Cookie is a typed cookie value with the attribute set this service uses.
// One construction path avoids attribute-formatting drift across call sites.
type Cookie struct {
	Name   string
	Value  string
	MaxAge int // seconds; negative clears the cookie
	Secure bool
}

// Write serializes the cookie with the fixed attribute family:
// Path=/, HttpOnly, SameSite=Lax.
func (c Cookie) Write(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     "/",
		MaxAge:   c.MaxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// IsHTTPS reports whether the request arrived over TLS, directly or behind a
// proxy that set X-Forwarded-Proto.
func IsHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// WriteSessionCookie sets the session cookie with Max-Age equal to the
// remaining record lifetime.
func WriteSessionCookie(w http.ResponseWriter, r *http.Request, value string, expiresAt time.Time) {
	Cookie{
		Name:   CookieName,
		Value:  value,
		MaxAge: int(time.Until(expiresAt).Seconds()),
		Secure: IsHTTPS(r),
	}.Write(w)
}

// ClearSessionCookie overwrites the session cookie with an empty value and a
// past expiry so the browser deletes it.
func ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	Cookie{
		Name:   CookieName,
		Value:  "",
		MaxAge: -1,
		Secure: IsHTTPS(r),
	}.Write(w)
}
