// Package oauth implements the per-provider login flows: anti-CSRF state
// issuance, callback validation, token exchange, identity fetch, and
// normalization into the canonical session identity.
package oauth

import (
	"fmt"

	"betengine/internal/session"
)

// Rejection codes. A terminal rejection at any gate never partially
// establishes a session.
const (
	CodeStateInvalid          = "OAUTH_STATE_INVALID"
	CodeExchangeFailed        = "OAUTH_CODE_EXCHANGE_FAILED"
	CodeGoogleAudience        = "GOOGLE_AUDIENCE_MISMATCH"
	CodeGoogleEmailUnverified = "GOOGLE_EMAIL_NOT_VERIFIED"
	CodeGoogleUserFetch       = "GOOGLE_USER_FETCH_FAILED"
	CodeFacebookUserFetch     = "FACEBOOK_USER_FETCH_FAILED"
)

// RejectionError is a structured, terminal rejection of a login attempt.
type RejectionError struct {
	Code  string
	cause error
}

func Reject(code string, cause error) *RejectionError {
	return &RejectionError{Code: code, cause: cause}
}

func (e *RejectionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("oauth rejected (%s): %v", e.Code, e.cause)
	}
	return fmt.Sprintf("oauth rejected (%s)", e.Code)
}

func (e *RejectionError) Unwrap() error { return e.cause }

// Identity is a provider identity before normalization.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

// Normalize produces the canonical session identity: provider-prefixed id
// and a sanitized, length-capped username. Empty optional fields become nil.
func (id Identity) Normalize() session.Identity {
	return session.Identity{
		ID:       id.Provider + ":" + id.Subject,
		Username: deriveUsername(id.Name, id.Email),
		Email:    optional(id.Email),
		Name:     optional(id.Name),
		Picture:  optional(id.Picture),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
