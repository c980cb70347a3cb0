// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and translate outcomes to the JSON envelopes the site expects;
// business logic stays out of this package.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"betengine/internal/oauth"
	"betengine/internal/session"
	dErrors "betengine/pkg/domainerrors"
)

// sessionResponse is the envelope returned by every session-producing or
// session-checking endpoint.
type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *session.Identity `json:"user"`
	Role          string            `json:"role"`
	Premium       bool              `json:"premium"`
}

func authenticatedResponse(rec session.Record) sessionResponse {
	user := rec.User
	return sessionResponse{
		Authenticated: true,
		User:          &user,
		Role:          rec.Role,
		Premium:       rec.Premium,
	}
}

func unauthenticatedResponse() sessionResponse {
	return sessionResponse{Authenticated: false, User: nil, Role: "user", Premium: false}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a domain error into the JSON error envelope. The
// body always carries an error code and a client-safe message, never
// internals. OAuth rejections surface their structured rejection code.
func writeError(w http.ResponseWriter, err error) {
	var rej *oauth.RejectionError
	if errors.As(err, &rej) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   rej.Code,
			"message": "login rejected",
		})
		return
	}
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": dErrors.MessageOf(err),
	})
}
