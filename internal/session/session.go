// Package session implements the signed, self-contained session cookie
// protocol: base64url(JSON(record)) + "." + base64url(HMAC-SHA256). The
// signature is the trust anchor; no server-side lookup is involved in
// validation.
package session

import (
	"encoding/json"
	"strings"
	"time"
)

// CookieName is the session cookie issued at login.
const CookieName = "be_session"

// DefaultTTL is the session lifetime at issuance.
const DefaultTTL = 7 * 24 * time.Hour

// Identity is the normalized user identity carried in a session.
type Identity struct {
	ID       string  `json:"id"` // provider-prefixed, e.g. "google:<sub>"
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Picture  *string `json:"picture"`
}

// Record is the session payload. Exp is an absolute expiry in epoch
// milliseconds; a record is only trustworthy while now < Exp.
type Record struct {
	User    Identity `json:"user"`
	Role    string   `json:"role"`
	Premium bool     `json:"premium"`
	Exp     int64    `json:"exp"`
}

// ExpiresAt returns Exp as a time.Time.
func (r Record) ExpiresAt() time.Time {
	return time.UnixMilli(r.Exp)
}

// Status classifies the outcome of parsing a session cookie.
type Status int

const (
	// StatusValid: signature checked and Exp is in the future.
	StatusValid Status = iota
	// StatusAbsent: no cookie value was presented.
	StatusAbsent
	// StatusInvalid: missing separator, bad signature, or undecodable payload.
	StatusInvalid
	// StatusExpired: well-formed and correctly signed, but past Exp.
	// Callers treat this identically to absent.
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusAbsent:
		return "absent"
	case StatusInvalid:
		return "invalid"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// Protocol issues and parses signed session cookies.
type Protocol struct {
	signer *Signer
	ttl    time.Duration
}

// NewProtocol builds a Protocol around a signing secret. ttl <= 0 falls back
// to DefaultTTL.
func NewProtocol(secret string, ttl time.Duration) (*Protocol, error) {
	signer, err := NewSigner(secret)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Protocol{signer: signer, ttl: ttl}, nil
}

// TTL returns the configured session lifetime.
func (p *Protocol) TTL() time.Duration { return p.ttl }

// NewRecord builds a Record for the identity expiring TTL from now.
func (p *Protocol) NewRecord(user Identity, now time.Time) Record {
	return Record{
		User:    user,
		Role:    "user",
		Premium: false,
		Exp:     now.Add(p.ttl).UnixMilli(),
	}
}

// Issue serializes and signs a record into the cookie wire form.
func (p *Protocol) Issue(rec Record) (string, error) {
	payload, err := EncodeJSON(rec)
	if err != nil {
		return "", err
	}
	return payload + "." + p.signer.Sign(payload), nil
}

// Parse validates a cookie value at the given instant. Any outcome other
// than StatusValid leaves the record zero; callers must never trust body
// fields without a valid status.
func (p *Protocol) Parse(cookieValue string, now time.Time) (Record, Status) {
	if cookieValue == "" {
		return Record{}, StatusAbsent
	}

	// Signatures never contain "."; the last separator is the boundary.
	i := strings.LastIndex(cookieValue, ".")
	if i <= 0 || i == len(cookieValue)-1 {
		return Record{}, StatusInvalid
	}
	payload, signature := cookieValue[:i], cookieValue[i+1:]

	if !p.signer.Verify(payload, signature) {
		return Record{}, StatusInvalid
	}

	raw, err := DecodeSegment(payload)
	if err != nil {
		return Record{}, StatusInvalid
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, StatusInvalid
	}

	if rec.Exp == 0 || !now.Before(rec.ExpiresAt()) {
		return Record{}, StatusExpired
	}
	return rec, StatusValid
}
