package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	dErrors "betengine/pkg/domainerrors"
)

// Signer computes and verifies HMAC-SHA256 signatures over cookie payloads.
type Signer struct {
	secret []byte
}

// NewSigner returns a Signer for the given secret. An empty secret is a
// configuration error: the service must never issue unsigned cookies.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeNotConfigured, "session signing secret is not configured")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the URL-safe base64 (unpadded) HMAC-SHA256 of payload.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature for payload and compares it against the
// presented signature in constant time. The presented signature may be hex,
// base64 or base64url encoded; it is normalized to raw bytes first. A length
// mismatch still goes through hmac.Equal rather than an early string compare.
func (s *Signer) Verify(payload, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	for _, candidate := range decodeCandidates(signature) {
		if hmac.Equal(expected, candidate) {
			return true
		}
	}
	return false
}

// decodeCandidates interprets an encoded signature under each accepted
// encoding. Encodings that do not parse are skipped.
func decodeCandidates(signature string) [][]byte {
	var out [][]byte
	if raw, err := hex.DecodeString(signature); err == nil {
		out = append(out, raw)
	}
	if raw, err := base64.StdEncoding.DecodeString(signature); err == nil {
		out = append(out, raw)
	}
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(signature)
	normalized = strings.TrimRight(normalized, "=")
	if raw, err := base64.RawURLEncoding.DecodeString(normalized); err == nil {
		out = append(out, raw)
	}
	return out
}
