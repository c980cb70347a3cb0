package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	dErrors "betengine/pkg/domainerrors"
)

// EncodeJSON serializes v to JSON and encodes the bytes as URL-safe base64
// without padding.
func EncodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode payload")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeSegment decodes URL-safe base64 tolerantly: both the -_ and +/
// alphabets are accepted and missing padding is restored. The decoded bytes
// must be valid UTF-8. Failures are decode errors; callers treat them as
// "not a valid session", never as fatal.
func DecodeSegment(s string) ([]byte, error) {
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(s)
	normalized = strings.TrimRight(normalized, "=")
	raw, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecode, "malformed base64 segment")
	}
	if !utf8.Valid(raw) {
		return nil, dErrors.New(dErrors.CodeDecode, "segment is not valid UTF-8")
	}
	return raw, nil
}
