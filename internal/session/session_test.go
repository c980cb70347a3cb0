package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-signing-secret"

func strptr(s string) *string { return &s }

func testIdentity() Identity {
	return Identity{
		ID:       "google:108234",
		Username: "alice",
		Email:    strptr("alice@example.com"),
		Name:     strptr("Alice"),
		Picture:  nil,
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	p, err := NewProtocol(testSecret, 0)
	require.NoError(t, err)

	now := time.Now()
	rec := p.NewRecord(testIdentity(), now)
	cookie, err := p.Issue(rec)
	require.NoError(t, err)

	got, status := p.Parse(cookie, now)
	require.Equal(t, StatusValid, status)
	assert.Equal(t, rec, got)
	assert.Equal(t, "user", got.Role)
	assert.False(t, got.Premium)
	assert.Equal(t, now.Add(DefaultTTL).UnixMilli(), got.Exp)
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	p, err := NewProtocol(testSecret, time.Hour)
	require.NoError(t, err)

	cookie, err := p.Issue(p.NewRecord(testIdentity(), time.Now()))
	require.NoError(t, err)

	// Flip a single byte in the payload segment after signing.
	sep := strings.LastIndex(cookie, ".")
	require.Greater(t, sep, 0)
	for i := 0; i < sep; i++ {
		tampered := []byte(cookie)
		if tampered[i] == 'A' {
			tampered[i] = 'B'
		} else {
			tampered[i] = 'A'
		}
		if string(tampered) == cookie {
			continue
		}
		_, status := p.Parse(string(tampered), time.Now())
		assert.Equal(t, StatusInvalid, status, "byte %d", i)
	}
}

func TestParseExpiredTreatedAsNotAuthenticated(t *testing.T) {
	p, err := NewProtocol(testSecret, time.Hour)
	require.NoError(t, err)

	issued := time.Now()
	cookie, err := p.Issue(p.NewRecord(testIdentity(), issued))
	require.NoError(t, err)

	// Well-formed and correctly signed, but past Exp.
	rec, status := p.Parse(cookie, issued.Add(time.Hour+time.Second))
	assert.Equal(t, StatusExpired, status)
	assert.Zero(t, rec)
}

func TestParseMissingExp(t *testing.T) {
	p, err := NewProtocol(testSecret, time.Hour)
	require.NoError(t, err)

	payload, err := EncodeJSON(map[string]any{"user": testIdentity(), "role": "user"})
	require.NoError(t, err)
	signer, err := NewSigner(testSecret)
	require.NoError(t, err)
	cookie := payload + "." + signer.Sign(payload)

	_, status := p.Parse(cookie, time.Now())
	assert.Equal(t, StatusExpired, status)
}

func TestParseMalformed(t *testing.T) {
	p, err := NewProtocol(testSecret, time.Hour)
	require.NoError(t, err)

	signer, err := NewSigner(testSecret)
	require.NoError(t, err)
	notJSON := "bm90IGpzb24" // base64url("not json")

	tests := []struct {
		name   string
		cookie string
		want   Status
	}{
		{"empty value", "", StatusAbsent},
		{"no separator", "eyJmb28iOiJiYXIifQ", StatusInvalid},
		{"separator first", ".sig", StatusInvalid},
		{"separator last", "payload.", StatusInvalid},
		{"garbage signature", "eyJmb28iOiJiYXIifQ.!!!!", StatusInvalid},
		{"signed non-json payload", notJSON + "." + signer.Sign(notJSON), StatusInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, status := p.Parse(tt.cookie, time.Now())
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestNewProtocolRequiresSecret(t *testing.T) {
	_, err := NewProtocol("", time.Hour)
	require.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "valid", StatusValid.String())
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "invalid", StatusInvalid.String())
	assert.Equal(t, "expired", StatusExpired.String())
}
