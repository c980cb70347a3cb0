package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateEntropy(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 43) // 32 bytes base64url
}

func TestValidateState(t *testing.T) {
	tests := []struct {
		name     string
		cookie   string
		callback string
		want     bool
	}{
		{"match", "abc123", "abc123", true},
		{"mismatch", "abc123", "abc124", false},
		{"empty cookie", "", "abc123", false},
		{"empty callback", "abc123", "", false},
		{"both empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateState(tt.cookie, tt.callback))
		})
	}
}

func TestSanitizeReturnTo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty defaults to root", "", "/"},
		{"relative path kept", "/live/match-42", "/live/match-42"},
		{"absolute url rejected", "https://evil.example/", "/"},
		{"protocol relative rejected", "//evil.example/", "/"},
		{"no leading slash rejected", "account", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeReturnTo(tt.input))
		})
	}
}

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		name  string
		full  string
		email string
		want  string
	}{
		{"from name", "Alice Example", "", "alice.example"},
		{"from email local part", "", "bob.winner@example.com", "bob.winner"},
		{"strips unsafe runes", "Álice <script>", "", "lice.script"},
		{"length capped", "abcdefghijklmnopqrstuvwxyz0123", "", "abcdefghijklmnopqrstuvwx"},
		{"all unsafe falls back", "权志龙", "", "user"},
		{"nothing falls back", "", "", "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveUsername(tt.full, tt.email)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), maxUsernameLen)
		})
	}
}
