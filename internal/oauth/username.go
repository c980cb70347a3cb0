package oauth

import "strings"

const maxUsernameLen = 24

// deriveUsername builds a display-safe username from the provider name,
// falling back to the email local part, then to "user". Output is lowercase,
// restricted to [a-z0-9_.-], and length-capped.
func deriveUsername(name, email string) string {
	candidate := name
	if candidate == "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			candidate = email[:at]
		}
	}

	var b strings.Builder
	for _, r := range strings.ToLower(candidate) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('.')
		}
		if b.Len() >= maxUsernameLen {
			break
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "user"
	}
	return out
}
