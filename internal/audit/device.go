package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceSummary condenses a User-Agent header into a short label for audit
// records, e.g. "Chrome 126 / Linux" or "mobile Safari 17 / iPhone".
func DeviceSummary(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}

	name, version := ua.Browser()
	if idx := strings.Index(version, "."); idx >= 0 {
		version = version[:idx]
	}

	var b strings.Builder
	if ua.Mobile() {
		b.WriteString("mobile ")
	}
	b.WriteString(name)
	if version != "" {
		b.WriteString(" " + version)
	}
	if os := ua.OS(); os != "" {
		b.WriteString(" / " + os)
	}
	return b.String()
}
