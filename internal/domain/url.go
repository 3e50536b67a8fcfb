package domain

import (
	"regexp"
	"strings"
)

// urlPattern accepts "host.tld[/path]" with an optional http(s) scheme.
// Matched case-insensitively.
var urlPattern = regexp.MustCompile(`(?i)^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// LooksLikeURL reports whether s passes the creation form URL check.
func LooksLikeURL(s string) bool {
	return urlPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeURL trims s and prefixes https:// when no http(s) scheme is present.
// An empty input stays empty.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	return "https://" + s
}

func trimSpace(s string) string { return strings.TrimSpace(s) }
