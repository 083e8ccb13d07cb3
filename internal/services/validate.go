package services

import (
	"regexp"
	"strings"
)

var emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like a deliverable address. Checked
// before any provider or store call is made.
func ValidEmail(s string) bool {
	return emailRx.MatchString(strings.TrimSpace(s))
}

// NormalizeEmail lowers and trims an address for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeCode canonicalizes a referral code: trimmed, uppercase.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
