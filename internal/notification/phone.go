package notification

import "strings"

// FormatPhone normalizes a phone number to E.164. Non-digits and a single
// leading zero are stripped; a bare 10-digit national number gets
// countryCode prepended. ok is false when no digits remain.
func FormatPhone(raw, countryCode string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := strings.TrimPrefix(b.String(), "0")
	if digits == "" {
		return "", false
	}

	if len(digits) == 10 && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return "+" + digits, true
}
