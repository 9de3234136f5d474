package messaging

import "strings"

// NormalizeE164 returns value as +<digits>. Bare 10-digit numbers are
// treated as US numbers.
func NormalizeE164(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case digits == "":
		return ""
	case len(digits) == 10:
		return "+1" + digits
	default:
		return "+" + digits
	}
}
