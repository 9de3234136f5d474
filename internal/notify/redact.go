package notify

import (
	"crypto/sha256"
	"fmt"
	"regexp"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)
)

// Redact masks email addresses and phone numbers so message previews can be logged.
func Redact(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	return phoneRe.ReplaceAllString(text, "[PHONE]")
}

// ContactFingerprint is a short stable hash of a phone number or email, for
// correlating log lines without printing the contact.
func ContactFingerprint(contact string) string {
	if contact == "" {
		return ""
	}
	h := sha256.Sum256([]byte(contact))
	return fmt.Sprintf("%x", h[:6])
}
