package booking

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidValue is returned by SetField when a value cannot be stored.
	ErrInvalidValue = errors.New("booking: invalid value")
	// ErrUnknownField is returned by SetField for a field the form does not have.
	ErrUnknownField = errors.New("booking: unknown field")
	// ErrSubmissionInFlight is returned when Submit is called while a submission is pending or confirmed.
	ErrSubmissionInFlight = errors.New("booking: submission already in flight")
	// ErrClosed is returned after the form has been torn down.
	ErrClosed = errors.New("booking: form closed")
)

const maxPhoneDigits = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SanitizePhone keeps the decimal digits of input.
func SanitizePhone(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether phone is exactly ten digits.
func ValidPhone(phone string) bool {
	if len(phone) != maxPhoneDigits {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidEmail accepts a blank address or one shaped like local@domain.tld.
func ValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return true
	}
	return emailPattern.MatchString(email)
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every failing field in check order.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// First returns the earliest failing check, the one a single-message UI shows.
func (v ValidationErrors) First() (ValidationError, bool) {
	if len(v) == 0 {
		return ValidationError{}, false
	}
	return v[0], true
}

// Has reports whether field failed validation.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Messages shown to the customer for each failing check.
const (
	MsgNameRequired    = "Please enter your name"
	MsgPhoneInvalid    = "Please enter a valid 10-digit phone number"
	MsgEmailInvalid    = "Please enter a valid email address"
	MsgPickupRequired  = "Please enter a pickup location"
	MsgDropoffRequired = "Please enter a drop-off location"
	MsgDateRequired    = "Please select a pickup date"
	MsgDatePast        = "Pickup date cannot be in the past"
	MsgTimeRequired    = "Please select a pickup time"
)
