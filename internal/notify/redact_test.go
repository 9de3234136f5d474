package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	in := "New booking from Jane (518) 555-1234, jane@example.com. Call +15188199978 to confirm."
	out := Redact(in)

	assert.NotContains(t, out, "555-1234")
	assert.NotContains(t, out, "jane@example.com")
	assert.NotContains(t, out, "8199978")
	assert.Contains(t, out, "Jane")
	assert.Contains(t, out, "[EMAIL]")
	assert.Contains(t, out, "[PHONE]")
}

func TestContactFingerprint(t *testing.T) {
	assert.Empty(t, ContactFingerprint(""))
	a := ContactFingerprint("+15185551234")
	assert.Len(t, a, 12)
	assert.Equal(t, a, ContactFingerprint("+15185551234"))
	assert.NotEqual(t, a, ContactFingerprint("+15185551235"))
}
