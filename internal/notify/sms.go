package notify

import (
	"context"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// SMSSender sends a text message to one number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// StubSMSSender is a no-op sender used when Twilio is not configured.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to_fp", ContactFingerprint(to), "body_preview", truncate(Redact(body), 50))
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

var _ SMSSender = (*StubSMSSender)(nil)
