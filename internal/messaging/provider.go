package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

const (
	// SMSProviderAuto picks Twilio when credentials exist.
	SMSProviderAuto = "auto"
	// SMSProviderTwilio requires Twilio credentials.
	SMSProviderTwilio = "twilio"
	// SMSProviderNone disables outbound SMS.
	SMSProviderNone = "none"
)

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// ProviderSelectionConfig captures the credentials required to build an SMS sender.
type ProviderSelectionConfig struct {
	Preference       string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

// BuildSMSSender returns the sender for the preferred provider, the provider
// that was selected, and a reason when none could be initialized.
func BuildSMSSender(cfg ProviderSelectionConfig, logger *logging.Logger) (SMSSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = SMSProviderAuto
	}

	switch preference {
	case SMSProviderNone:
		return nil, "", "SMS disabled"
	case SMSProviderAuto, SMSProviderTwilio:
	default:
		return nil, "", fmt.Sprintf("unknown SMS provider %q", preference)
	}

	var reasons []string
	if cfg.TwilioAccountSID == "" {
		reasons = append(reasons, "TWILIO_ACCOUNT_SID missing")
	}
	if cfg.TwilioAuthToken == "" {
		reasons = append(reasons, "TWILIO_AUTH_TOKEN missing")
	}
	if cfg.TwilioFromNumber == "" {
		reasons = append(reasons, "TWILIO_FROM_NUMBER missing")
	}
	if len(reasons) > 0 {
		return nil, "", "twilio: " + strings.Join(reasons, ", ")
	}
	return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger), SMSProviderTwilio, ""
}
