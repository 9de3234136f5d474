package bootstrap

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/fairdeal-taxi/internal/business"
	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/internal/messaging"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// Email providers accepted in EMAIL_PROVIDER.
const (
	EmailProviderAuto     = "auto"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

// ErrNoQueue is returned when async relay is requested without a queue.
var ErrNoQueue = errors.New("bootstrap: NOTIFY_QUEUE_URL or USE_MEMORY_QUEUE required")

// NotifyDeps are the optional clients the notification service can use.
type NotifyDeps struct {
	Redis    *redis.Client
	SES      *sesv2.Client
	Observer notify.Observer
}

// BuildProfile returns the business profile with configured contact overrides.
func BuildProfile(cfg *appconfig.Config) business.Profile {
	return business.Default(cfg.BusinessEmail, cfg.BusinessPhone)
}

// BuildEmailSender picks the email provider and reports which one was chosen.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) (notify.EmailSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.EmailProvider))
	if preference == "" {
		preference = EmailProviderAuto
	}

	sendgrid := func() notify.EmailSender {
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
		return nil
	}
	sesSender := func() notify.EmailSender {
		if cfg.SESFromEmail == "" {
			return nil
		}
		if s := notify.NewSESSender(ses, notify.SESConfig{FromEmail: cfg.SESFromEmail, FromName: cfg.SendGridFromName}, logger); s != nil {
			return s
		}
		return nil
	}

	switch preference {
	case EmailProviderSendGrid:
		if s := sendgrid(); s != nil {
			return s, EmailProviderSendGrid
		}
		logger.Warn("sendgrid requested but SENDGRID_API_KEY missing; using stub email")
	case EmailProviderSES:
		if s := sesSender(); s != nil {
			return s, EmailProviderSES
		}
		logger.Warn("ses requested but SES_FROM_EMAIL or AWS config missing; using stub email")
	case EmailProviderAuto:
		if s := sendgrid(); s != nil {
			return s, EmailProviderSendGrid
		}
		if s := sesSender(); s != nil {
			return s, EmailProviderSES
		}
		logger.Warn("no email provider configured; using stub email")
	case EmailProviderStub:
	default:
		logger.Warn("unknown email provider; using stub email", "provider", preference)
	}
	return notify.NewStubEmailSender(logger), EmailProviderStub
}

// BuildSMSSender wires Twilio when configured, a logging stub otherwise.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) (notify.SMSSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	sender, provider, reason := messaging.BuildSMSSender(messaging.ProviderSelectionConfig{
		Preference:       cfg.SMSProvider,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromNumber: cfg.TwilioFromNumber,
	}, logger)
	if sender == nil {
		logger.Warn("sms provider unavailable; using stub sms", "reason", reason)
		return notify.NewStubSMSSender(logger), "stub"
	}
	return sender, provider
}

// BuildNotifyService assembles the relay service from config.
func BuildNotifyService(cfg *appconfig.Config, deps NotifyDeps, logger *logging.Logger) *notify.Service {
	if logger == nil {
		logger = logging.Default()
	}
	email, emailProvider := BuildEmailSender(cfg, deps.SES, logger)
	sms, smsProvider := BuildSMSSender(cfg, logger)

	opts := []notify.ServiceOption{}
	if d := notify.NewDeduper(deps.Redis, cfg.DedupeTTL); d != nil {
		opts = append(opts, notify.WithDeduper(d))
	}
	if deps.Observer != nil {
		opts = append(opts, notify.WithObserver(deps.Observer))
	}
	logger.Info("notification relay configured",
		"email_provider", emailProvider,
		"sms_provider", smsProvider,
		"dedupe", deps.Redis != nil,
	)
	return notify.NewService(email, sms, BuildProfile(cfg), logger, opts...)
}

// BuildNotifyQueue returns the async queue. memory is non-nil when the
// in-process queue was chosen, so the caller can run an inline worker.
func BuildNotifyQueue(cfg *appconfig.Config, sqsClient *sqs.Client) (queue notify.QueueClient, memory *notify.MemoryQueue, err error) {
	if cfg.UseMemoryQueue {
		memory = notify.NewMemoryQueue(64)
		return memory, memory, nil
	}
	if strings.TrimSpace(cfg.NotifyQueueURL) == "" || sqsClient == nil {
		return nil, nil, ErrNoQueue
	}
	return notify.NewSQSQueue(sqsClient, cfg.NotifyQueueURL), nil, nil
}
