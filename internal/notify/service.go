package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/business"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

var notifyTracer = otel.Tracer("fairdeal.internal.notify")

// ErrInvalidPayload is returned for payloads missing required booking fields.
var ErrInvalidPayload = errors.New("notify: invalid booking payload")

// Outcome summarises one relay attempt.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeQueued    Outcome = "queued"
)

// Delivered reports whether the business has been, or will be, alerted.
func (o Outcome) Delivered() bool {
	return o != OutcomeFailed && o != ""
}

// Notification channels, used in logs and metrics.
const (
	ChannelBusinessEmail = "business_email"
	ChannelBusinessSMS   = "business_sms"
	ChannelCustomerEmail = "customer_email"
)

// Observer receives per-channel results and overall relay latency.
type Observer interface {
	ObserveNotification(channel, status string)
	ObserveRelay(outcome string, elapsed time.Duration)
}

// Service relays a booking to the business by email and SMS and confirms to
// the customer when they left an email address.
type Service struct {
	email    EmailSender
	sms      SMSSender
	profile  business.Profile
	deduper  *Deduper
	observer Observer
	logger   *logging.Logger
	now      func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithDeduper skips bookings that were already relayed.
func WithDeduper(d *Deduper) ServiceOption {
	return func(s *Service) { s.deduper = d }
}

// WithObserver reports channel results, typically to Prometheus.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// NewService creates a notification service. Nil senders fall back to stubs.
func NewService(email EmailSender, sms SMSSender, profile business.Profile, logger *logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if sms == nil {
		sms = NewStubSMSSender(logger)
	}
	s := &Service{
		email:   email,
		sms:     sms,
		profile: profile,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile returns the business profile used in templates.
func (s *Service) Profile() business.Profile { return s.profile }

// NotifyBooking sends the business email, the business SMS and, when the
// customer gave an address, a confirmation email. Failures on individual
// channels are joined; the outcome tells whether anything got through.
// Recipients always come from the configured profile, never from the payload.
func (s *Service) NotifyBooking(ctx context.Context, p booking.Payload) (Outcome, error) {
	ctx, span := notifyTracer.Start(ctx, "notify.booking")
	defer span.End()
	span.SetAttributes(
		attribute.String("fairdeal.booking_id", p.BookingID),
		attribute.String("fairdeal.vehicle_type", p.VehicleType),
	)

	start := s.now()
	outcome, err := s.notify(ctx, p)
	if s.observer != nil {
		s.observer.ObserveRelay(string(outcome), s.now().Sub(start))
	}
	span.SetAttributes(attribute.String("fairdeal.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		if outcome == OutcomeFailed {
			span.SetStatus(codes.Error, "booking notification failed")
		}
	}
	return outcome, err
}

func (s *Service) notify(ctx context.Context, p booking.Payload) (Outcome, error) {
	if err := p.Validate(); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	claimed, err := s.deduper.Claim(ctx, p.BookingID)
	if err != nil {
		// Redis trouble must not cost the business a booking.
		s.logger.Warn("notify: dedupe unavailable, sending anyway", "error", err, "booking_id", p.BookingID)
		claimed = true
	}
	if !claimed {
		s.logger.Info("notify: booking already relayed", "booking_id", p.BookingID)
		return OutcomeDuplicate, nil
	}

	var (
		errs      []error
		delivered int
	)
	record := func(channel, to string, err error) {
		status := "sent"
		if err != nil {
			status = "failed"
			errs = append(errs, fmt.Errorf("notify: %s to %s: %w", channel, to, err))
			s.logger.Error("notify: channel failed", "channel", channel, "error", err, "to_fp", ContactFingerprint(to), "booking_id", p.BookingID)
		} else {
			delivered++
			s.logger.Info("notify: channel sent", "channel", channel, "to_fp", ContactFingerprint(to), "booking_id", p.BookingID)
		}
		if s.observer != nil {
			s.observer.ObserveNotification(channel, status)
		}
	}

	record(ChannelBusinessEmail, s.profile.Email, s.email.Send(ctx, EmailMessage{
		To:          s.profile.Email,
		ToName:      s.profile.Name,
		ReplyTo:     p.CustomerEmail(),
		ReplyToName: p.PassengerName,
		Category:    categoryDispatch,
		Subject:     businessSubject(p),
		Body:        formatBusinessEmailText(p, s.profile),
		HTML:        formatBusinessEmailHTML(p, s.profile),
	}))

	record(ChannelBusinessSMS, s.profile.Phone, s.sms.SendSMS(ctx, s.profile.Phone, formatBusinessSMS(p, s.profile)))

	if customer := p.CustomerEmail(); customer != "" {
		record(ChannelCustomerEmail, customer, s.email.Send(ctx, EmailMessage{
			To:          customer,
			ToName:      p.PassengerName,
			ReplyTo:     s.profile.Email,
			ReplyToName: s.profile.Name,
			Category:    categoryConfirmation,
			Subject:     customerSubject,
			Body:        formatCustomerEmailText(p, s.profile),
			HTML:        formatCustomerEmailHTML(p, s.profile),
		}))
	}

	switch {
	case len(errs) == 0:
		return OutcomeSent, nil
	case delivered > 0:
		return OutcomePartial, errors.Join(errs...)
	default:
		if relErr := s.deduper.Release(context.WithoutCancel(ctx), p.BookingID); relErr != nil {
			s.logger.Warn("notify: release dedupe claim failed", "error", relErr, "booking_id", p.BookingID)
		}
		return OutcomeFailed, errors.Join(errs...)
	}
}
