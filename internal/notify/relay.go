package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/bookings"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// BookingStore keeps the dispatcher's record of relayed bookings.
// *bookings.Service implements it.
type BookingStore interface {
	RecordReceived(ctx context.Context, p booking.Payload, source string) (*bookings.Record, error)
	MarkNotified(ctx context.Context, id string, delivered bool) error
}

// Relay is the single entry point for a booking on its way to the business:
// record it, then either send inline or enqueue for the worker.
type Relay struct {
	sender    Relayer
	publisher *Publisher
	store     BookingStore
	source    string
	logger    *logging.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithPublisher switches the relay to async mode.
func WithPublisher(p *Publisher) RelayOption {
	return func(r *Relay) { r.publisher = p }
}

// WithBookingStore records each booking before it is relayed.
func WithBookingStore(s BookingStore) RelayOption {
	return func(r *Relay) { r.store = s }
}

// WithSource tags stored bookings with where they came from.
func WithSource(source string) RelayOption {
	return func(r *Relay) { r.source = source }
}

// NewRelay builds a relay around sender. sender may be nil in async mode.
func NewRelay(sender Relayer, logger *logging.Logger, opts ...RelayOption) *Relay {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Relay{sender: sender, source: "web", logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	if r.sender == nil && r.publisher == nil {
		panic("notify: relay needs a sender or a publisher")
	}
	return r
}

// NotifyBooking implements Relayer, so the worker can drain into a Relay and
// keep the stored status current.
func (r *Relay) NotifyBooking(ctx context.Context, p booking.Payload) (Outcome, error) {
	if err := p.Validate(); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if p.BookingID == "" {
		p.BookingID = uuid.NewString()
	}

	recordID := r.record(ctx, p)

	var (
		outcome Outcome
		err     error
	)
	if r.publisher != nil {
		outcome = OutcomeQueued
		if err = r.publisher.Enqueue(ctx, p); err != nil {
			outcome = OutcomeFailed
		}
	} else {
		outcome, err = r.sender.NotifyBooking(ctx, p)
	}

	if outcome != OutcomeQueued && outcome != OutcomeDuplicate {
		r.mark(ctx, recordID, outcome.Delivered())
	}
	return outcome, err
}

func (r *Relay) record(ctx context.Context, p booking.Payload) string {
	if r.store == nil {
		return ""
	}
	rec, err := r.store.RecordReceived(ctx, p, r.source)
	if err != nil {
		r.logger.Warn("booking not recorded, relaying anyway", "error", err, "booking_id", p.BookingID)
		return ""
	}
	return rec.ID
}

func (r *Relay) mark(ctx context.Context, id string, delivered bool) {
	if r.store == nil || id == "" {
		return
	}
	if err := r.store.MarkNotified(ctx, id, delivered); err != nil {
		r.logger.Warn("booking status not updated", "error", err, "booking_id", id)
	}
}

var _ Relayer = (*Relay)(nil)
