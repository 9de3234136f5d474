package notify

import (
	"context"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
)

// BookingNotifier lets the booking form hand a validated request to a
// Relayer in-process.
type BookingNotifier struct {
	relay   Relayer
	contact booking.Contact
}

// NewBookingNotifier adapts relay to booking.Notifier. Partial and queued
// outcomes count as success since the business will get at least one alert.
func NewBookingNotifier(relay Relayer, contact booking.Contact) *BookingNotifier {
	if relay == nil {
		panic("notify: relayer required")
	}
	return &BookingNotifier{relay: relay, contact: contact}
}

// NotifyBooking implements booking.Notifier.
func (n *BookingNotifier) NotifyBooking(ctx context.Context, req booking.BookingRequest) error {
	outcome, err := n.relay.NotifyBooking(ctx, booking.NewPayload(req, n.contact))
	if outcome.Delivered() {
		return nil
	}
	return err
}

var _ booking.Notifier = (*BookingNotifier)(nil)
