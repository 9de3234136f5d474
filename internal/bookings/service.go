package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

var bookingsTracer = otel.Tracer("fairdeal.internal.bookings")

// bookingNamespace derives stable record ids from client booking ids that are not UUIDs.
var bookingNamespace = uuid.MustParse("5b0f3c1e-8f0a-4d7e-9a59-3f4f2b6c1d20")

// Service keeps the dispatcher's log of relayed bookings.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// RecordID maps a client booking id onto the UUID used as primary key.
func RecordID(bookingID string) string {
	if bookingID == "" {
		return ""
	}
	if parsed, err := uuid.Parse(bookingID); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(bookingNamespace, []byte(bookingID)).String()
}

// RecordReceived stores p before any notification is attempted.
func (s *Service) RecordReceived(ctx context.Context, p booking.Payload, source string) (*Record, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("fairdeal.booking_id", p.BookingID),
		attribute.String("fairdeal.vehicle_type", p.VehicleType),
		attribute.String("fairdeal.source", source),
	)

	rec, err := s.repo.Create(ctx, &Record{
		ID:            RecordID(p.BookingID),
		PassengerName: p.PassengerName,
		PhoneNumber:   p.PhoneNumber,
		Email:         p.CustomerEmail(),
		Pickup:        p.Pickup,
		Dropoff:       p.Dropoff,
		RideDate:      p.Date,
		RideTime:      p.Time,
		VehicleType:   p.VehicleType,
		Baggage:       p.Baggage,
		EstimatedFare: p.EstimatedFare,
		Status:        StatusReceived,
		Source:        source,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: record: %w", err)
	}
	s.logger.Info("booking recorded", "booking_id", rec.ID, "vehicle_type", rec.VehicleType, "source", source)
	return rec, nil
}

// MarkNotified records whether the business was reached for id.
func (s *Service) MarkNotified(ctx context.Context, id string, delivered bool) error {
	status := StatusNotified
	if !delivered {
		status = StatusNotifyFailed
	}
	return s.SetStatus(ctx, id, status)
}

// SetStatus applies a dispatcher decision such as confirmed or cancelled.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.set_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("fairdeal.booking_id", id),
		attribute.String("fairdeal.status", string(status)),
	)
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking status updated", "booking_id", id, "status", status)
	return nil
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// Recent lists the newest bookings.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Record, error) {
	return s.repo.ListRecent(ctx, limit)
}
