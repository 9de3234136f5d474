package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// Publisher enqueues booking notifications for the notify worker.
type Publisher struct {
	queue  QueueClient
	logger *logging.Logger
	now    func() time.Time
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue QueueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger, now: time.Now}
}

// Enqueue validates p and hands it to the queue.
func (p *Publisher) Enqueue(ctx context.Context, payload booking.Payload) error {
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	job, body, err := encodePayload(payload, p.now())
	if err != nil {
		return err
	}
	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("notify: enqueue booking: %w", err)
	}
	p.logger.Debug("booking notification enqueued", "job_id", job.ID, "booking_id", payload.BookingID)
	return nil
}
