package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
)

// QueueClient is the transport between Publisher and Worker.
type QueueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// QueueMessage is one received message.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

const jobKindBooking = "booking.notify.v1"

type queuePayload struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Booking    booking.Payload `json:"booking"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

func encodePayload(p booking.Payload, now time.Time) (queuePayload, string, error) {
	payload := queuePayload{
		ID:         uuid.NewString(),
		Kind:       jobKindBooking,
		Booking:    p,
		EnqueuedAt: now.UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("notify: encode payload: %w", err)
	}
	return payload, string(body), nil
}
