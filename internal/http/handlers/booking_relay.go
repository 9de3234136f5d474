package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// RelayObserver counts relay requests by transport and response status.
type RelayObserver interface {
	ObserveRelayRequest(transport string, status int)
}

// BookingRelayHandler serves POST /api/send-booking-notification.
type BookingRelayHandler struct {
	relay     notify.Relayer
	observer  RelayObserver
	transport string
	logger    *logging.Logger
}

// RelayResponse mirrors the JSON the booking site expects back.
type RelayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

const relaySuccessMessage = "Booking notification sent successfully"

// NewBookingRelayHandler wires relay behind HTTP. transport labels metrics
// ("http" for the API server, "lambda" for API Gateway).
func NewBookingRelayHandler(relay notify.Relayer, observer RelayObserver, transport string, logger *logging.Logger) *BookingRelayHandler {
	if relay == nil {
		panic("handlers: relay required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if transport == "" {
		transport = "http"
	}
	return &BookingRelayHandler{relay: relay, observer: observer, transport: transport, logger: logger}
}

func (h *BookingRelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, resp := h.handle(w, r)
	if h.observer != nil {
		h.observer.ObserveRelayRequest(h.transport, status)
	}
	writeJSON(w, status, resp)
}

func (h *BookingRelayHandler) handle(w http.ResponseWriter, r *http.Request) (int, RelayResponse) {
	var payload booking.Payload
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return http.StatusBadRequest, RelayResponse{Error: "invalid JSON body"}
	}

	outcome, err := h.relay.NotifyBooking(r.Context(), payload)
	switch {
	case errors.Is(err, notify.ErrInvalidPayload):
		h.logger.Warn("rejected booking notification", "error", err)
		return http.StatusBadRequest, RelayResponse{Error: err.Error()}
	case !outcome.Delivered():
		h.logger.Error("booking notification failed", "error", err, "booking_id", payload.BookingID)
		return http.StatusInternalServerError, RelayResponse{Error: "failed to send booking notification"}
	case err != nil:
		h.logger.Warn("booking notification partially delivered", "error", err, "booking_id", payload.BookingID)
	}
	h.logger.Info("booking notification relayed", "booking_id", payload.BookingID, "outcome", outcome)
	return http.StatusOK, RelayResponse{Success: true, Message: relaySuccessMessage}
}
