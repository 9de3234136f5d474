package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// Handler exposes booking form sessions over HTTP.
type Handler struct {
	sessions *Sessions
	logger   *logging.Logger
}

// NewHandler creates a booking handler.
func NewHandler(sessions *Sessions, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sessions: sessions, logger: logger}
}

// Routes returns the router mounted at /api/booking.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/options", h.Options)
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Put("/fields/{field}", h.SetField)
		r.Post("/submit", h.Submit)
	})
	return r
}

// OptionsResponse lists the selectable values of the form.
type OptionsResponse struct {
	VehicleTypes []Option `json:"vehicleTypes"`
	Baggage      []Option `json:"baggage"`
	TimeSlots    []string `json:"timeSlots"`
}

// SessionResponse is returned by every session endpoint.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Snapshot
}

type setFieldRequest struct {
	Value string `json:"value"`
}

type errorResponse struct {
	Error  string           `json:"error"`
	Errors ValidationErrors `json:"errors,omitempty"`
}

// Options handles GET /api/booking/options
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OptionsResponse{
		VehicleTypes: VehicleOptions(),
		Baggage:      BaggageOptions(),
		TimeSlots:    TimeSlots(),
	})
}

// CreateSession handles POST /api/booking/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, form := h.sessions.Create()
	h.logger.Debug("booking session created", "session_id", id)
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Snapshot: form.Snapshot()})
}

// GetSession handles GET /api/booking/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, Snapshot: form.Snapshot()})
}

// DeleteSession handles DELETE /api/booking/sessions/{sessionID}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Remove(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetField handles PUT /api/booking/sessions/{sessionID}/fields/{field}
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	field := chi.URLParam(r, "field")
	if err := form.SetField(field, req.Value); err != nil {
		switch {
		case errors.Is(err, ErrUnknownField):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrClosed):
			writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, Snapshot: form.Snapshot()})
}

// Submit handles POST /api/booking/sessions/{sessionID}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sub, err := form.Submit(r.Context())
	if err != nil {
		var verrs ValidationErrors
		switch {
		case errors.As(err, &verrs):
			first, _ := verrs.First()
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: first.Message, Errors: verrs})
		case errors.Is(err, ErrSubmissionInFlight):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrClosed):
			writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
		default:
			h.logger.Error("booking submit failed", "error", err, "session_id", id)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "submit failed"})
		}
		return
	}

	h.logger.Info("booking confirmed", "session_id", id, "booking_id", sub.BookingID, "delivered", sub.Delivered)
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, Snapshot: form.Snapshot()})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *Form, bool) {
	id := chi.URLParam(r, "sessionID")
	form, ok := h.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return id, nil, false
	}
	return id, form, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
