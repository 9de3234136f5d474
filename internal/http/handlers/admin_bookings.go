package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/bookings"
	httpmiddleware "github.com/wolfman30/fairdeal-taxi/internal/http/middleware"
	"github.com/wolfman30/fairdeal-taxi/internal/observability/metrics"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// AdminBookingsHandler serves the dispatcher's booking views.
type AdminBookingsHandler struct {
	db       *sql.DB
	bookings *bookings.Service
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	now      func() time.Time
}

// NewAdminBookingsHandler creates the admin handler. db may be nil when the
// API runs without Postgres; the summary then answers 503.
func NewAdminBookingsHandler(db *sql.DB, svc *bookings.Service, gatherer prometheus.Gatherer, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{db: db, bookings: svc, gatherer: gatherer, logger: logger, now: time.Now}
}

// Routes mounts under /admin/bookings.
func (h *AdminBookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListRecent)
	r.Get("/summary", h.Summary)
	r.Put("/{bookingID}/status", h.UpdateStatus)
	return r
}

// SummaryRow is one vehicle/status bucket.
type SummaryRow struct {
	VehicleType string `json:"vehicleType"`
	Status      string `json:"status"`
	Count       int    `json:"count"`
}

// SummaryResponse is returned by GET /admin/bookings/summary.
type SummaryResponse struct {
	Since        time.Time               `json:"since"`
	Total        int                     `json:"total"`
	ByVehicle    map[string]int          `json:"byVehicle"`
	ByStatus     map[string]int          `json:"byStatus"`
	Rows         []SummaryRow            `json:"rows"`
	RelayLatency metrics.LatencySnapshot `json:"relayLatency"`
}

const summaryQuery = `
	SELECT vehicle_type, status, COUNT(*)
	FROM bookings
	WHERE created_at >= $1 AND ($2::text[] IS NULL OR vehicle_type = ANY($2))
	GROUP BY vehicle_type, status
	ORDER BY vehicle_type, status`

// Summary counts bookings by vehicle and status.
// GET /admin/bookings/summary?days=7&vehicle=suv,limo
func (h *AdminBookingsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		jsonError(w, http.StatusServiceUnavailable, "summary requires a database")
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			jsonError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}
	vehicles, err := parseVehicleFilter(r.URL.Query().Get("vehicle"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	since := h.now().UTC().AddDate(0, 0, -days)
	rows, err := h.db.QueryContext(r.Context(), summaryQuery, since, pq.Array(vehicles))
	if err != nil {
		h.logger.Error("booking summary query failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	defer rows.Close()

	resp := SummaryResponse{
		Since:     since,
		ByVehicle: map[string]int{},
		ByStatus:  map[string]int{},
		Rows:      []SummaryRow{},
	}
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.VehicleType, &row.Status, &row.Count); err != nil {
			h.logger.Error("booking summary scan failed", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to load summary")
			return
		}
		resp.Rows = append(resp.Rows, row)
		resp.Total += row.Count
		resp.ByVehicle[row.VehicleType] += row.Count
		resp.ByStatus[row.Status] += row.Count
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("booking summary rows failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	resp.RelayLatency = metrics.SnapshotRelayLatency(h.gatherer)

	writeJSON(w, http.StatusOK, resp)
}

// parseVehicleFilter returns nil for an empty filter so the query skips it.
func parseVehicleFilter(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		v, err := booking.ParseVehicleType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, string(v))
	}
	return out, nil
}

// ListRecent returns the newest bookings.
// GET /admin/bookings?limit=50
func (h *AdminBookingsHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := h.bookings.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	if recs == nil {
		recs = []*bookings.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": recs, "count": len(recs)})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus records the dispatcher's decision on a booking.
// PUT /admin/bookings/{bookingID}/status
func (h *AdminBookingsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	var req statusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, err := bookings.ParseStatus(req.Status)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.bookings.SetStatus(r.Context(), id, status)
	switch {
	case errors.Is(err, bookings.ErrNotFound):
		jsonError(w, http.StatusNotFound, "booking not found")
		return
	case err != nil:
		h.logger.Error("update booking status failed", "error", err, "booking_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}

	actor := "unknown"
	if claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		actor = claims.Subject
	}
	h.logger.Info("booking status updated", "booking_id", id, "status", status, "actor", actor)
	w.WriteHeader(http.StatusNoContent)
}
