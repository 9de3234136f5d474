package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// Handler serves the review list and a live carousel feed.
type Handler struct {
	set      []Review
	catalog  *Catalog
	interval time.Duration
	observer MoveObserver
	logger   *logging.Logger
}

// NewHandler creates a handler over a review set loaded at startup.
func NewHandler(set []Review, catalog *Catalog, interval time.Duration, observer MoveObserver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}
	return &Handler{
		set:      append([]Review(nil), set...),
		catalog:  catalog,
		interval: interval,
		observer: observer,
		logger:   logger,
	}
}

// ListResponse is returned by GET /api/reviews.
type ListResponse struct {
	Reviews            []Review `json:"reviews"`
	Count              int      `json:"count"`
	AutoplayIntervalMs int64    `json:"autoplayIntervalMs"`
}

// List handles GET /api/reviews
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ListResponse{
		Reviews:            h.set,
		Count:              len(h.set),
		AutoplayIntervalMs: h.interval.Milliseconds(),
	})
}

// Publish handles PUT /admin/reviews. The stored set is served after the next restart.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var set []Review
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.catalog.Publish(r.Context(), set); err != nil {
		h.logger.Warn("reviews: publish rejected", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Info("reviews: catalog published", "count", len(set))
	w.WriteHeader(http.StatusNoContent)
}

// ClientMessage is sent by the browser over the websocket.
type ClientMessage struct {
	Type    string `json:"type"` // "key", "jump", "autoplay", "ping"
	Key     Key    `json:"key,omitempty"`
	Index   int    `json:"index,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

// ServerMessage is pushed to the browser.
type ServerMessage struct {
	Type     string  `json:"type"` // "state", "move", "error", "pong"
	Index    int     `json:"index"`
	Count    int     `json:"count,omitempty"`
	Autoplay bool    `json:"autoplay"`
	Cause    string  `json:"cause,omitempty"`
	Review   *Review `json:"review,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// HandleWebSocket handles GET /ws/reviews. Each connection gets its own
// carousel, torn down when the socket closes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(r.Context(), conn)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(ctx context.Context, conn *websocket.Conn) {
	carousel, err := NewCarousel(h.set, WithObserver(h.observer))
	if err != nil {
		_ = websocket.JSON.Send(conn, ServerMessage{Type: "error", Error: err.Error()})
		return
	}
	defer carousel.Close()

	keys := NewKeyEvents()
	carousel.BindKeys(keys)

	carousel.Watch(func(m Move) {
		review := m.Review
		_ = websocket.JSON.Send(conn, ServerMessage{
			Type:     "move",
			Index:    m.Index,
			Autoplay: carousel.Autoplay(),
			Cause:    m.Cause,
			Review:   &review,
		})
	})

	sendState := func() {
		active := carousel.Active()
		_ = websocket.JSON.Send(conn, ServerMessage{
			Type:     "state",
			Index:    carousel.Index(),
			Count:    carousel.Len(),
			Autoplay: carousel.Autoplay(),
			Review:   &active,
		})
	}
	sendState()

	h.logger.Debug("reviews: feed opened", "remote", conn.Request().RemoteAddr)

	var stopAutoplay func()
	for {
		var msg ClientMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("reviews: feed closed", "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, ServerMessage{Type: "pong", Index: carousel.Index()})
		case "key":
			keys.Publish(msg.Key)
		case "jump":
			if err := carousel.JumpTo(msg.Index); err != nil {
				_ = websocket.JSON.Send(conn, ServerMessage{Type: "error", Index: carousel.Index(), Error: err.Error()})
			}
		case "autoplay":
			if msg.Enabled {
				stopAutoplay = carousel.StartAutoplay(ctx, h.interval)
			} else if stopAutoplay != nil {
				stopAutoplay()
				stopAutoplay = nil
			}
			sendState()
		default:
			_ = websocket.JSON.Send(conn, ServerMessage{Type: "error", Index: carousel.Index(), Error: "unknown message type"})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
