package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/business"
	"github.com/wolfman30/fairdeal-taxi/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/fairdeal-taxi/internal/http/middleware"
	"github.com/wolfman30/fairdeal-taxi/internal/reviews"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	ReviewsHandler     *reviews.Handler
	Profile            business.Profile
	RelayHandler       http.Handler
	AdminBookings      *handlers.AdminBookingsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RelayLimiter throttles the public relay and session endpoints; nil disables it.
	RelayLimiter httpmiddleware.Limiter

	Readiness map[string]ReadinessCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	limited := func(h http.Handler) http.Handler { return h }
	if cfg.RelayLimiter != nil {
		limited = httpmiddleware.RateLimit(cfg.RelayLimiter, cfg.Logger)
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		public.Get("/ready", ready(cfg.Readiness))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		// Websocket upgrades skip compression.
		if cfg.ReviewsHandler != nil {
			public.Get("/ws/reviews", cfg.ReviewsHandler.HandleWebSocket)
		}

		public.Group(func(api chi.Router) {
			api.Use(middleware.Compress(5))
			api.Get("/api/business", business.Handler(cfg.Profile))
			if cfg.ReviewsHandler != nil {
				api.Get("/api/reviews", cfg.ReviewsHandler.List)
			}
			if cfg.BookingHandler != nil {
				api.With(limited).Mount("/api/booking", cfg.BookingHandler.Routes())
			}
			if cfg.RelayHandler != nil {
				api.With(limited).Post("/api/send-booking-notification", cfg.RelayHandler.ServeHTTP)
			}
		})
	})

	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.AdminBookings != nil {
				admin.Mount("/bookings", cfg.AdminBookings.Routes())
			}
			if cfg.ReviewsHandler != nil {
				admin.Put("/reviews", cfg.ReviewsHandler.Publish)
			}
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func ready(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"ready": status == http.StatusOK, "checks": results})
	}
}
