package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/fairdeal-taxi/cmd/mainconfig"
	"github.com/wolfman30/fairdeal-taxi/internal/api/router"
	"github.com/wolfman30/fairdeal-taxi/internal/app/bootstrap"
	"github.com/wolfman30/fairdeal-taxi/internal/booking"
	"github.com/wolfman30/fairdeal-taxi/internal/bookings"
	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/fairdeal-taxi/internal/http/middleware"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/internal/observability/metrics"
	"github.com/wolfman30/fairdeal-taxi/internal/reviews"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting fairdeal-taxi API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pg := bootstrap.BuildPostgres(ctx, cfg, logger)
	defer pg.Close()

	registry, metricsHandler, bookingMetrics := setupMetrics()

	var sesClient *sesv2.Client
	var sqsClient *sqs.Client
	if mainconfig.NeedsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		sesClient = sesv2.NewFromConfig(awsCfg)
		sqsClient = sqs.NewFromConfig(awsCfg)
	}

	notifySvc := bootstrap.BuildNotifyService(cfg, bootstrap.NotifyDeps{
		Redis:    redisClient,
		SES:      sesClient,
		Observer: bookingMetrics,
	}, logger)
	store := bootstrap.BuildBookingsService(pg, logger)

	relay, memoryQueue, err := setupRelay(cfg, notifySvc, store, sqsClient, logger)
	if err != nil {
		logger.Error("failed to configure notification relay", "error", err)
		os.Exit(1)
	}
	worker := setupInlineWorker(ctx, cfg, notifySvc, store, memoryQueue, logger)

	profile := notifySvc.Profile()
	contact := booking.Contact{Email: profile.Email, Phone: profile.Phone}
	sessions := setupSessions(cfg, setupNotifier(cfg, relay, contact, logger), bookingMetrics, logger)
	go sessions.Run(ctx, time.Minute)
	bookingMetrics.TrackSessions(sessions.Len)

	catalog := reviews.NewCatalog(redisClient)
	reviewSet, err := catalog.Load(ctx)
	if err != nil {
		logger.Warn("failed to load published reviews; serving defaults", "error", err)
		reviewSet = reviews.Defaults()
	}

	routerCfg := &router.Config{
		Logger:             logger,
		BookingHandler:     booking.NewHandler(sessions, logger),
		ReviewsHandler:     reviews.NewHandler(reviewSet, catalog, cfg.ReviewsAutoplayInterval, bookingMetrics, logger),
		Profile:            profile,
		RelayHandler:       handlers.NewBookingRelayHandler(relay, bookingMetrics, "http", logger),
		AdminBookings:      handlers.NewAdminBookingsHandler(sqlDB(pg), store, registry, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RelayLimiter:       setupLimiter(ctx, cfg, redisClient),
		Readiness:          readinessChecks(redisClient, pg),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	bootstrap.WaitForWorker(worker, 10*time.Second, logger)

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (*prometheus.Registry, http.Handler, *metrics.BookingMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(registry)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m
}

// setupRelay returns the relay behind /api/send-booking-notification. With
// RELAY_ASYNC the relay enqueues; memoryQueue is set when an inline worker
// must drain it.
func setupRelay(cfg *appconfig.Config, svc *notify.Service, store *bookings.Service, sqsClient *sqs.Client, logger *logging.Logger) (*notify.Relay, *notify.MemoryQueue, error) {
	if !cfg.RelayAsync {
		return bootstrap.BuildRelay(svc, store, nil, "web", logger), nil, nil
	}
	queue, memoryQueue, err := bootstrap.BuildNotifyQueue(cfg, sqsClient)
	if err != nil {
		return nil, nil, err
	}
	return bootstrap.BuildRelay(svc, store, queue, "web", logger), memoryQueue, nil
}

// setupInlineWorker drains the in-process queue. SQS queues are drained by
// cmd/notify-worker instead.
func setupInlineWorker(ctx context.Context, cfg *appconfig.Config, svc *notify.Service, store *bookings.Service, memoryQueue *notify.MemoryQueue, logger *logging.Logger) *notify.Worker {
	if memoryQueue == nil {
		return nil
	}
	drain := bootstrap.BuildRelay(svc, store, nil, "web", logger)
	logger.Info("starting inline notify worker", "workers", cfg.WorkerCount)
	return bootstrap.StartNotifyWorker(ctx, cfg, drain, memoryQueue, logger)
}

// setupNotifier posts to a remote relay when RELAY_URL is set and relays
// in-process otherwise.
func setupNotifier(cfg *appconfig.Config, relay notify.Relayer, contact booking.Contact, logger *logging.Logger) booking.Notifier {
	if cfg.RelayURL != "" {
		logger.Info("booking form posts to remote relay", "url", cfg.RelayURL)
		return booking.NewRelayClient(cfg.RelayURL, contact, logger)
	}
	return notify.NewBookingNotifier(relay, contact)
}

func setupSessions(cfg *appconfig.Config, notifier booking.Notifier, observer booking.Observer, logger *logging.Logger) *booking.Sessions {
	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Warn("unknown business timezone; using local time", "timezone", cfg.BusinessTimezone, "error", err)
		loc = time.Local
	}
	return booking.NewSessions(func() *booking.Form {
		return booking.NewForm(booking.FormConfig{
			Notifier:      notifier,
			Observer:      observer,
			Logger:        logger,
			Location:      loc,
			ResetDelay:    cfg.BookingResetDelay,
			NotifyTimeout: cfg.NotifyTimeout,
		})
	}, cfg.BookingSessionTTL)
}

// setupLimiter shares counters across instances through Redis when it is
// available and falls back to a per-process token bucket.
func setupLimiter(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client) httpmiddleware.Limiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	if redisClient != nil {
		perMinute := int(cfg.RateLimitRPS*60) + cfg.RateLimitBurst
		return httpmiddleware.NewRedisLimiter(redisClient, perMinute, time.Minute)
	}
	limiter := httpmiddleware.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)
	return limiter
}

func readinessChecks(redisClient *redis.Client, pg *bootstrap.Postgres) map[string]router.ReadinessCheck {
	checks := map[string]router.ReadinessCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if pg != nil {
		checks["postgres"] = func(ctx context.Context) error { return pg.Pool.Ping(ctx) }
	}
	return checks
}

func sqlDB(pg *bootstrap.Postgres) *sql.DB {
	if pg == nil {
		return nil
	}
	return pg.DB
}
