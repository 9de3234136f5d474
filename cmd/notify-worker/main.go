package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/fairdeal-taxi/cmd/mainconfig"
	"github.com/wolfman30/fairdeal-taxi/internal/app/bootstrap"
	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/internal/observability/metrics"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.NotifyQueueURL == "" {
		logger.Error("notify worker requires NOTIFY_QUEUE_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	sqsClient := sqs.NewFromConfig(awsConfig)
	queue := notify.NewSQSQueue(sqsClient, cfg.NotifyQueueURL)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pg := bootstrap.BuildPostgres(ctx, cfg, logger)
	defer pg.Close()

	svc := bootstrap.BuildNotifyService(cfg, bootstrap.NotifyDeps{
		Redis:    redisClient,
		SES:      sesv2.NewFromConfig(awsConfig),
		Observer: bookingMetrics,
	}, logger)
	store := bootstrap.BuildBookingsService(pg, logger)
	relay := bootstrap.BuildRelay(svc, store, nil, "web", logger)

	worker := bootstrap.StartNotifyWorker(ctx, cfg, relay, queue, logger)
	logger.Info("notify worker started", "workers", cfg.WorkerCount, "queue", cfg.NotifyQueueURL)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notify worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	bootstrap.WaitForWorker(worker, 30*time.Second, logger)
}
