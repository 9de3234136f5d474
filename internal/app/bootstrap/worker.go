package bootstrap

import (
	"context"
	"time"

	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

// StartNotifyWorker drains queue into relay until ctx is cancelled.
func StartNotifyWorker(ctx context.Context, cfg *appconfig.Config, relay notify.Relayer, queue notify.QueueClient, logger *logging.Logger) *notify.Worker {
	if queue == nil || relay == nil {
		return nil
	}
	worker := notify.NewWorker(relay, queue, logger,
		notify.WithWorkerCount(cfg.WorkerCount),
		notify.WithJobTimeout(cfg.NotifyTimeout),
	)
	worker.Start(ctx)
	return worker
}

// WaitForWorker blocks until worker exits or timeout passes.
func WaitForWorker(worker *notify.Worker, timeout time.Duration, logger *logging.Logger) bool {
	if worker == nil {
		return true
	}
	if logger == nil {
		logger = logging.Default()
	}
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("notify worker stopped")
		return true
	case <-time.After(timeout):
		logger.Error("notify worker shutdown timed out", "timeout", timeout.String())
		return false
	}
}

// BuildRelay records bookings in store and either sends them through svc or,
// when queue is set, enqueues them for a worker.
func BuildRelay(svc notify.Relayer, store notify.BookingStore, queue notify.QueueClient, source string, logger *logging.Logger) *notify.Relay {
	opts := []notify.RelayOption{notify.WithSource(source)}
	if store != nil {
		opts = append(opts, notify.WithBookingStore(store))
	}
	if queue != nil {
		opts = append(opts, notify.WithPublisher(notify.NewPublisher(queue, logger)))
	}
	return notify.NewRelay(svc, logger, opts...)
}
