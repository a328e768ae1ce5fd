package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/fieldhq/pro-dispatch/internal/worker/storage"
	"github.com/fieldhq/pro-dispatch/shared/postgresql"
	"github.com/fieldhq/pro-dispatch/shared/rabbitmq"
	"github.com/google/uuid"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	GeoResolver   *geo.Resolver
	ProfilesTable string
	QueueName     string
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// backfillDelivery pairs a decoded backfill message with its delivery tag
// for ACK/NACK.
type backfillDelivery struct {
	Msg         geo.BackfillMessage
	DeliveryTag uint64
}

// Worker consumes profile-coordinate backfill messages and applies them.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	storage       *storage.Storage
	geo           *geo.Resolver
	workerID      string
	queueName     string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	jobsChan      chan *backfillDelivery
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency * 2
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		storage:       storage.NewStorage(cfg.DBClient.GetDB(), cfg.ProfilesTable, cfg.Logger),
		geo:           cfg.GeoResolver,
		workerID:      fmt.Sprintf("backfill-worker-%s", uuid.New().String()[:8]),
		queueName:     cfg.QueueName,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		jobTimeout:    timeout,
		jobsChan:      make(chan *backfillDelivery),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming backfill messages. Blocks until the context is
// canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting backfill worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping backfill worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Backfill worker stopped")
}
