package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldhq/pro-dispatch/internal/worker/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case job, ok := <-w.jobsChan:
			if !ok {
				return
			}

			err := w.processBackfill(ctx, job.Msg)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("backfill_id", job.Msg.BackfillID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Backfill processing failed",
					slog.String("worker_name", workerName),
					slog.String("backfill_id", job.Msg.BackfillID),
					slog.String("error", err.Error()),
				)

				requeue := w.shouldRequeue(err)
				if nackErr := channel.Nack(job.DeliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(job.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// shouldRequeue determines whether a failed backfill goes back on the queue
func (w *Worker) shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrInvalidPayload) || errors.Is(err, domain.ErrUnresolvable) {
		return false
	}

	var retryable *domain.RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	// Default: don't requeue unknown errors.
	return false
}
