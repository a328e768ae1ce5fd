package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer configures QoS and starts consuming from the backfill queue
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Per-consumer prefetch keeps one slow geocode from starving the pool.
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("Backfill consumer started",
		slog.String("worker_id", w.workerID),
		slog.String("queue", w.queueName),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// startMessageDispatcher reads deliveries and hands them to the worker pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var msg geo.BackfillMessage
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				w.logger.Error("Failed to parse backfill message JSON",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// Malformed messages go to the DLQ, not back on the queue.
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			job := &backfillDelivery{Msg: msg, DeliveryTag: delivery.DeliveryTag}

			select {
			case w.jobsChan <- job:
				w.logger.Debug("Backfill dispatched to worker pool",
					slog.String("backfill_id", msg.BackfillID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
