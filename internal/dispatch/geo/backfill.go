package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fieldhq/pro-dispatch/shared/rabbitmq"
	"github.com/google/uuid"
)

// BackfillMessage asks the worker service to persist a resolved coordinate
// pair onto a technician profile. Consumed by internal/worker.
type BackfillMessage struct {
	BackfillID string  `json:"backfill_id"`
	ProfileID  string  `json:"profile_id"`
	Zip5       string  `json:"zip5"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// BackfillPublisher queues a profile coordinate backfill. Publishing must
// never block or fail a request; callers log and drop errors.
type BackfillPublisher interface {
	PublishBackfill(ctx context.Context, msg BackfillMessage) error
}

// QueueBackfill publishes backfill messages through the shared RabbitMQ
// client.
type QueueBackfill struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewQueueBackfill creates a QueueBackfill publisher.
func NewQueueBackfill(client *rabbitmq.Client, logger *slog.Logger) *QueueBackfill {
	return &QueueBackfill{client: client, logger: logger}
}

func (q *QueueBackfill) PublishBackfill(ctx context.Context, msg BackfillMessage) error {
	if msg.BackfillID == "" {
		msg.BackfillID = uuid.New().String()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal backfill message: %w", err)
	}

	if err := q.client.Publish(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("publish backfill message: %w", err)
	}

	q.logger.Debug("Profile coordinate backfill queued",
		slog.String("backfill_id", msg.BackfillID),
		slog.String("profile_id", msg.ProfileID),
		slog.String("zip5", msg.Zip5),
	)

	return nil
}
