package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/ports"
	"hireloop/internal/shared/events"
)

// MeetingEventsTopic carries every meeting lifecycle envelope.
const MeetingEventsTopic = "scheduling.meeting-events"

const defaultRelayBatch = 100

// OutboxRelay drains pending outbox rows onto the event bus. Rows that fail
// to publish stay pending and are retried on the next tick.
type OutboxRelay struct {
	Outbox       ports.OutboxRepository
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	PollInterval time.Duration
	BatchSize    int
	Logger       *slog.Logger
}

func (w OutboxRelay) Run(ctx context.Context) error {
	interval := w.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil {
				application.ResolveLogger(w.Logger).Error("outbox relay pass failed",
					"event", "outbox_relay_failed",
					"module", "scheduling/meeting-service",
					"layer", "worker",
					"error", err,
				)
			}
		}
	}
}

// RelayOnce publishes one batch and reports how many rows were relayed.
func (w OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)

	batch := w.BatchSize
	if batch <= 0 {
		batch = defaultRelayBatch
	}
	pending, err := w.Outbox.ListPendingOutbox(ctx, batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, message := range pending {
		var envelope events.Envelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload is not an envelope",
				"event", "outbox_payload_invalid",
				"module", "scheduling/meeting-service",
				"layer", "worker",
				"outbox_id", message.ID,
				"error", err,
			)
			continue
		}
		if err := w.Publisher.Publish(ctx, MeetingEventsTopic, envelope); err != nil {
			return published, err
		}
		if err := w.Outbox.MarkOutboxPublished(ctx, message.ID, w.Clock.Now().UTC()); err != nil {
			return published, err
		}
		published++
	}

	if published > 0 {
		logger.Info("outbox batch relayed",
			"event", "outbox_relayed",
			"module", "scheduling/meeting-service",
			"layer", "worker",
			"published", published,
		)
	}
	return published, nil
}
