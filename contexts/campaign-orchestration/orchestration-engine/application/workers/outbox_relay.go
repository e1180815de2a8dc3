package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const defaultRelayBatchSize = 100

// OutboxRelay moves committed orchestration events onto the bus.
//
// Rows share a partition key with their orchestration. Once a publish fails
// for a partition, its later rows wait for the next cycle so queued operations
// on one orchestration are never delivered out of order. Rows that cannot be
// decoded are skipped and stay pending.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RelayCycle summarizes one RunOnce pass.
type RelayCycle struct {
	Published int
	HeldBack  int
	Skipped   int
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	_, err := r.Relay(ctx)
	return err
}

// Relay publishes one batch. Per-row failures are joined into the returned
// error after the rest of the batch has been attempted.
func (r OutboxRelay) Relay(ctx context.Context) (RelayCycle, error) {
	logger := application.LayerLogger(r.Logger, "worker")
	limit := r.BatchSize
	if limit <= 0 {
		limit = defaultRelayBatchSize
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("orchestration outbox list failed",
			"event", "orchestration_outbox_list_failed",
			"error", err.Error(),
		)
		return RelayCycle{}, err
	}

	var cycle RelayCycle
	var failures []error
	blocked := make(map[string]struct{})
	for _, row := range pending {
		if err := ctx.Err(); err != nil {
			return cycle, err
		}
		event, err := decodeOutboxRow(row)
		if err != nil {
			cycle.Skipped++
			logger.Error("orchestration outbox row skipped",
				"event", "orchestration_outbox_decode_failed",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
				"error", err.Error(),
			)
			failures = append(failures, err)
			continue
		}
		if _, held := blocked[event.PartitionKey]; held {
			cycle.HeldBack++
			continue
		}

		if err := r.publish(ctx, row, event); err != nil {
			if event.PartitionKey != "" {
				blocked[event.PartitionKey] = struct{}{}
			}
			logger.Warn("orchestration outbox publish failed",
				"event", "orchestration_outbox_publish_failed",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"orchestration_id", event.PartitionKey,
				"topic", event.EventType,
				"error", err.Error(),
			)
			failures = append(failures, err)
			continue
		}
		cycle.Published++
	}

	if len(pending) > 0 {
		logger.Info("orchestration outbox relay cycle completed",
			"event", "orchestration_outbox_relay_completed",
			"published_count", cycle.Published,
			"held_back_count", cycle.HeldBack,
			"skipped_count", cycle.Skipped,
		)
	}
	return cycle, errors.Join(failures...)
}

func (r OutboxRelay) publish(ctx context.Context, row ports.OutboxMessage, event ports.EventEnvelope) error {
	if err := r.Publisher.Publish(ctx, event.EventType, event); err != nil {
		return fmt.Errorf("publish outbox row %s: %w", row.OutboxID, err)
	}
	if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
		return fmt.Errorf("mark outbox row %s published: %w", row.OutboxID, err)
	}
	return nil
}

// decodeOutboxRow fills topic and partition from the row when the stored
// envelope leaves them empty.
func decodeOutboxRow(row ports.OutboxMessage) (ports.EventEnvelope, error) {
	var event ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		return ports.EventEnvelope{}, fmt.Errorf("decode outbox row %s: %w", row.OutboxID, err)
	}
	if event.EventType == "" {
		event.EventType = row.EventType
	}
	if event.PartitionKey == "" {
		event.PartitionKey = row.PartitionKey
	}
	return event, nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
