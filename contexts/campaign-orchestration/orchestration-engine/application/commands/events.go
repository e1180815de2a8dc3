package commands

import (
	"context"
	"time"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

func appendEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	ids ports.IDGenerator,
	eventType string,
	orchestration entities.Orchestration,
	occurredAt time.Time,
	data map[string]any,
) error {
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := application.NewOrchestrationEnvelope(
		eventID,
		eventType,
		orchestration.OrchestrationID,
		"",
		occurredAt,
		data,
	)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}
