package application

import (
	"encoding/json"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const SourceService = "orchestration-engine"

func NewOrchestrationEnvelope(
	eventID string,
	eventType string,
	orchestrationID string,
	correlationID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	if correlationID == "" {
		correlationID = eventID
	}
	return ports.EventEnvelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  SourceService,
		OccurredAtUTC:  occurredAt.UTC(),
		CorrelationID:  correlationID,
		EntityType:     "orchestration",
		EntityID:       orchestrationID,
		PartitionKey:   orchestrationID,
		PayloadVersion: 1,
		Payload:        payload,
	}, nil
}
