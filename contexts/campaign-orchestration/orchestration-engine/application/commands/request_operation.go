package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

type Operation string

const (
	OperationDeploy       Operation = "deploy"
	OperationSync         Operation = "sync"
	OperationPause        Operation = "pause"
	OperationResume       Operation = "resume"
	OperationOptimize     Operation = "optimize"
	OperationUpdateBudget Operation = "update_budget"
)

var Operations = []Operation{
	OperationDeploy,
	OperationSync,
	OperationPause,
	OperationResume,
	OperationOptimize,
	OperationUpdateBudget,
}

func ParseOperation(value string) (Operation, bool) {
	candidate := Operation(strings.ToLower(strings.TrimSpace(value)))
	for _, item := range Operations {
		if item == candidate {
			return item, true
		}
	}
	return "", false
}

// RequestedEventType is the outbox event type (and bus topic) for op.
func (op Operation) RequestedEventType() string {
	return "orchestration." + string(op) + "_requested"
}

// OperationRequest is the payload of a queued operation event.
type OperationRequest struct {
	OrgID           string            `json:"org_id"`
	UserID          string            `json:"user_id"`
	OrchestrationID string            `json:"orchestration_id"`
	Operation       Operation         `json:"operation"`
	SyncType        entities.SyncType `json:"sync_type,omitempty"`
	Platform        entities.Platform `json:"platform,omitempty"`
	Budget          *float64          `json:"budget,omitempty"`
}

type RequestOperationCommand struct {
	OrgID           string
	UserID          string
	OrchestrationID string
	Operation       Operation
	SyncType        entities.SyncType
	Platform        string
	Budget          float64
}

type QueuedOperation struct {
	EventID         string
	EventType       string
	OrchestrationID string
	Operation       Operation
}

// RequestOperationUseCase queues operations that call ad platforms for the
// worker. The command's Platform and Budget are only read for
// OperationUpdateBudget.
type RequestOperationUseCase struct {
	UnitOfWork  ports.UnitOfWork
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc RequestOperationUseCase) Execute(ctx context.Context, cmd RequestOperationCommand) (QueuedOperation, error) {
	logger := application.ResolveLogger(uc.Logger)
	operation, ok := ParseOperation(string(cmd.Operation))
	if !ok {
		return QueuedOperation{}, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedOperation, cmd.Operation)
	}
	request := OperationRequest{
		OrgID:           strings.TrimSpace(cmd.OrgID),
		UserID:          strings.TrimSpace(cmd.UserID),
		OrchestrationID: strings.TrimSpace(cmd.OrchestrationID),
		Operation:       operation,
	}
	if request.OrgID == "" || request.OrchestrationID == "" {
		return QueuedOperation{}, domainerrors.ErrInvalidOrchestrationInput
	}
	if operation == OperationSync {
		request.SyncType = cmd.SyncType
		if request.SyncType == "" {
			request.SyncType = entities.SyncTypeFull
		}
		if !entities.IsSupportedSyncType(request.SyncType) {
			return QueuedOperation{}, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedSyncType, request.SyncType)
		}
	}
	if operation == OperationUpdateBudget {
		request.Platform = entities.NormalizePlatform(cmd.Platform)
		if cmd.Budget < 0 || !entities.IsSupportedPlatform(request.Platform) {
			return QueuedOperation{}, domainerrors.ErrInvalidOrchestrationInput
		}
		budget := entities.RoundCurrency(cmd.Budget)
		request.Budget = &budget
	}

	eventID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return QueuedOperation{}, err
	}
	envelope, err := application.NewOrchestrationEnvelope(
		eventID,
		operation.RequestedEventType(),
		request.OrchestrationID,
		"",
		uc.Clock.Now().UTC(),
		map[string]any{
			"org_id":           request.OrgID,
			"user_id":          request.UserID,
			"orchestration_id": request.OrchestrationID,
			"operation":        request.Operation,
			"sync_type":        request.SyncType,
			"platform":         request.Platform,
			"budget":           request.Budget,
		},
	)
	if err != nil {
		return QueuedOperation{}, err
	}

	err = uc.UnitOfWork.WithinTransaction(ctx, func(ctx context.Context, store ports.AggregateStore) error {
		if _, err := store.GetOrchestration(ctx, request.OrgID, request.OrchestrationID); err != nil {
			return err
		}
		if operation == OperationUpdateBudget {
			if err := requireMapping(ctx, store, request.OrgID, request.OrchestrationID, request.Platform); err != nil {
				return err
			}
		}
		return store.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		return QueuedOperation{}, err
	}

	logger.Info("orchestration operation queued",
		"event", "orchestration_operation_queued",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", request.OrchestrationID,
		"operation", string(operation),
		"event_id", eventID,
	)
	return QueuedOperation{
		EventID:         eventID,
		EventType:       envelope.EventType,
		OrchestrationID: request.OrchestrationID,
		Operation:       operation,
	}, nil
}

func requireMapping(ctx context.Context, store ports.AggregateStore, orgID string, orchestrationID string, platform entities.Platform) error {
	mappings, err := store.ListMappings(ctx, orgID, orchestrationID)
	if err != nil {
		return err
	}
	for _, mapping := range mappings {
		if mapping.Platform == platform {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domainerrors.ErrMissingPlatformMapping, platform)
}
