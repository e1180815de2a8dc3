package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/commands"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const defaultOperationConsumerGroup = "orchestration-engine-operations-cg"

// OperationConsumer executes operations queued through RequestOperation.
// Each event id is executed at most once.
type OperationConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Deploy        commands.DeployUseCase
	Sync          commands.SyncUseCase
	Pause         commands.PauseUseCase
	Resume        commands.ResumeUseCase
	Optimize      commands.OptimizeUseCase
	UpdateBudget  commands.UpdatePlatformBudgetUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c OperationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("operation consumer disabled by feature flag",
			"event", "orchestration_operation_consumer_disabled",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultOperationConsumerGroup
	}
	for _, operation := range commands.Operations {
		if err := c.Subscriber.Subscribe(ctx, operation.RequestedEventType(), group, c.Handle); err != nil {
			return err
		}
	}
	return nil
}

func (c OperationConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Payload), now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("operation dedupe failed",
			"event", "orchestration_operation_dedupe_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("operation already processed",
			"event", "orchestration_operation_replayed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var request commands.OperationRequest
	if err := json.Unmarshal(event.Payload, &request); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}
	if strings.TrimSpace(request.OrchestrationID) == "" || strings.TrimSpace(request.OrgID) == "" {
		return fmt.Errorf("%s payload missing orchestration_id or org_id", event.EventType)
	}

	if err := c.execute(ctx, request); err != nil {
		logger.Error("queued operation failed",
			"event", "orchestration_operation_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"orchestration_id", request.OrchestrationID,
			"operation", string(request.Operation),
			"retryable", domainerrors.IsRetryable(err),
			"configuration_error", domainerrors.IsConfigurationError(err),
			"error", err.Error(),
		)
		return err
	}

	logger.Info("queued operation executed",
		"event", "orchestration_operation_executed",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"orchestration_id", request.OrchestrationID,
		"operation", string(request.Operation),
	)
	return nil
}

func (c OperationConsumer) execute(ctx context.Context, request commands.OperationRequest) error {
	target := commands.OrchestrationCommand{
		OrgID:           request.OrgID,
		OrchestrationID: request.OrchestrationID,
	}
	switch request.Operation {
	case commands.OperationDeploy:
		_, err := c.Deploy.Execute(ctx, target)
		return err
	case commands.OperationSync:
		_, err := c.Sync.Execute(ctx, commands.SyncCommand{
			OrgID:           request.OrgID,
			OrchestrationID: request.OrchestrationID,
			SyncType:        request.SyncType,
		})
		return err
	case commands.OperationPause:
		_, err := c.Pause.Execute(ctx, target)
		return err
	case commands.OperationResume:
		_, err := c.Resume.Execute(ctx, target)
		return err
	case commands.OperationOptimize:
		_, err := c.Optimize.Execute(ctx, target)
		return err
	case commands.OperationUpdateBudget:
		if request.Budget == nil {
			return fmt.Errorf("%w: budget is required", domainerrors.ErrInvalidOrchestrationInput)
		}
		_, err := c.UpdateBudget.Execute(ctx, commands.UpdatePlatformBudgetCommand{
			OrgID:           request.OrgID,
			OrchestrationID: request.OrchestrationID,
			Platform:        string(request.Platform),
			Budget:          *request.Budget,
		})
		return err
	default:
		return fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedOperation, request.Operation)
	}
}

func (c OperationConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
