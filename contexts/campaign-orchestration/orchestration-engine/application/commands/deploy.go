package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/workflow"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

type OrchestrationCommand struct {
	OrgID           string
	OrchestrationID string
}

type DeployUseCase struct {
	Orchestrations ports.OrchestrationRepository
	Engine         workflow.Engine
	Logger         *slog.Logger
}

// Execute runs the deployment pipeline and returns its workflow record, which
// is failed (not absent) when the returned error is non-nil after start.
func (uc DeployUseCase) Execute(ctx context.Context, cmd OrchestrationCommand) (entities.Workflow, error) {
	logger := application.ResolveLogger(uc.Logger)
	orchestration, err := uc.Orchestrations.GetOrchestration(ctx, strings.TrimSpace(cmd.OrgID), strings.TrimSpace(cmd.OrchestrationID))
	if err != nil {
		return entities.Workflow{}, err
	}
	if !orchestration.CanDeploy() {
		return entities.Workflow{}, fmt.Errorf("%w: cannot deploy from %s", domainerrors.ErrInvalidStateTransition, orchestration.Status)
	}

	record, err := uc.Engine.ExecuteDeploymentWorkflow(ctx, orchestration)
	if err != nil {
		return record, err
	}
	logger.Info("orchestration deployed",
		"event", "orchestration_deployed",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestration.OrchestrationID,
		"workflow_id", record.WorkflowID,
	)
	return record, nil
}
