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

type OptimizeResult struct {
	Workflow        entities.Workflow
	Analysis        *entities.PerformanceAnalysis
	Recommendations []entities.Recommendation
	Applied         []entities.AppliedOptimization
}

type OptimizeUseCase struct {
	Orchestrations ports.OrchestrationRepository
	Engine         workflow.Engine
	Logger         *slog.Logger
}

func (uc OptimizeUseCase) Execute(ctx context.Context, cmd OrchestrationCommand) (OptimizeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	orchestration, err := uc.Orchestrations.GetOrchestration(ctx, strings.TrimSpace(cmd.OrgID), strings.TrimSpace(cmd.OrchestrationID))
	if err != nil {
		return OptimizeResult{}, err
	}
	if orchestration.Status != entities.OrchestrationStatusActive && orchestration.Status != entities.OrchestrationStatusPaused {
		return OptimizeResult{}, fmt.Errorf("%w: cannot optimize from %s", domainerrors.ErrInvalidStateTransition, orchestration.Status)
	}

	record, run, err := uc.Engine.ExecuteOptimizationWorkflow(ctx, orchestration)
	result := OptimizeResult{Workflow: record}
	if run != nil {
		result.Analysis = run.Analysis
		result.Recommendations = run.Recommendations
		result.Applied = run.Applied
	}
	if err != nil {
		return result, err
	}
	logger.Info("orchestration optimized",
		"event", "orchestration_optimized",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestration.OrchestrationID,
		"workflow_id", record.WorkflowID,
		"recommendation_count", len(result.Recommendations),
		"applied_count", len(result.Applied),
	)
	return result, nil
}
