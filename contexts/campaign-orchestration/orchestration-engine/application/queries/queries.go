package queries

import (
	"context"
	"log/slog"
	"strings"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

type OrchestrationReader interface {
	ports.OrchestrationRepository
	ports.MappingRepository
}

type GetAggregatedPerformanceUseCase struct {
	Store  OrchestrationReader
	Logger *slog.Logger
}

// Execute is a pure read; ratios with a zero denominator are reported as 0.
func (uc GetAggregatedPerformanceUseCase) Execute(ctx context.Context, orgID string, orchestrationID string) (entities.AggregatedPerformance, error) {
	logger := application.ResolveLogger(uc.Logger)
	orchestration, err := uc.Store.GetOrchestration(ctx, strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID))
	if err != nil {
		return entities.AggregatedPerformance{}, err
	}
	mappings, err := uc.Store.ListMappings(ctx, orchestration.OrgID, orchestration.OrchestrationID)
	if err != nil {
		return entities.AggregatedPerformance{}, err
	}
	performance := entities.Aggregate(orchestration, mappings)
	logger.Debug("orchestration performance aggregated",
		"event", "orchestration_performance_aggregated",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestration.OrchestrationID,
		"platform_count", len(performance.Platforms),
	)
	return performance, nil
}

type OrchestrationView struct {
	Orchestration entities.Orchestration
	Mappings      []entities.PlatformMapping
}

type GetOrchestrationUseCase struct {
	Store  OrchestrationReader
	Logger *slog.Logger
}

func (uc GetOrchestrationUseCase) Execute(ctx context.Context, orgID string, orchestrationID string) (OrchestrationView, error) {
	orchestration, err := uc.Store.GetOrchestration(ctx, strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID))
	if err != nil {
		return OrchestrationView{}, err
	}
	mappings, err := uc.Store.ListMappings(ctx, orchestration.OrgID, orchestration.OrchestrationID)
	if err != nil {
		return OrchestrationView{}, err
	}
	return OrchestrationView{
		Orchestration: orchestration,
		Mappings:      entities.OrderMappings(orchestration, mappings),
	}, nil
}

type ListOrchestrationsUseCase struct {
	Orchestrations ports.OrchestrationRepository
	Logger         *slog.Logger
}

func (uc ListOrchestrationsUseCase) Execute(ctx context.Context, filter ports.OrchestrationFilter) ([]entities.Orchestration, error) {
	filter.OrgID = strings.TrimSpace(filter.OrgID)
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.Orchestrations.ListOrchestrations(ctx, filter)
}

type ListWorkflowsUseCase struct {
	Orchestrations ports.OrchestrationRepository
	Workflows      ports.WorkflowRepository
	Logger         *slog.Logger
}

func (uc ListWorkflowsUseCase) Execute(ctx context.Context, orgID string, orchestrationID string) ([]entities.Workflow, error) {
	orchestration, err := uc.Orchestrations.GetOrchestration(ctx, strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID))
	if err != nil {
		return nil, err
	}
	return uc.Workflows.ListWorkflows(ctx, orchestration.OrgID, orchestration.OrchestrationID)
}

type ListSyncLogsUseCase struct {
	Orchestrations ports.OrchestrationRepository
	SyncLogs       ports.SyncLogRepository
	Logger         *slog.Logger
}

func (uc ListSyncLogsUseCase) Execute(ctx context.Context, orgID string, orchestrationID string, limit int) ([]entities.SyncLog, error) {
	orchestration, err := uc.Orchestrations.GetOrchestration(ctx, strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID))
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.SyncLogs.ListSyncLogs(ctx, orchestration.OrgID, orchestration.OrchestrationID, limit)
}
