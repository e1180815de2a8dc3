package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/commands"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/queries"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
	httptransport "adorchestra/contexts/campaign-orchestration/orchestration-engine/transport/http"
)

type Handler struct {
	CreateFromTemplate commands.CreateFromTemplateUseCase
	RequestOperation   commands.RequestOperationUseCase
	GetOrchestration   queries.GetOrchestrationUseCase
	ListOrchestrations queries.ListOrchestrationsUseCase
	GetPerformance     queries.GetAggregatedPerformanceUseCase
	ListWorkflows      queries.ListWorkflowsUseCase
	ListSyncLogs       queries.ListSyncLogsUseCase
	Logger             *slog.Logger
}

// CreateOrchestrationHandler godoc
// @Summary Create an orchestration from a template
// @Tags orchestrations
// @Accept json
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param request body httptransport.CreateOrchestrationRequest true "Template and overrides"
// @Success 201 {object} httptransport.CreateOrchestrationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/orchestrations [post]
func (h Handler) CreateOrchestrationHandler(
	ctx context.Context,
	orgID string,
	userID string,
	req httptransport.CreateOrchestrationRequest,
) (httptransport.CreateOrchestrationResponse, error) {
	startDate, err := parseOptionalDate(req.Config.StartDate)
	if err != nil {
		return httptransport.CreateOrchestrationResponse{}, domainerrors.ErrInvalidOrchestrationInput
	}
	endDate, err := parseOptionalDate(req.Config.EndDate)
	if err != nil {
		return httptransport.CreateOrchestrationResponse{}, domainerrors.ErrInvalidOrchestrationInput
	}
	result, err := h.CreateFromTemplate.Execute(ctx, commands.CreateFromTemplateCommand{
		OrgID:      orgID,
		UserID:     userID,
		TemplateID: req.TemplateID,
		Overrides: commands.CreateOverrides{
			Name:        req.Name,
			Description: req.Description,
			Platforms:   append([]string(nil), req.Platforms...),
			TotalBudget: req.TotalBudget,
			Config: entities.ConfigOverrides{
				Objective:    req.Config.Objective,
				AutoOptimize: req.Config.AutoOptimize,
				Currency:     req.Config.Currency,
				StartDate:    startDate,
				EndDate:      endDate,
				Extra:        req.Config.Extra,
			},
		},
	})
	if err != nil {
		return httptransport.CreateOrchestrationResponse{}, err
	}
	return httptransport.CreateOrchestrationResponse{
		Orchestration: mapOrchestration(result.Orchestration),
		Mappings:      mapMappings(result.Mappings),
	}, nil
}

// GetOrchestrationHandler godoc
// @Summary Get an orchestration with its platform mappings
// @Tags orchestrations
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param orchestration_id path string true "Orchestration id"
// @Success 200 {object} httptransport.GetOrchestrationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/orchestrations/{orchestration_id} [get]
func (h Handler) GetOrchestrationHandler(ctx context.Context, orgID string, orchestrationID string) (httptransport.GetOrchestrationResponse, error) {
	view, err := h.GetOrchestration.Execute(ctx, orgID, orchestrationID)
	if err != nil {
		return httptransport.GetOrchestrationResponse{}, err
	}
	return httptransport.GetOrchestrationResponse{
		Orchestration: mapOrchestration(view.Orchestration),
		Mappings:      mapMappings(view.Mappings),
	}, nil
}

// ListOrchestrationsHandler godoc
// @Summary List orchestrations of the organization
// @Tags orchestrations
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Success 200 {object} httptransport.ListOrchestrationsResponse
// @Router /v1/orchestrations [get]
func (h Handler) ListOrchestrationsHandler(
	ctx context.Context,
	orgID string,
	status string,
	limit int,
) (httptransport.ListOrchestrationsResponse, error) {
	items, err := h.ListOrchestrations.Execute(ctx, ports.OrchestrationFilter{
		OrgID:  orgID,
		Status: entities.OrchestrationStatus(strings.ToLower(strings.TrimSpace(status))),
		Limit:  limit,
	})
	if err != nil {
		return httptransport.ListOrchestrationsResponse{}, err
	}
	result := make([]httptransport.OrchestrationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapOrchestration(item))
	}
	return httptransport.ListOrchestrationsResponse{Items: result}, nil
}

// RequestOperationHandler godoc
// @Summary Queue an orchestration operation
// @Tags operations
// @Accept json
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param orchestration_id path string true "Orchestration id"
// @Param request body httptransport.OperationRequest false "Sync type for sync requests"
// @Success 202 {object} httptransport.QueuedOperationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/orchestrations/{orchestration_id}/deploy [post]
// @Router /v1/orchestrations/{orchestration_id}/sync [post]
// @Router /v1/orchestrations/{orchestration_id}/pause [post]
// @Router /v1/orchestrations/{orchestration_id}/resume [post]
// @Router /v1/orchestrations/{orchestration_id}/optimize [post]
func (h Handler) RequestOperationHandler(
	ctx context.Context,
	orgID string,
	userID string,
	orchestrationID string,
	operation string,
	req httptransport.OperationRequest,
) (httptransport.QueuedOperationResponse, error) {
	queued, err := h.RequestOperation.Execute(ctx, commands.RequestOperationCommand{
		OrgID:           orgID,
		UserID:          userID,
		OrchestrationID: orchestrationID,
		Operation:       commands.Operation(operation),
		SyncType:        entities.SyncType(strings.ToLower(strings.TrimSpace(req.SyncType))),
	})
	if err != nil {
		return httptransport.QueuedOperationResponse{}, err
	}
	return queuedResponse(queued), nil
}

func queuedResponse(queued commands.QueuedOperation) httptransport.QueuedOperationResponse {
	return httptransport.QueuedOperationResponse{
		EventID:         queued.EventID,
		EventType:       queued.EventType,
		OrchestrationID: queued.OrchestrationID,
		Operation:       string(queued.Operation),
		Status:          "queued",
	}
}

// UpdatePlatformBudgetHandler godoc
// @Summary Queue a budget update for one platform
// @Tags operations
// @Accept json
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param orchestration_id path string true "Orchestration id"
// @Param platform path string true "Platform"
// @Param request body httptransport.UpdatePlatformBudgetRequest true "New budget"
// @Success 202 {object} httptransport.QueuedOperationResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/orchestrations/{orchestration_id}/platforms/{platform}/budget [put]
func (h Handler) UpdatePlatformBudgetHandler(
	ctx context.Context,
	orgID string,
	userID string,
	orchestrationID string,
	platform string,
	req httptransport.UpdatePlatformBudgetRequest,
) (httptransport.QueuedOperationResponse, error) {
	queued, err := h.RequestOperation.Execute(ctx, commands.RequestOperationCommand{
		OrgID:           orgID,
		UserID:          userID,
		OrchestrationID: orchestrationID,
		Operation:       commands.OperationUpdateBudget,
		Platform:        platform,
		Budget:          req.Budget,
	})
	if err != nil {
		return httptransport.QueuedOperationResponse{}, err
	}
	return queuedResponse(queued), nil
}

// GetPerformanceHandler godoc
// @Summary Aggregated cross-platform performance
// @Tags reads
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param orchestration_id path string true "Orchestration id"
// @Success 200 {object} httptransport.PerformanceResponse
// @Router /v1/orchestrations/{orchestration_id}/performance [get]
func (h Handler) GetPerformanceHandler(ctx context.Context, orgID string, orchestrationID string) (httptransport.PerformanceResponse, error) {
	performance, err := h.GetPerformance.Execute(ctx, orgID, orchestrationID)
	if err != nil {
		return httptransport.PerformanceResponse{}, err
	}
	platforms := make([]httptransport.PlatformPerformanceDTO, 0, len(performance.Platforms))
	for _, item := range performance.Platforms {
		platforms = append(platforms, httptransport.PlatformPerformanceDTO{
			Platform:           string(item.Platform),
			Status:             string(item.Status),
			ExternalCampaignID: item.ExternalCampaignID,
			AllocatedBudget:    item.AllocatedBudget,
			Spend:              item.Spend,
			Impressions:        item.Impressions,
			Clicks:             item.Clicks,
			Conversions:        item.Conversions,
			Revenue:            item.Revenue,
			CTR:                item.CTR,
			CPC:                item.CPC,
			CPA:                item.CPA,
			ROAS:               item.ROAS,
			ConversionRate:     item.ConversionRate,
		})
	}
	return httptransport.PerformanceResponse{
		OrchestrationID:   performance.OrchestrationID,
		TotalBudget:       performance.TotalBudget,
		TotalAllocated:    performance.TotalAllocated,
		TotalSpend:        performance.TotalSpend,
		TotalImpressions:  performance.TotalImpressions,
		TotalClicks:       performance.TotalClicks,
		TotalConversions:  performance.TotalConversions,
		TotalRevenue:      performance.TotalRevenue,
		ROAS:              performance.ROAS,
		BudgetUtilization: performance.BudgetUtilization,
		Platforms:         platforms,
	}, nil
}

// ListWorkflowsHandler godoc
// @Summary Workflow runs of an orchestration
// @Tags reads
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param orchestration_id path string true "Orchestration id"
// @Success 200 {object} httptransport.ListWorkflowsResponse
// @Router /v1/orchestrations/{orchestration_id}/workflows [get]
func (h Handler) ListWorkflowsHandler(ctx context.Context, orgID string, orchestrationID string) (httptransport.ListWorkflowsResponse, error) {
	items, err := h.ListWorkflows.Execute(ctx, orgID, orchestrationID)
	if err != nil {
		return httptransport.ListWorkflowsResponse{}, err
	}
	result := make([]httptransport.WorkflowDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapWorkflow(item))
	}
	return httptransport.ListWorkflowsResponse{Items: result}, nil
}

// ListSyncLogsHandler godoc
// @Summary Sync attempts of an orchestration, newest first
// @Tags reads
// @Produce json
// @Param X-Org-Id header string true "Organization"
// @Param X-User-Id header string true "Acting user"
// @Param orchestration_id path string true "Orchestration id"
// @Param limit query int false "Page size"
// @Success 200 {object} httptransport.ListSyncLogsResponse
// @Router /v1/orchestrations/{orchestration_id}/sync-logs [get]
func (h Handler) ListSyncLogsHandler(
	ctx context.Context,
	orgID string,
	orchestrationID string,
	limit int,
) (httptransport.ListSyncLogsResponse, error) {
	items, err := h.ListSyncLogs.Execute(ctx, orgID, orchestrationID, limit)
	if err != nil {
		return httptransport.ListSyncLogsResponse{}, err
	}
	result := make([]httptransport.SyncLogDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.SyncLogDTO{
			SyncLogID:         item.SyncLogID,
			PlatformMappingID: item.PlatformMappingID,
			Platform:          string(item.Platform),
			SyncType:          string(item.SyncType),
			Direction:         string(item.Direction),
			Status:            string(item.Status),
			EntitiesSynced:    item.Result.EntitiesSynced,
			EntitiesFailed:    item.Result.EntitiesFailed,
			ErrorMessage:      item.ErrorMessage,
			StartedAt:         formatOptionalTime(item.StartedAt),
			CompletedAt:       formatOptionalTime(item.CompletedAt),
			CreatedAt:         item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.ListSyncLogsResponse{Items: result}, nil
}

func mapOrchestration(item entities.Orchestration) httptransport.OrchestrationDTO {
	platforms := make([]string, 0, len(item.Platforms))
	for _, platform := range item.Platforms {
		platforms = append(platforms, string(platform))
	}
	allocation := make(map[string]float64, len(item.BudgetAllocation))
	for platform, amount := range item.BudgetAllocation {
		allocation[string(platform)] = amount
	}
	templateID := ""
	if item.TemplateID != nil {
		templateID = *item.TemplateID
	}
	return httptransport.OrchestrationDTO{
		OrchestrationID: item.OrchestrationID,
		OrgID:           item.OrgID,
		TemplateID:      templateID,
		CreatedBy:       item.CreatedBy,
		Name:            item.Name,
		Description:     item.Description,
		Platforms:       platforms,
		Config: httptransport.OrchestrationConfigDTO{
			Objective:    item.Config.Objective,
			AutoOptimize: item.Config.AutoOptimize,
			Currency:     item.Config.Currency,
			StartDate:    formatOptionalTime(item.Config.StartDate),
			EndDate:      formatOptionalTime(item.Config.EndDate),
			Extra:        item.Config.Extra,
		},
		TotalBudget:      item.TotalBudget,
		BudgetAllocation: allocation,
		Status:           string(item.Status),
		ActivePlatforms:  item.ActivePlatforms,
		PausedPlatforms:  item.PausedPlatforms,
		FailedPlatforms:  item.FailedPlatforms,
		LastSyncedAt:     formatOptionalTime(item.LastSyncedAt),
		DeployedAt:       formatOptionalTime(item.DeployedAt),
		Version:          item.Version,
		CreatedAt:        item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapMappings(items []entities.PlatformMapping) []httptransport.PlatformMappingDTO {
	result := make([]httptransport.PlatformMappingDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapMapping(item))
	}
	return result
}

func mapMapping(item entities.PlatformMapping) httptransport.PlatformMappingDTO {
	return httptransport.PlatformMappingDTO{
		PlatformMappingID:    item.PlatformMappingID,
		Platform:             string(item.Platform),
		ConnectionID:         item.ConnectionID,
		Status:               string(item.Status),
		AllocatedBudget:      item.AllocatedBudget,
		ExternalCampaignID:   item.ExternalCampaignID,
		ExternalCampaignName: item.ExternalCampaignName,
		SyncStatus:           string(item.SyncStatus),
		SyncError:            item.SyncError,
		FailureReason:        item.FailureReason,
		LastSyncedAt:         formatOptionalTime(item.LastSyncedAt),
		Spend:                item.Metrics.Spend,
		Impressions:          item.Metrics.Impressions,
		Clicks:               item.Metrics.Clicks,
		Conversions:          item.Metrics.Conversions,
		Revenue:              item.Metrics.Revenue,
	}
}

func mapWorkflow(item entities.Workflow) httptransport.WorkflowDTO {
	log := make([]httptransport.ExecutionLogEntryDTO, 0, len(item.ExecutionLog))
	for _, entry := range item.ExecutionLog {
		log = append(log, httptransport.ExecutionLogEntryDTO{
			Step:      entry.Step,
			Status:    string(entry.Status),
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
			Detail:    entry.Detail,
		})
	}
	return httptransport.WorkflowDTO{
		WorkflowID:   item.WorkflowID,
		WorkflowType: string(item.WorkflowType),
		Status:       string(item.Status),
		TotalSteps:   item.TotalSteps,
		CurrentStep:  item.CurrentStep,
		Progress:     item.Progress(),
		ErrorMessage: item.ErrorMessage,
		ExecutionLog: log,
		StartedAt:    formatOptionalTime(item.StartedAt),
		CompletedAt:  formatOptionalTime(item.CompletedAt),
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// parseOptionalDate accepts RFC3339 timestamps or bare YYYY-MM-DD dates.
func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		parsed, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, err
		}
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
