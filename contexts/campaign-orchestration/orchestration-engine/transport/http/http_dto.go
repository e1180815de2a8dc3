package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ConfigOverridesRequest struct {
	Objective    *string        `json:"objective"`
	AutoOptimize *bool          `json:"auto_optimize"`
	Currency     *string        `json:"currency"`
	StartDate    *string        `json:"start_date"`
	EndDate      *string        `json:"end_date"`
	Extra        map[string]any `json:"extra"`
}

type CreateOrchestrationRequest struct {
	TemplateID  string                 `json:"template_id"`
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Platforms   []string               `json:"platforms"`
	TotalBudget *float64               `json:"total_budget"`
	Config      ConfigOverridesRequest `json:"config"`
}

type OperationRequest struct {
	SyncType string `json:"sync_type"`
}

type UpdatePlatformBudgetRequest struct {
	Budget float64 `json:"budget"`
}

type OrchestrationConfigDTO struct {
	Objective    string         `json:"objective,omitempty"`
	AutoOptimize bool           `json:"auto_optimize"`
	Currency     string         `json:"currency,omitempty"`
	StartDate    string         `json:"start_date,omitempty"`
	EndDate      string         `json:"end_date,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

type OrchestrationDTO struct {
	OrchestrationID  string                 `json:"orchestration_id"`
	OrgID            string                 `json:"org_id"`
	TemplateID       string                 `json:"template_id,omitempty"`
	CreatedBy        string                 `json:"created_by"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description,omitempty"`
	Platforms        []string               `json:"platforms"`
	Config           OrchestrationConfigDTO `json:"config"`
	TotalBudget      *float64               `json:"total_budget,omitempty"`
	BudgetAllocation map[string]float64     `json:"budget_allocation"`
	Status           string                 `json:"status"`
	ActivePlatforms  int                    `json:"active_platforms"`
	PausedPlatforms  int                    `json:"paused_platforms"`
	FailedPlatforms  int                    `json:"failed_platforms"`
	LastSyncedAt     string                 `json:"last_synced_at,omitempty"`
	DeployedAt       string                 `json:"deployed_at,omitempty"`
	Version          int64                  `json:"version"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
}

type PlatformMappingDTO struct {
	PlatformMappingID    string  `json:"platform_mapping_id"`
	Platform             string  `json:"platform"`
	ConnectionID         string  `json:"connection_id"`
	Status               string  `json:"status"`
	AllocatedBudget      float64 `json:"allocated_budget"`
	ExternalCampaignID   string  `json:"external_campaign_id,omitempty"`
	ExternalCampaignName string  `json:"external_campaign_name,omitempty"`
	SyncStatus           string  `json:"sync_status"`
	SyncError            string  `json:"sync_error,omitempty"`
	FailureReason        string  `json:"failure_reason,omitempty"`
	LastSyncedAt         string  `json:"last_synced_at,omitempty"`
	Spend                float64 `json:"spend"`
	Impressions          int64   `json:"impressions"`
	Clicks               int64   `json:"clicks"`
	Conversions          int64   `json:"conversions"`
	Revenue              float64 `json:"revenue"`
}

type CreateOrchestrationResponse struct {
	Orchestration OrchestrationDTO     `json:"orchestration"`
	Mappings      []PlatformMappingDTO `json:"mappings"`
}

type GetOrchestrationResponse struct {
	Orchestration OrchestrationDTO     `json:"orchestration"`
	Mappings      []PlatformMappingDTO `json:"mappings"`
}

type ListOrchestrationsResponse struct {
	Items []OrchestrationDTO `json:"items"`
}

type QueuedOperationResponse struct {
	EventID         string `json:"event_id"`
	EventType       string `json:"event_type"`
	OrchestrationID string `json:"orchestration_id"`
	Operation       string `json:"operation"`
	Status          string `json:"status"`
}

type PlatformPerformanceDTO struct {
	Platform           string  `json:"platform"`
	Status             string  `json:"status"`
	ExternalCampaignID string  `json:"external_campaign_id,omitempty"`
	AllocatedBudget    float64 `json:"allocated_budget"`
	Spend              float64 `json:"spend"`
	Impressions        int64   `json:"impressions"`
	Clicks             int64   `json:"clicks"`
	Conversions        int64   `json:"conversions"`
	Revenue            float64 `json:"revenue"`
	CTR                float64 `json:"ctr"`
	CPC                float64 `json:"cpc"`
	CPA                float64 `json:"cpa"`
	ROAS               float64 `json:"roas"`
	ConversionRate     float64 `json:"conversion_rate"`
}

type PerformanceResponse struct {
	OrchestrationID   string                   `json:"orchestration_id"`
	TotalBudget       *float64                 `json:"total_budget,omitempty"`
	TotalAllocated    float64                  `json:"total_allocated"`
	TotalSpend        float64                  `json:"total_spend"`
	TotalImpressions  int64                    `json:"total_impressions"`
	TotalClicks       int64                    `json:"total_clicks"`
	TotalConversions  int64                    `json:"total_conversions"`
	TotalRevenue      float64                  `json:"total_revenue"`
	ROAS              float64                  `json:"roas"`
	BudgetUtilization float64                  `json:"budget_utilization"`
	Platforms         []PlatformPerformanceDTO `json:"platforms"`
}

type ExecutionLogEntryDTO struct {
	Step      string         `json:"step"`
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
}

type WorkflowDTO struct {
	WorkflowID   string                 `json:"workflow_id"`
	WorkflowType string                 `json:"workflow_type"`
	Status       string                 `json:"status"`
	TotalSteps   int                    `json:"total_steps"`
	CurrentStep  int                    `json:"current_step"`
	Progress     float64                `json:"progress"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	ExecutionLog []ExecutionLogEntryDTO `json:"execution_log"`
	StartedAt    string                 `json:"started_at,omitempty"`
	CompletedAt  string                 `json:"completed_at,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

type ListWorkflowsResponse struct {
	Items []WorkflowDTO `json:"items"`
}

type SyncLogDTO struct {
	SyncLogID         string `json:"sync_log_id"`
	PlatformMappingID string `json:"platform_mapping_id"`
	Platform          string `json:"platform"`
	SyncType          string `json:"sync_type"`
	Direction         string `json:"direction"`
	Status            string `json:"status"`
	EntitiesSynced    int    `json:"entities_synced"`
	EntitiesFailed    int    `json:"entities_failed"`
	ErrorMessage      string `json:"error_message,omitempty"`
	StartedAt         string `json:"started_at,omitempty"`
	CompletedAt       string `json:"completed_at,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type ListSyncLogsResponse struct {
	Items []SyncLogDTO `json:"items"`
}
