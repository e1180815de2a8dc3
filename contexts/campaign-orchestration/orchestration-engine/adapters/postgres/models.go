package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
)

type orchestrationModel struct {
	OrchestrationID  string     `gorm:"column:orchestration_id;primaryKey"`
	OrgID            string     `gorm:"column:org_id;index"`
	TemplateID       *string    `gorm:"column:template_id"`
	CreatedBy        string     `gorm:"column:created_by"`
	Name             string     `gorm:"column:name"`
	Description      string     `gorm:"column:description"`
	Platforms        string     `gorm:"column:platforms"`
	Config           string     `gorm:"column:config"`
	TotalBudget      *float64   `gorm:"column:total_budget"`
	BudgetAllocation string     `gorm:"column:budget_allocation"`
	Status           string     `gorm:"column:status;index"`
	ActivePlatforms  int        `gorm:"column:active_platforms"`
	PausedPlatforms  int        `gorm:"column:paused_platforms"`
	FailedPlatforms  int        `gorm:"column:failed_platforms"`
	LastSyncedAt     *time.Time `gorm:"column:last_synced_at"`
	DeployedAt       *time.Time `gorm:"column:deployed_at"`
	Version          int64      `gorm:"column:version"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (orchestrationModel) TableName() string {
	return "orchestrations"
}

func orchestrationModelFromEntity(item entities.Orchestration) (orchestrationModel, error) {
	platforms, err := encodeJSON(item.Platforms)
	if err != nil {
		return orchestrationModel{}, err
	}
	config, err := encodeJSON(item.Config)
	if err != nil {
		return orchestrationModel{}, err
	}
	allocation, err := encodeJSON(item.BudgetAllocation)
	if err != nil {
		return orchestrationModel{}, err
	}
	return orchestrationModel{
		OrchestrationID:  strings.TrimSpace(item.OrchestrationID),
		OrgID:            strings.TrimSpace(item.OrgID),
		TemplateID:       item.TemplateID,
		CreatedBy:        strings.TrimSpace(item.CreatedBy),
		Name:             strings.TrimSpace(item.Name),
		Description:      item.Description,
		Platforms:        platforms,
		Config:           config,
		TotalBudget:      item.TotalBudget,
		BudgetAllocation: allocation,
		Status:           string(item.Status),
		ActivePlatforms:  item.ActivePlatforms,
		PausedPlatforms:  item.PausedPlatforms,
		FailedPlatforms:  item.FailedPlatforms,
		LastSyncedAt:     normalizeOptionalTime(item.LastSyncedAt),
		DeployedAt:       normalizeOptionalTime(item.DeployedAt),
		Version:          item.Version,
		CreatedAt:        item.CreatedAt.UTC(),
		UpdatedAt:        item.UpdatedAt.UTC(),
	}, nil
}

func (m orchestrationModel) updates(nextVersion int64) map[string]any {
	return map[string]any{
		"template_id":       m.TemplateID,
		"name":              m.Name,
		"description":       m.Description,
		"platforms":         m.Platforms,
		"config":            m.Config,
		"total_budget":      m.TotalBudget,
		"budget_allocation": m.BudgetAllocation,
		"status":            m.Status,
		"active_platforms":  m.ActivePlatforms,
		"paused_platforms":  m.PausedPlatforms,
		"failed_platforms":  m.FailedPlatforms,
		"last_synced_at":    m.LastSyncedAt,
		"deployed_at":       m.DeployedAt,
		"version":           nextVersion,
		"updated_at":        m.UpdatedAt,
	}
}

func (m orchestrationModel) toEntity() (entities.Orchestration, error) {
	item := entities.Orchestration{
		OrchestrationID: m.OrchestrationID,
		OrgID:           m.OrgID,
		TemplateID:      m.TemplateID,
		CreatedBy:       m.CreatedBy,
		Name:            m.Name,
		Description:     m.Description,
		TotalBudget:     m.TotalBudget,
		Status:          entities.OrchestrationStatus(m.Status),
		ActivePlatforms: m.ActivePlatforms,
		PausedPlatforms: m.PausedPlatforms,
		FailedPlatforms: m.FailedPlatforms,
		LastSyncedAt:    normalizeOptionalTime(m.LastSyncedAt),
		DeployedAt:      normalizeOptionalTime(m.DeployedAt),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if err := decodeJSON(m.Platforms, &item.Platforms); err != nil {
		return entities.Orchestration{}, err
	}
	if err := decodeJSON(m.Config, &item.Config); err != nil {
		return entities.Orchestration{}, err
	}
	if err := decodeJSON(m.BudgetAllocation, &item.BudgetAllocation); err != nil {
		return entities.Orchestration{}, err
	}
	if item.BudgetAllocation == nil {
		item.BudgetAllocation = map[entities.Platform]float64{}
	}
	return item, nil
}

type mappingModel struct {
	PlatformMappingID    string     `gorm:"column:platform_mapping_id;primaryKey"`
	OrgID                string     `gorm:"column:org_id"`
	OrchestrationID      string     `gorm:"column:orchestration_id;index"`
	ConnectionID         string     `gorm:"column:connection_id"`
	Platform             string     `gorm:"column:platform"`
	Status               string     `gorm:"column:status"`
	PlatformConfig       string     `gorm:"column:platform_config"`
	AllocatedBudget      float64    `gorm:"column:allocated_budget"`
	ExternalCampaignID   string     `gorm:"column:external_campaign_id"`
	ExternalCampaignName string     `gorm:"column:external_campaign_name"`
	LastSyncedAt         *time.Time `gorm:"column:last_synced_at"`
	SyncStatus           string     `gorm:"column:sync_status"`
	SyncError            string     `gorm:"column:sync_error"`
	FailureReason        string     `gorm:"column:failure_reason"`
	Spend                float64    `gorm:"column:spend"`
	Impressions          int64      `gorm:"column:impressions"`
	Clicks               int64      `gorm:"column:clicks"`
	Conversions          int64      `gorm:"column:conversions"`
	Revenue              float64    `gorm:"column:revenue"`
	Version              int64      `gorm:"column:version"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (mappingModel) TableName() string {
	return "orchestration_platform_mappings"
}

func mappingModelFromEntity(item entities.PlatformMapping) (mappingModel, error) {
	config, err := encodeJSON(item.PlatformConfig)
	if err != nil {
		return mappingModel{}, err
	}
	return mappingModel{
		PlatformMappingID:    strings.TrimSpace(item.PlatformMappingID),
		OrgID:                strings.TrimSpace(item.OrgID),
		OrchestrationID:      strings.TrimSpace(item.OrchestrationID),
		ConnectionID:         strings.TrimSpace(item.ConnectionID),
		Platform:             string(item.Platform),
		Status:               string(item.Status),
		PlatformConfig:       config,
		AllocatedBudget:      item.AllocatedBudget,
		ExternalCampaignID:   strings.TrimSpace(item.ExternalCampaignID),
		ExternalCampaignName: item.ExternalCampaignName,
		LastSyncedAt:         normalizeOptionalTime(item.LastSyncedAt),
		SyncStatus:           string(item.SyncStatus),
		SyncError:            item.SyncError,
		FailureReason:        item.FailureReason,
		Spend:                item.Metrics.Spend,
		Impressions:          item.Metrics.Impressions,
		Clicks:               item.Metrics.Clicks,
		Conversions:          item.Metrics.Conversions,
		Revenue:              item.Metrics.Revenue,
		Version:              item.Version,
		CreatedAt:            item.CreatedAt.UTC(),
		UpdatedAt:            item.UpdatedAt.UTC(),
	}, nil
}

func (m mappingModel) updates(nextVersion int64) map[string]any {
	return map[string]any{
		"connection_id":          m.ConnectionID,
		"status":                 m.Status,
		"platform_config":        m.PlatformConfig,
		"allocated_budget":       m.AllocatedBudget,
		"external_campaign_id":   m.ExternalCampaignID,
		"external_campaign_name": m.ExternalCampaignName,
		"last_synced_at":         m.LastSyncedAt,
		"sync_status":            m.SyncStatus,
		"sync_error":             m.SyncError,
		"failure_reason":         m.FailureReason,
		"spend":                  m.Spend,
		"impressions":            m.Impressions,
		"clicks":                 m.Clicks,
		"conversions":            m.Conversions,
		"revenue":                m.Revenue,
		"version":                nextVersion,
		"updated_at":             m.UpdatedAt,
	}
}

func (m mappingModel) toEntity() (entities.PlatformMapping, error) {
	item := entities.PlatformMapping{
		PlatformMappingID:    m.PlatformMappingID,
		OrgID:                m.OrgID,
		OrchestrationID:      m.OrchestrationID,
		ConnectionID:         m.ConnectionID,
		Platform:             entities.Platform(m.Platform),
		Status:               entities.MappingStatus(m.Status),
		AllocatedBudget:      m.AllocatedBudget,
		ExternalCampaignID:   m.ExternalCampaignID,
		ExternalCampaignName: m.ExternalCampaignName,
		LastSyncedAt:         normalizeOptionalTime(m.LastSyncedAt),
		SyncStatus:           entities.MappingSyncStatus(m.SyncStatus),
		SyncError:            m.SyncError,
		FailureReason:        m.FailureReason,
		Metrics: entities.Metrics{
			Spend:       m.Spend,
			Impressions: m.Impressions,
			Clicks:      m.Clicks,
			Conversions: m.Conversions,
			Revenue:     m.Revenue,
		},
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if err := decodeJSON(m.PlatformConfig, &item.PlatformConfig); err != nil {
		return entities.PlatformMapping{}, err
	}
	return item, nil
}

type workflowModel struct {
	WorkflowID      string     `gorm:"column:workflow_id;primaryKey"`
	OrgID           string     `gorm:"column:org_id"`
	OrchestrationID string     `gorm:"column:orchestration_id;index"`
	WorkflowType    string     `gorm:"column:workflow_type"`
	Steps           string     `gorm:"column:steps"`
	TotalSteps      int        `gorm:"column:total_steps"`
	CurrentStep     int        `gorm:"column:current_step"`
	Status          string     `gorm:"column:status"`
	ExecutionLog    string     `gorm:"column:execution_log"`
	ErrorMessage    string     `gorm:"column:error_message"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (workflowModel) TableName() string {
	return "orchestration_workflows"
}

func workflowModelFromEntity(item entities.Workflow) (workflowModel, error) {
	steps, err := encodeJSON(item.Steps)
	if err != nil {
		return workflowModel{}, err
	}
	executionLog, err := encodeJSON(item.ExecutionLog)
	if err != nil {
		return workflowModel{}, err
	}
	return workflowModel{
		WorkflowID:      strings.TrimSpace(item.WorkflowID),
		OrgID:           strings.TrimSpace(item.OrgID),
		OrchestrationID: strings.TrimSpace(item.OrchestrationID),
		WorkflowType:    string(item.WorkflowType),
		Steps:           steps,
		TotalSteps:      item.TotalSteps,
		CurrentStep:     item.CurrentStep,
		Status:          string(item.Status),
		ExecutionLog:    executionLog,
		ErrorMessage:    item.ErrorMessage,
		StartedAt:       normalizeOptionalTime(item.StartedAt),
		CompletedAt:     normalizeOptionalTime(item.CompletedAt),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}, nil
}

func (m workflowModel) toEntity() (entities.Workflow, error) {
	item := entities.Workflow{
		WorkflowID:      m.WorkflowID,
		OrgID:           m.OrgID,
		OrchestrationID: m.OrchestrationID,
		WorkflowType:    entities.WorkflowType(m.WorkflowType),
		TotalSteps:      m.TotalSteps,
		CurrentStep:     m.CurrentStep,
		Status:          entities.WorkflowStatus(m.Status),
		ErrorMessage:    m.ErrorMessage,
		StartedAt:       normalizeOptionalTime(m.StartedAt),
		CompletedAt:     normalizeOptionalTime(m.CompletedAt),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if err := decodeJSON(m.Steps, &item.Steps); err != nil {
		return entities.Workflow{}, err
	}
	if err := decodeJSON(m.ExecutionLog, &item.ExecutionLog); err != nil {
		return entities.Workflow{}, err
	}
	return item, nil
}

type syncLogModel struct {
	SyncLogID         string     `gorm:"column:sync_log_id;primaryKey"`
	OrgID             string     `gorm:"column:org_id"`
	OrchestrationID   string     `gorm:"column:orchestration_id;index"`
	PlatformMappingID string     `gorm:"column:platform_mapping_id"`
	Platform          string     `gorm:"column:platform"`
	SyncType          string     `gorm:"column:sync_type"`
	Direction         string     `gorm:"column:direction"`
	Status            string     `gorm:"column:status"`
	Result            string     `gorm:"column:result"`
	ErrorMessage      string     `gorm:"column:error_message"`
	StartedAt         *time.Time `gorm:"column:started_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (syncLogModel) TableName() string {
	return "orchestration_sync_logs"
}

func syncLogModelFromEntity(item entities.SyncLog) (syncLogModel, error) {
	result, err := encodeJSON(item.Result)
	if err != nil {
		return syncLogModel{}, err
	}
	return syncLogModel{
		SyncLogID:         strings.TrimSpace(item.SyncLogID),
		OrgID:             strings.TrimSpace(item.OrgID),
		OrchestrationID:   strings.TrimSpace(item.OrchestrationID),
		PlatformMappingID: strings.TrimSpace(item.PlatformMappingID),
		Platform:          string(item.Platform),
		SyncType:          string(item.SyncType),
		Direction:         string(item.Direction),
		Status:            string(item.Status),
		Result:            result,
		ErrorMessage:      item.ErrorMessage,
		StartedAt:         normalizeOptionalTime(item.StartedAt),
		CompletedAt:       normalizeOptionalTime(item.CompletedAt),
		CreatedAt:         item.CreatedAt.UTC(),
		UpdatedAt:         item.UpdatedAt.UTC(),
	}, nil
}

func (m syncLogModel) toEntity() (entities.SyncLog, error) {
	item := entities.SyncLog{
		SyncLogID:         m.SyncLogID,
		OrgID:             m.OrgID,
		OrchestrationID:   m.OrchestrationID,
		PlatformMappingID: m.PlatformMappingID,
		Platform:          entities.Platform(m.Platform),
		SyncType:          entities.SyncType(m.SyncType),
		Direction:         entities.SyncDirection(m.Direction),
		Status:            entities.SyncStatus(m.Status),
		ErrorMessage:      m.ErrorMessage,
		StartedAt:         normalizeOptionalTime(m.StartedAt),
		CompletedAt:       normalizeOptionalTime(m.CompletedAt),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if err := decodeJSON(m.Result, &item.Result); err != nil {
		return entities.SyncLog{}, err
	}
	return item, nil
}

type connectionModel struct {
	ConnectionID string `gorm:"column:connection_id;primaryKey"`
	OrgID        string `gorm:"column:org_id;index"`
	Platform     string `gorm:"column:platform"`
	AccountID    string `gorm:"column:account_id"`
	AccessToken  string `gorm:"column:access_token"`
	IsActive     bool   `gorm:"column:is_active"`
}

func (connectionModel) TableName() string {
	return "platform_connections"
}

func (m connectionModel) toEntity() entities.Connection {
	return entities.Connection{
		ConnectionID: m.ConnectionID,
		OrgID:        m.OrgID,
		Platform:     entities.Platform(m.Platform),
		AccountID:    m.AccountID,
		AccessToken:  m.AccessToken,
		IsActive:     m.IsActive,
	}
}

type templateModel struct {
	TemplateID         string   `gorm:"column:template_id;primaryKey"`
	OrgID              string   `gorm:"column:org_id"`
	Name               string   `gorm:"column:name"`
	Description        string   `gorm:"column:description"`
	Platforms          string   `gorm:"column:platforms"`
	BaseConfig         string   `gorm:"column:base_config"`
	Distribution       string   `gorm:"column:distribution"`
	PlatformConfigs    string   `gorm:"column:platform_configs"`
	DefaultTotalBudget *float64 `gorm:"column:default_total_budget"`
	UsageCount         int64    `gorm:"column:usage_count"`
	IsActive           bool     `gorm:"column:is_active"`
}

func (templateModel) TableName() string {
	return "campaign_templates"
}

func templateModelFromEntity(item entities.Template) (templateModel, error) {
	platforms, err := encodeJSON(item.Platforms)
	if err != nil {
		return templateModel{}, err
	}
	baseConfig, err := encodeJSON(item.BaseConfig)
	if err != nil {
		return templateModel{}, err
	}
	distribution, err := encodeJSON(item.Distribution)
	if err != nil {
		return templateModel{}, err
	}
	platformConfigs, err := encodeJSON(item.PlatformConfigs)
	if err != nil {
		return templateModel{}, err
	}
	return templateModel{
		TemplateID:         strings.TrimSpace(item.TemplateID),
		OrgID:              strings.TrimSpace(item.OrgID),
		Name:               item.Name,
		Description:        item.Description,
		Platforms:          platforms,
		BaseConfig:         baseConfig,
		Distribution:       distribution,
		PlatformConfigs:    platformConfigs,
		DefaultTotalBudget: item.DefaultTotalBudget,
		UsageCount:         item.UsageCount,
		IsActive:           item.IsActive,
	}, nil
}

func (m templateModel) toEntity() (entities.Template, error) {
	item := entities.Template{
		TemplateID:         m.TemplateID,
		OrgID:              m.OrgID,
		Name:               m.Name,
		Description:        m.Description,
		DefaultTotalBudget: m.DefaultTotalBudget,
		UsageCount:         m.UsageCount,
		IsActive:           m.IsActive,
	}
	if err := decodeJSON(m.Platforms, &item.Platforms); err != nil {
		return entities.Template{}, err
	}
	if err := decodeJSON(m.BaseConfig, &item.BaseConfig); err != nil {
		return entities.Template{}, err
	}
	if err := decodeJSON(m.Distribution, &item.Distribution); err != nil {
		return entities.Template{}, err
	}
	if err := decodeJSON(m.PlatformConfigs, &item.PlatformConfigs); err != nil {
		return entities.Template{}, err
	}
	return item, nil
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "orchestration_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "orchestration_event_dedup"
}

func encodeJSON(value any) (string, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func decodeJSON(raw string, target any) error {
	if strings.TrimSpace(raw) == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
