package ports

import (
	"context"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/internal/shared/events"
)

type OrchestrationFilter struct {
	OrgID  string
	Status entities.OrchestrationStatus
	Limit  int
}

// OrchestrationRepository updates are version-checked; the returned entity
// carries the incremented version.
type OrchestrationRepository interface {
	CreateOrchestration(ctx context.Context, orchestration entities.Orchestration) error
	UpdateOrchestration(ctx context.Context, orchestration entities.Orchestration) (entities.Orchestration, error)
	GetOrchestration(ctx context.Context, orgID string, orchestrationID string) (entities.Orchestration, error)
	ListOrchestrations(ctx context.Context, filter OrchestrationFilter) ([]entities.Orchestration, error)
}

type MappingRepository interface {
	CreateMapping(ctx context.Context, mapping entities.PlatformMapping) error
	UpdateMapping(ctx context.Context, mapping entities.PlatformMapping) (entities.PlatformMapping, error)
	GetMapping(ctx context.Context, orgID string, mappingID string) (entities.PlatformMapping, error)
	ListMappings(ctx context.Context, orgID string, orchestrationID string) ([]entities.PlatformMapping, error)
}

type TemplateUsageRecorder interface {
	IncrementTemplateUsage(ctx context.Context, templateID string) error
}

// AggregateStore is the Orchestration + PlatformMapping aggregate plus its outbox.
type AggregateStore interface {
	OrchestrationRepository
	MappingRepository
	TemplateUsageRecorder
	OutboxWriter
}

// UnitOfWork rolls back every write made through the store handed to fn
// when fn returns an error.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store AggregateStore) error) error
}

type WorkflowRepository interface {
	CreateWorkflow(ctx context.Context, workflow entities.Workflow) error
	UpdateWorkflow(ctx context.Context, workflow entities.Workflow) error
	GetWorkflow(ctx context.Context, orgID string, workflowID string) (entities.Workflow, error)
	ListWorkflows(ctx context.Context, orgID string, orchestrationID string) ([]entities.Workflow, error)
}

type SyncLogRepository interface {
	CreateSyncLog(ctx context.Context, log entities.SyncLog) error
	UpdateSyncLog(ctx context.Context, log entities.SyncLog) error
	ListSyncLogs(ctx context.Context, orgID string, orchestrationID string, limit int) ([]entities.SyncLog, error)
}

type ConnectionRegistry interface {
	FindActiveConnection(ctx context.Context, orgID string, platform entities.Platform) (entities.Connection, bool, error)
	GetConnection(ctx context.Context, orgID string, connectionID string) (entities.Connection, error)
}

type TemplateProvider interface {
	GetTemplate(ctx context.Context, orgID string, templateID string) (entities.Template, error)
}

// CampaignSpec is the platform-neutral create request.
type CampaignSpec struct {
	Name           string
	Objective      string
	DailyBudget    float64
	Currency       string
	StartDate      *time.Time
	EndDate        *time.Time
	IdempotencyKey string
	Config         map[string]any
}

type CampaignUpdate struct {
	Name        *string
	DailyBudget *float64
	Settings    map[string]any
}

type RemoteCampaign struct {
	ExternalID string
	Name       string
	Status     string
}

type DateRange struct {
	From time.Time
	To   time.Time
}

// PlatformAdapter failures are surfaced as *errors.PlatformError.
type PlatformAdapter interface {
	Platform() entities.Platform
	CreateCampaign(ctx context.Context, connection entities.Connection, spec CampaignSpec) (RemoteCampaign, error)
	PauseCampaign(ctx context.Context, connection entities.Connection, externalID string) (RemoteCampaign, error)
	ResumeCampaign(ctx context.Context, connection entities.Connection, externalID string) (RemoteCampaign, error)
	UpdateCampaign(ctx context.Context, connection entities.Connection, externalID string, update CampaignUpdate) error
	DeleteCampaign(ctx context.Context, connection entities.Connection, externalID string) error
	FetchPerformance(ctx context.Context, connection entities.Connection, externalID string, window DateRange) (entities.PerformanceDelta, error)
}

type AdapterRegistry interface {
	Adapter(platform entities.Platform) (PlatformAdapter, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
