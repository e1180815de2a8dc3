package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
	"adorchestra/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
}

// Store keeps every port in process. Transactions are serialized and keep an
// undo journal of the aggregate writes made through the transaction's store;
// a rollback replays it and leaves writes made outside the transaction in
// place. Workflows, sync logs and dedup records are audit data and survive a
// rollback.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	orchestrations map[string]entities.Orchestration
	mappings       map[string]entities.PlatformMapping
	mappingOrder   []string
	templates      map[string]entities.Template
	outbox         []outboxRecord

	connections map[string]entities.Connection
	workflows   map[string]entities.Workflow
	syncLogs    []entities.SyncLog
	eventDedup  map[string]dedupRecord
}

func NewStore(connections []entities.Connection, templates []entities.Template) *Store {
	store := &Store{
		orchestrations: make(map[string]entities.Orchestration),
		mappings:       make(map[string]entities.PlatformMapping),
		mappingOrder:   make([]string, 0),
		templates:      make(map[string]entities.Template, len(templates)),
		outbox:         make([]outboxRecord, 0),
		connections:    make(map[string]entities.Connection, len(connections)),
		workflows:      make(map[string]entities.Workflow),
		syncLogs:       make([]entities.SyncLog, 0),
		eventDedup:     make(map[string]dedupRecord),
	}
	for _, item := range connections {
		store.connections[item.ConnectionID] = item
	}
	for _, item := range templates {
		store.templates[item.TemplateID] = item
	}
	return store
}

func (s *Store) WithinTransaction(
	ctx context.Context,
	fn func(ctx context.Context, store ports.AggregateStore) error,
) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txStore{Store: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) CreateOrchestration(_ context.Context, orchestration entities.Orchestration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orchestrations[orchestration.OrchestrationID]; exists {
		return domainerrors.ErrInvalidOrchestrationInput
	}
	s.orchestrations[orchestration.OrchestrationID] = orchestration.Clone()
	return nil
}

func (s *Store) UpdateOrchestration(_ context.Context, orchestration entities.Orchestration) (entities.Orchestration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.orchestrations[orchestration.OrchestrationID]
	if !exists || current.OrgID != orchestration.OrgID {
		return entities.Orchestration{}, domainerrors.ErrOrchestrationNotFound
	}
	if current.Version != orchestration.Version {
		return entities.Orchestration{}, domainerrors.ErrConcurrentModification
	}
	orchestration.Version++
	s.orchestrations[orchestration.OrchestrationID] = orchestration.Clone()
	return orchestration, nil
}

func (s *Store) GetOrchestration(_ context.Context, orgID string, orchestrationID string) (entities.Orchestration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.orchestrations[strings.TrimSpace(orchestrationID)]
	if !exists || item.OrgID != strings.TrimSpace(orgID) {
		return entities.Orchestration{}, domainerrors.ErrOrchestrationNotFound
	}
	return item.Clone(), nil
}

func (s *Store) ListOrchestrations(_ context.Context, filter ports.OrchestrationFilter) ([]entities.Orchestration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgID := strings.TrimSpace(filter.OrgID)
	items := make([]entities.Orchestration, 0, len(s.orchestrations))
	for _, item := range s.orchestrations {
		if orgID != "" && item.OrgID != orgID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OrchestrationID < items[j].OrchestrationID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) CreateMapping(_ context.Context, mapping entities.PlatformMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.mappings[mapping.PlatformMappingID]; exists {
		return domainerrors.ErrInvalidOrchestrationInput
	}
	if _, exists := s.orchestrations[mapping.OrchestrationID]; !exists {
		return domainerrors.ErrOrchestrationNotFound
	}
	s.mappings[mapping.PlatformMappingID] = mapping.Clone()
	s.mappingOrder = append(s.mappingOrder, mapping.PlatformMappingID)
	return nil
}

func (s *Store) UpdateMapping(_ context.Context, mapping entities.PlatformMapping) (entities.PlatformMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.mappings[mapping.PlatformMappingID]
	if !exists || current.OrgID != mapping.OrgID {
		return entities.PlatformMapping{}, domainerrors.ErrPlatformMappingNotFound
	}
	if current.Version != mapping.Version {
		return entities.PlatformMapping{}, domainerrors.ErrConcurrentModification
	}
	mapping.Version++
	s.mappings[mapping.PlatformMappingID] = mapping.Clone()
	return mapping, nil
}

func (s *Store) GetMapping(_ context.Context, orgID string, mappingID string) (entities.PlatformMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.mappings[strings.TrimSpace(mappingID)]
	if !exists || item.OrgID != strings.TrimSpace(orgID) {
		return entities.PlatformMapping{}, domainerrors.ErrPlatformMappingNotFound
	}
	return item.Clone(), nil
}

func (s *Store) ListMappings(_ context.Context, orgID string, orchestrationID string) ([]entities.PlatformMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.PlatformMapping, 0)
	for _, id := range s.mappingOrder {
		item, ok := s.mappings[id]
		if !ok || item.OrgID != orgID || item.OrchestrationID != orchestrationID {
			continue
		}
		items = append(items, item.Clone())
	}
	return items, nil
}

func (s *Store) IncrementTemplateUsage(_ context.Context, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.templates[templateID]
	if !exists {
		return domainerrors.ErrTemplateNotFound
	}
	item.UsageCount++
	s.templates[templateID] = item
	return nil
}

func (s *Store) GetTemplate(_ context.Context, orgID string, templateID string) (entities.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.templates[strings.TrimSpace(templateID)]
	if !exists || !item.AvailableTo(strings.TrimSpace(orgID)) {
		return entities.Template{}, domainerrors.ErrTemplateNotFound
	}
	return item, nil
}

func (s *Store) FindActiveConnection(_ context.Context, orgID string, platform entities.Platform) (entities.Connection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]entities.Connection, 0)
	for _, item := range s.connections {
		if item.OrgID == orgID && item.Platform == platform && item.Active() {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return entities.Connection{}, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ConnectionID < candidates[j].ConnectionID
	})
	return candidates[0], true, nil
}

func (s *Store) GetConnection(_ context.Context, orgID string, connectionID string) (entities.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.connections[strings.TrimSpace(connectionID)]
	if !exists || item.OrgID != orgID {
		return entities.Connection{}, domainerrors.ErrConnectionNotFound
	}
	return item, nil
}

// PutConnection upserts a connection; used for seeding and revocation.
func (s *Store) PutConnection(connection entities.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connections[connection.ConnectionID] = connection
}

func (s *Store) TemplateUsage(templateID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.templates[templateID].UsageCount
}

func (s *Store) CreateWorkflow(_ context.Context, workflow entities.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workflows[workflow.WorkflowID]; exists {
		return domainerrors.ErrInvalidOrchestrationInput
	}
	s.workflows[workflow.WorkflowID] = workflow.Clone()
	return nil
}

func (s *Store) UpdateWorkflow(_ context.Context, workflow entities.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.workflows[workflow.WorkflowID]
	if !exists {
		return domainerrors.ErrWorkflowNotFound
	}
	if current.Terminal() {
		return domainerrors.ErrInvalidStateTransition
	}
	s.workflows[workflow.WorkflowID] = workflow.Clone()
	return nil
}

func (s *Store) GetWorkflow(_ context.Context, orgID string, workflowID string) (entities.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.workflows[strings.TrimSpace(workflowID)]
	if !exists || item.OrgID != orgID {
		return entities.Workflow{}, domainerrors.ErrWorkflowNotFound
	}
	return item.Clone(), nil
}

func (s *Store) ListWorkflows(_ context.Context, orgID string, orchestrationID string) ([]entities.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Workflow, 0)
	for _, item := range s.workflows {
		if item.OrgID == orgID && item.OrchestrationID == orchestrationID {
			items = append(items, item.Clone())
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].WorkflowID < items[j].WorkflowID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateSyncLog(_ context.Context, log entities.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.syncLogs {
		if item.SyncLogID == log.SyncLogID {
			return domainerrors.ErrInvalidOrchestrationInput
		}
	}
	s.syncLogs = append(s.syncLogs, log)
	return nil
}

func (s *Store) UpdateSyncLog(_ context.Context, log entities.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for index, item := range s.syncLogs {
		if item.SyncLogID != log.SyncLogID {
			continue
		}
		if item.Terminal() {
			return domainerrors.ErrInvalidStateTransition
		}
		s.syncLogs[index] = log
		return nil
	}
	return domainerrors.ErrInvalidOrchestrationInput
}

// ListSyncLogs returns the newest entries first.
func (s *Store) ListSyncLogs(_ context.Context, orgID string, orchestrationID string, limit int) ([]entities.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.SyncLog, 0)
	for index := len(s.syncLogs) - 1; index >= 0; index-- {
		item := s.syncLogs[index]
		if item.OrgID != orgID || item.OrchestrationID != orchestrationID {
			continue
		}
		items = append(items, item)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAtUTC,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, item := range s.outbox {
		if item.publishedAt != nil {
			continue
		}
		items = append(items, item.message)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for index := range s.outbox {
		if s.outbox[index].message.OutboxID != outboxID {
			continue
		}
		at := publishedAt.UTC()
		s.outbox[index].publishedAt = &at
		return nil
	}
	return nil
}

// OutboxMessages returns every row with its relay status, oldest first.
func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]outbox.Message, 0, len(s.outbox))
	for _, item := range s.outbox {
		status := outbox.StatusPending
		if item.publishedAt != nil {
			status = outbox.StatusPublished
		}
		items = append(items, outbox.Message{
			ID:           item.message.OutboxID,
			EventType:    item.message.EventType,
			PartitionKey: item.message.PartitionKey,
			Payload:      item.message.Payload,
			Status:       status,
		})
	}
	return items
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidOrchestrationInput
	}
	if existing, ok := s.eventDedup[key]; ok && existing.ExpiresAt.After(time.Now().UTC()) {
		if existing.PayloadHash != payloadHash {
			return false, domainerrors.ErrIdempotencyKeyConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
