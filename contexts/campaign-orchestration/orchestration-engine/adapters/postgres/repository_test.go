package postgresadapter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
	"adorchestra/internal/shared/events"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "orchestration.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return NewRepository(db, nil)
}

func testOrchestration(now time.Time) entities.Orchestration {
	total := 1000.0
	templateID := "tpl-1"
	return entities.Orchestration{
		OrchestrationID: "orch-1",
		OrgID:           "org-1",
		TemplateID:      &templateID,
		CreatedBy:       "user-1",
		Name:            "Spring Launch",
		Platforms:       []entities.Platform{entities.PlatformMeta, entities.PlatformGoogle},
		Config: entities.OrchestrationConfig{
			Objective:    "CONVERSIONS",
			AutoOptimize: true,
			Extra:        map[string]any{"audience": "returning"},
		},
		TotalBudget:      &total,
		BudgetAllocation: map[entities.Platform]float64{entities.PlatformMeta: 400, entities.PlatformGoogle: 600},
		Status:           entities.OrchestrationStatusDraft,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func testMapping(id string, platform entities.Platform, now time.Time) entities.PlatformMapping {
	return entities.PlatformMapping{
		PlatformMappingID: id,
		OrgID:             "org-1",
		OrchestrationID:   "orch-1",
		ConnectionID:      "conn-" + string(platform),
		Platform:          platform,
		Status:            entities.MappingStatusPending,
		PlatformConfig:    entities.PlatformConfig{CampaignName: "Spring " + string(platform)},
		AllocatedBudget:   400,
		SyncStatus:        entities.MappingSyncStatusNever,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestOrchestrationRoundTripAndVersioning(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateOrchestration(ctx, testOrchestration(now)))

	loaded, err := repo.GetOrchestration(ctx, "org-1", "orch-1")
	require.NoError(t, err)
	assert.Equal(t, []entities.Platform{entities.PlatformMeta, entities.PlatformGoogle}, loaded.Platforms)
	assert.Equal(t, 600.0, loaded.BudgetAllocation[entities.PlatformGoogle])
	assert.True(t, loaded.Config.AutoOptimize)
	assert.Equal(t, "returning", loaded.Config.Extra["audience"])
	require.NotNil(t, loaded.TemplateID)
	assert.Equal(t, "tpl-1", *loaded.TemplateID)

	loaded.Activate(now.Add(time.Minute))
	updated, err := repo.UpdateOrchestration(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = repo.UpdateOrchestration(ctx, loaded)
	assert.ErrorIs(t, err, domainerrors.ErrConcurrentModification)

	_, err = repo.GetOrchestration(ctx, "org-2", "orch-1")
	assert.ErrorIs(t, err, domainerrors.ErrOrchestrationNotFound)

	active, err := repo.ListOrchestrations(ctx, ports.OrchestrationFilter{Status: entities.OrchestrationStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.NotNil(t, active[0].DeployedAt)
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err := repo.WithinTransaction(ctx, func(ctx context.Context, store ports.AggregateStore) error {
		if err := store.CreateOrchestration(ctx, testOrchestration(now)); err != nil {
			return err
		}
		if err := store.CreateMapping(ctx, testMapping("map-meta", entities.PlatformMeta, now)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetOrchestration(ctx, "org-1", "orch-1")
	assert.ErrorIs(t, err, domainerrors.ErrOrchestrationNotFound)
	mappings, err := repo.ListMappings(ctx, "org-1", "orch-1")
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

func TestMappingMetricsPersist(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateOrchestration(ctx, testOrchestration(now)))
	require.NoError(t, repo.CreateMapping(ctx, testMapping("map-meta", entities.PlatformMeta, now)))
	require.NoError(t, repo.CreateMapping(ctx, testMapping("map-google", entities.PlatformGoogle, now.Add(time.Second))))

	mapping, err := repo.GetMapping(ctx, "org-1", "map-meta")
	require.NoError(t, err)
	mapping.MarkActive("act_123", "Spring meta", now)
	mapping.ApplyDelta(entities.PerformanceDelta{Spend: 12.5, Impressions: 900, Clicks: 30, Revenue: 40})
	mapping.MarkSynced(now)
	updated, err := repo.UpdateMapping(ctx, mapping)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = repo.UpdateMapping(ctx, mapping)
	assert.ErrorIs(t, err, domainerrors.ErrConcurrentModification)

	mappings, err := repo.ListMappings(ctx, "org-1", "orch-1")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "map-meta", mappings[0].PlatformMappingID)
	assert.Equal(t, 12.5, mappings[0].Metrics.Spend)
	assert.Equal(t, int64(900), mappings[0].Metrics.Impressions)
	assert.Equal(t, entities.MappingSyncStatusSynced, mappings[0].SyncStatus)
	assert.Equal(t, "Spring meta", mappings[0].PlatformConfig.CampaignName)
}

func TestWorkflowTerminalStateIsFinal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	workflow := entities.NewWorkflow("wf-1", testOrchestration(now), entities.WorkflowTypeCreation, []entities.WorkflowStep{
		{Name: "validate_configuration", Action: "validate"},
	}, now)
	require.NoError(t, repo.CreateWorkflow(ctx, workflow))

	workflow.Start(now)
	workflow.LogStep("validate_configuration", entities.StepStatusCompleted, map[string]any{"platforms": 2}, now)
	workflow.AdvanceStep(now)
	workflow.Complete(now)
	require.NoError(t, repo.UpdateWorkflow(ctx, workflow))

	loaded, err := repo.GetWorkflow(ctx, "org-1", "wf-1")
	require.NoError(t, err)
	assert.Equal(t, entities.WorkflowStatusCompleted, loaded.Status)
	require.Len(t, loaded.ExecutionLog, 1)
	assert.Equal(t, entities.StepStatusCompleted, loaded.ExecutionLog[0].Status)

	workflow.Status = entities.WorkflowStatusRunning
	assert.ErrorIs(t, repo.UpdateWorkflow(ctx, workflow), domainerrors.ErrInvalidStateTransition)

	missing := workflow
	missing.WorkflowID = "wf-missing"
	assert.ErrorIs(t, repo.UpdateWorkflow(ctx, missing), domainerrors.ErrWorkflowNotFound)
}

func TestRegistryConnectionsAndTemplates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveConnection(ctx, entities.Connection{
		ConnectionID: "conn-b", OrgID: "org-1", Platform: entities.PlatformMeta, AccessToken: "t", IsActive: true,
	}))
	require.NoError(t, repo.SaveConnection(ctx, entities.Connection{
		ConnectionID: "conn-a", OrgID: "org-1", Platform: entities.PlatformMeta, AccessToken: "t", IsActive: false,
	}))

	connection, found, err := repo.FindActiveConnection(ctx, "org-1", entities.PlatformMeta)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "conn-b", connection.ConnectionID)

	_, found, err = repo.FindActiveConnection(ctx, "org-1", entities.PlatformTikTok)
	require.NoError(t, err)
	assert.False(t, found)

	total := 250.0
	require.NoError(t, repo.SaveTemplate(ctx, entities.Template{
		TemplateID:         "tpl-1",
		OrgID:              "org-1",
		Name:               "Always On",
		Platforms:          []entities.Platform{entities.PlatformMeta},
		Distribution:       map[entities.Platform]float64{entities.PlatformMeta: 100},
		DefaultTotalBudget: &total,
		IsActive:           true,
	}))
	_, err = repo.GetTemplate(ctx, "org-2", "tpl-1")
	assert.ErrorIs(t, err, domainerrors.ErrTemplateNotFound)

	require.NoError(t, repo.IncrementTemplateUsage(ctx, "tpl-1"))
	template, err := repo.GetTemplate(ctx, "org-1", "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), template.UsageCount)
	assert.Equal(t, 100.0, template.Distribution[entities.PlatformMeta])

	assert.ErrorIs(t, repo.IncrementTemplateUsage(ctx, "tpl-missing"), domainerrors.ErrTemplateNotFound)
}

func TestOutboxAndEventDedup(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()
	envelope := events.Envelope{
		EventID:       "evt-1",
		EventType:     "orchestration.created",
		OccurredAtUTC: now,
		PartitionKey:  "orch-1",
		Payload:       []byte(`{"orchestration_id":"orch-1"}`),
	}

	require.NoError(t, repo.AppendOutbox(ctx, envelope))
	require.NoError(t, repo.AppendOutbox(ctx, envelope))
	changed := envelope
	changed.Payload = []byte(`{"orchestration_id":"orch-2"}`)
	assert.ErrorIs(t, repo.AppendOutbox(ctx, changed), domainerrors.ErrIdempotencyKeyConflict)

	pending, err := repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, repo.MarkOutboxPublished(ctx, pending[0].OutboxID, now))
	pending, err = repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	processed, err := repo.ReserveEvent(ctx, "evt-1", "hash-a", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, processed)
	processed, err = repo.ReserveEvent(ctx, "evt-1", "hash-a", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, processed)
	_, err = repo.ReserveEvent(ctx, "evt-1", "hash-b", now.Add(time.Hour))
	assert.ErrorIs(t, err, domainerrors.ErrIdempotencyKeyConflict)

	processed, err = repo.ReserveEvent(ctx, "evt-2", "hash-a", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, processed)
	processed, err = repo.ReserveEvent(ctx, "evt-2", "hash-b", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, processed, "expired reservations are replaced")
}
