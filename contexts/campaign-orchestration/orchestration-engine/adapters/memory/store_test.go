package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
	"adorchestra/internal/shared/outbox"
)

func seedOrchestration(t *testing.T, store *Store) entities.Orchestration {
	t.Helper()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	orchestration := entities.Orchestration{
		OrchestrationID: "orch-1",
		OrgID:           "org-1",
		CreatedBy:       "user-1",
		Name:            "Spring",
		Platforms:       []entities.Platform{entities.PlatformMeta},
		Status:          entities.OrchestrationStatusDraft,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateOrchestration(context.Background(), orchestration); err != nil {
		t.Fatalf("create orchestration failed: %v", err)
	}
	return orchestration
}

func TestUpdateOrchestrationRejectsStaleVersion(t *testing.T) {
	store := NewStore(nil, nil)
	original := seedOrchestration(t, store)

	first := original
	first.Name = "Spring v2"
	updated, err := store.UpdateOrchestration(context.Background(), first)
	if err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	stale := original
	stale.Name = "Spring stale"
	if _, err := store.UpdateOrchestration(context.Background(), stale); !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}

func TestGetOrchestrationIsTenantScoped(t *testing.T) {
	store := NewStore(nil, nil)
	seedOrchestration(t, store)
	if _, err := store.GetOrchestration(context.Background(), "org-2", "orch-1"); !errors.Is(err, domainerrors.ErrOrchestrationNotFound) {
		t.Fatalf("expected not found for another org, got %v", err)
	}
}

func TestWithinTransactionRollsBackAggregatesOnly(t *testing.T) {
	store := NewStore(nil, nil)
	orchestration := seedOrchestration(t, store)
	now := orchestration.CreatedAt

	boom := errors.New("boom")
	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx ports.AggregateStore) error {
		if err := tx.CreateMapping(ctx, entities.PlatformMapping{
			PlatformMappingID: "map-1",
			OrgID:             "org-1",
			OrchestrationID:   "orch-1",
			Platform:          entities.PlatformMeta,
			Status:            entities.MappingStatusPending,
			Version:           1,
		}); err != nil {
			return err
		}
		if err := store.CreateWorkflow(ctx, entities.NewWorkflow("wf-1", orchestration, entities.WorkflowTypeCreation, nil, now)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	mappings, err := store.ListMappings(context.Background(), "org-1", "orch-1")
	if err != nil {
		t.Fatalf("list mappings failed: %v", err)
	}
	if len(mappings) != 0 {
		t.Fatalf("expected mapping insert to roll back, got %d", len(mappings))
	}
	workflows, err := store.ListWorkflows(context.Background(), "org-1", "orch-1")
	if err != nil {
		t.Fatalf("list workflows failed: %v", err)
	}
	if len(workflows) != 1 {
		t.Fatalf("expected workflow audit record to survive rollback, got %d", len(workflows))
	}
}

func TestRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	store := NewStore(nil, nil)
	ctx := context.Background()
	first := seedOrchestration(t, store)
	second := first
	second.OrchestrationID = "orch-2"
	if err := store.CreateOrchestration(ctx, second); err != nil {
		t.Fatalf("create second orchestration failed: %v", err)
	}
	if err := store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-before", EventType: "orchestration.created"}); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context, tx ports.AggregateStore) error {
		renamed := first
		renamed.Name = "Spring v2"
		if _, err := tx.UpdateOrchestration(ctx, renamed); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-tx", EventType: "orchestration.paused"}); err != nil {
			return err
		}

		other := second
		other.Name = "Autumn"
		if _, err := store.UpdateOrchestration(ctx, other); err != nil {
			return err
		}
		if err := store.MarkOutboxPublished(ctx, "evt-before", first.CreatedAt); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	restored, err := store.GetOrchestration(ctx, "org-1", "orch-1")
	if err != nil {
		t.Fatalf("get orchestration failed: %v", err)
	}
	if restored.Name != "Spring" || restored.Version != 1 {
		t.Fatalf("expected transactional update to roll back, got %q v%d", restored.Name, restored.Version)
	}
	kept, err := store.GetOrchestration(ctx, "org-1", "orch-2")
	if err != nil {
		t.Fatalf("get second orchestration failed: %v", err)
	}
	if kept.Name != "Autumn" {
		t.Fatalf("expected outside update to survive rollback, got %q", kept.Name)
	}

	messages := store.OutboxMessages()
	if len(messages) != 1 || messages[0].ID != "evt-before" {
		t.Fatalf("expected only the pre-existing outbox row, got %+v", messages)
	}
	if messages[0].Status != outbox.StatusPublished {
		t.Fatalf("expected publish mark made during the transaction to survive, got %s", messages[0].Status)
	}
}

func TestReserveEventDetectsReplayAndConflict(t *testing.T) {
	store := NewStore(nil, nil)
	expires := time.Now().UTC().Add(time.Hour)

	processed, err := store.ReserveEvent(context.Background(), "evt-1", "hash-a", expires)
	if err != nil || processed {
		t.Fatalf("expected first reservation to succeed, got processed=%v err=%v", processed, err)
	}
	processed, err = store.ReserveEvent(context.Background(), "evt-1", "hash-a", expires)
	if err != nil || !processed {
		t.Fatalf("expected replay to be reported, got processed=%v err=%v", processed, err)
	}
	if _, err := store.ReserveEvent(context.Background(), "evt-1", "hash-b", expires); !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected conflict for a different payload, got %v", err)
	}
}
