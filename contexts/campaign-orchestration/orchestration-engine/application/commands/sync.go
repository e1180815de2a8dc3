package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

type SyncCommand struct {
	OrgID           string
	OrchestrationID string
	SyncType        entities.SyncType
}

type PlatformSyncOutcome struct {
	Status    entities.SyncStatus
	Error     string
	Retryable bool
	SyncLogID string
}

type SyncResult struct {
	Orchestration entities.Orchestration
	Platforms     map[entities.Platform]PlatformSyncOutcome
}

func (r SyncResult) Failed() int {
	count := 0
	for _, item := range r.Platforms {
		if item.Status == entities.SyncStatusFailed {
			count++
		}
	}
	return count
}

// SyncUseCase tolerates per-platform failures: they are reported in the result
// and the orchestration is stamped synced regardless.
type SyncUseCase struct {
	Store  ports.AggregateStore
	Sync   syncing.Service
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc SyncUseCase) Execute(ctx context.Context, cmd SyncCommand) (SyncResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	syncType := cmd.SyncType
	if syncType == "" {
		syncType = entities.SyncTypeFull
	}
	if !entities.IsSupportedSyncType(syncType) {
		return SyncResult{}, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedSyncType, syncType)
	}
	orgID := strings.TrimSpace(cmd.OrgID)
	orchestrationID := strings.TrimSpace(cmd.OrchestrationID)

	orchestration, err := uc.Store.GetOrchestration(ctx, orgID, orchestrationID)
	if err != nil {
		return SyncResult{}, err
	}
	mappings, err := uc.Store.ListMappings(ctx, orgID, orchestrationID)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Platforms: make(map[entities.Platform]PlatformSyncOutcome, len(mappings))}
	for _, mapping := range entities.OrderMappings(orchestration, mappings) {
		if err := ctx.Err(); err != nil {
			return SyncResult{}, err
		}
		_, syncLog, err := uc.Sync.SyncPlatformMapping(ctx, uc.Store, mapping, syncType)
		if err != nil {
			result.Platforms[mapping.Platform] = PlatformSyncOutcome{
				Status:    entities.SyncStatusFailed,
				Error:     err.Error(),
				Retryable: domainerrors.IsRetryable(err),
				SyncLogID: syncLog.SyncLogID,
			}
			continue
		}
		result.Platforms[mapping.Platform] = PlatformSyncOutcome{
			Status:    entities.SyncStatusCompleted,
			SyncLogID: syncLog.SyncLogID,
		}
	}

	synced, err := uc.markSynced(ctx, orgID, orchestrationID)
	if err != nil {
		return SyncResult{}, err
	}
	result.Orchestration = synced

	logger.Info("orchestration synced",
		"event", "orchestration_synced",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestrationID,
		"sync_type", string(syncType),
		"platform_count", len(result.Platforms),
		"failed_count", result.Failed(),
	)
	return result, nil
}

// markSynced also refreshes the platform counters, since a sync can fail a
// mapping whose remote campaign is gone. It retries once on a version conflict.
func (uc SyncUseCase) markSynced(ctx context.Context, orgID string, orchestrationID string) (entities.Orchestration, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		orchestration, err := uc.Store.GetOrchestration(ctx, orgID, orchestrationID)
		if err != nil {
			return entities.Orchestration{}, err
		}
		mappings, err := uc.Store.ListMappings(ctx, orgID, orchestrationID)
		if err != nil {
			return entities.Orchestration{}, err
		}
		orchestration.ApplyCounts(entities.CountMappings(mappings))
		orchestration.MarkSynced(uc.Clock.Now().UTC())
		updated, err := uc.Store.UpdateOrchestration(ctx, orchestration)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrentModification) {
			return entities.Orchestration{}, err
		}
		lastErr = err
	}
	return entities.Orchestration{}, lastErr
}
