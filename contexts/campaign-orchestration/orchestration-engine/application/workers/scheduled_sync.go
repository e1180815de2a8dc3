package workers

import (
	"context"
	"log/slog"
	"sync/atomic"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/commands"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"

	"golang.org/x/sync/errgroup"
)

// ScheduledSync pulls performance for active orchestrations. Orchestrations
// may be synced in parallel up to Concurrency; the mappings of one
// orchestration are always synced in declaration order.
type ScheduledSync struct {
	Orchestrations ports.OrchestrationRepository
	Sync           commands.SyncUseCase
	BatchSize      int
	Concurrency    int
	Disabled       bool
	Logger         *slog.Logger
}

func (w ScheduledSync) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	if w.Disabled {
		return nil
	}
	limit := w.BatchSize
	if limit <= 0 {
		limit = 50
	}
	items, err := w.Orchestrations.ListOrchestrations(ctx, ports.OrchestrationFilter{
		Status: entities.OrchestrationStatusActive,
		Limit:  limit,
	})
	if err != nil {
		logger.Error("scheduled sync list failed",
			"event", "orchestration_scheduled_sync_list_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(items) == 0 {
		return nil
	}

	var failed atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	group.SetLimit(concurrency)
	for _, item := range items {
		orchestration := item
		group.Go(func() error {
			result, err := w.Sync.Execute(groupCtx, commands.SyncCommand{
				OrgID:           orchestration.OrgID,
				OrchestrationID: orchestration.OrchestrationID,
				SyncType:        entities.SyncTypePerformance,
			})
			if err != nil {
				failed.Add(1)
				logger.Warn("scheduled sync failed",
					"event", "orchestration_scheduled_sync_failed",
					"module", "campaign-orchestration/orchestration-engine",
					"layer", "worker",
					"orchestration_id", orchestration.OrchestrationID,
					"error", err.Error(),
				)
				return nil
			}
			if result.Failed() > 0 {
				failed.Add(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("scheduled sync cycle completed",
		"event", "orchestration_scheduled_sync_completed",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "worker",
		"orchestration_count", len(items),
		"failed_count", failed.Load(),
		"concurrency", concurrency,
	)
	return nil
}
