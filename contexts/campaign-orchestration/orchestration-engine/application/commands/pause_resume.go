package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const (
	EventOrchestrationPaused  = "orchestration.paused"
	EventOrchestrationResumed = "orchestration.resumed"
)

type PauseUseCase struct {
	UnitOfWork  ports.UnitOfWork
	Sync        syncing.Service
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc PauseUseCase) Execute(ctx context.Context, cmd OrchestrationCommand) (entities.Orchestration, error) {
	return stateChange{
		unitOfWork:  uc.UnitOfWork,
		sync:        uc.Sync,
		clock:       uc.Clock,
		idGenerator: uc.IDGenerator,
		logger:      application.ResolveLogger(uc.Logger),
		pause:       true,
	}.execute(ctx, cmd)
}

type ResumeUseCase struct {
	UnitOfWork  ports.UnitOfWork
	Sync        syncing.Service
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc ResumeUseCase) Execute(ctx context.Context, cmd OrchestrationCommand) (entities.Orchestration, error) {
	return stateChange{
		unitOfWork:  uc.UnitOfWork,
		sync:        uc.Sync,
		clock:       uc.Clock,
		idGenerator: uc.IDGenerator,
		logger:      application.ResolveLogger(uc.Logger),
		pause:       false,
	}.execute(ctx, cmd)
}

// stateChange pauses or resumes every eligible mapping inside one transaction.
// The first platform failure rolls everything back and the remote calls that
// already succeeded are reversed.
type stateChange struct {
	unitOfWork  ports.UnitOfWork
	sync        syncing.Service
	clock       ports.Clock
	idGenerator ports.IDGenerator
	logger      *slog.Logger
	pause       bool
}

func (c stateChange) execute(ctx context.Context, cmd OrchestrationCommand) (entities.Orchestration, error) {
	orgID := strings.TrimSpace(cmd.OrgID)
	orchestrationID := strings.TrimSpace(cmd.OrchestrationID)
	fromOrchestration, fromMapping := entities.OrchestrationStatusActive, entities.MappingStatusActive
	action, eventType := "pause", EventOrchestrationPaused
	if !c.pause {
		fromOrchestration, fromMapping = entities.OrchestrationStatusPaused, entities.MappingStatusPaused
		action, eventType = "resume", EventOrchestrationResumed
	}

	var result entities.Orchestration
	touched := make([]entities.PlatformMapping, 0)
	err := c.unitOfWork.WithinTransaction(ctx, func(ctx context.Context, store ports.AggregateStore) error {
		touched = touched[:0]
		orchestration, err := store.GetOrchestration(ctx, orgID, orchestrationID)
		if err != nil {
			return err
		}
		if orchestration.Status != fromOrchestration {
			return fmt.Errorf("%w: cannot %s from %s", domainerrors.ErrInvalidStateTransition, action, orchestration.Status)
		}
		mappings, err := store.ListMappings(ctx, orgID, orchestrationID)
		if err != nil {
			return err
		}
		mappings = entities.OrderMappings(orchestration, mappings)

		for index, mapping := range mappings {
			if mapping.Status != fromMapping {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			remote, err := c.call(ctx, mapping)
			if err != nil {
				return fmt.Errorf("%s campaign on %s: %w", action, mapping.Platform, err)
			}
			touched = append(touched, mapping)

			now := c.clock.Now().UTC()
			if c.pause {
				mapping.MarkPaused(now)
			} else {
				mapping.MarkActive(mapping.ExternalCampaignID, remote.Name, now)
			}
			updated, err := store.UpdateMapping(ctx, mapping)
			if err != nil {
				return err
			}
			mappings[index] = updated
		}

		now := c.clock.Now().UTC()
		if c.pause {
			orchestration.Pause(now)
		} else {
			orchestration.Activate(now)
		}
		orchestration.ApplyCounts(entities.CountMappings(mappings))
		updated, err := store.UpdateOrchestration(ctx, orchestration)
		if err != nil {
			return err
		}
		result = updated
		return appendEvent(ctx, store, c.idGenerator, eventType, updated, now, map[string]any{
			"orchestration_id": updated.OrchestrationID,
			"org_id":           updated.OrgID,
			"platform_count":   len(touched),
		})
	})
	if err != nil {
		c.reverse(ctx, touched, action)
		c.logger.Error("orchestration state change failed",
			"event", "orchestration_"+action+"_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"orchestration_id", orchestrationID,
			"retryable", domainerrors.IsRetryable(err),
			"error", err.Error(),
		)
		return entities.Orchestration{}, err
	}

	c.logger.Info("orchestration state changed",
		"event", "orchestration_"+action+"d",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestrationID,
		"to_status", string(result.Status),
		"platform_count", len(touched),
	)
	return result, nil
}

func (c stateChange) call(ctx context.Context, mapping entities.PlatformMapping) (ports.RemoteCampaign, error) {
	if c.pause {
		return c.sync.PausePlatformCampaign(ctx, mapping)
	}
	return c.sync.ResumePlatformCampaign(ctx, mapping)
}

// reverse restores the remote state of platforms already switched, newest first.
func (c stateChange) reverse(ctx context.Context, touched []entities.PlatformMapping, action string) {
	undoCtx := context.WithoutCancel(ctx)
	for index := len(touched) - 1; index >= 0; index-- {
		mapping := touched[index]
		var err error
		if c.pause {
			_, err = c.sync.ResumePlatformCampaign(undoCtx, mapping)
		} else {
			_, err = c.sync.PausePlatformCampaign(undoCtx, mapping)
		}
		if err != nil {
			c.logger.Warn("compensation failed",
				"event", "orchestration_compensation_failed",
				"module", "campaign-orchestration/orchestration-engine",
				"layer", "application",
				"orchestration_id", mapping.OrchestrationID,
				"platform", string(mapping.Platform),
				"compensation", "undo "+action,
				"error", err.Error(),
			)
		}
	}
}
