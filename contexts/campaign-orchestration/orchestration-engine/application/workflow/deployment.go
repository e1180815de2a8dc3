package workflow

import (
	"context"
	"errors"
	"fmt"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const (
	StepValidateConfiguration   = "validate_configuration"
	StepCreatePlatformCampaigns = "create_platform_campaigns"
	StepSyncSettings            = "sync_settings"
	StepActivateCampaigns       = "activate_campaigns"

	EventOrchestrationDeployed = "orchestration.deployed"
)

// DeploymentPipeline is the fixed four step creation plan. It runs in one
// transaction; remote campaigns are deleted again if it fails.
func DeploymentPipeline(sync syncing.Service, connections ports.ConnectionRegistry) Pipeline {
	return Pipeline{
		Type:          entities.WorkflowTypeCreation,
		Transactional: true,
		Steps: []Step{
			NewStep(StepValidateConfiguration, "validate", func(ctx context.Context, run *Run) (map[string]any, error) {
				return validateConfiguration(ctx, run, connections)
			}),
			NewStep(StepCreatePlatformCampaigns, "create", func(ctx context.Context, run *Run) (map[string]any, error) {
				return createPlatformCampaigns(ctx, run, sync)
			}),
			NewStep(StepSyncSettings, "sync", func(ctx context.Context, run *Run) (map[string]any, error) {
				return syncSettings(ctx, run, sync)
			}),
			NewStep(StepActivateCampaigns, "activate", activateCampaigns),
		},
	}
}

func validateConfiguration(ctx context.Context, run *Run, connections ports.ConnectionRegistry) (map[string]any, error) {
	orchestration := run.Orchestration
	if !orchestration.CanDeploy() {
		return nil, fmt.Errorf("%w: cannot deploy from %s", domainerrors.ErrInvalidStateTransition, orchestration.Status)
	}
	byPlatform := make(map[entities.Platform]entities.PlatformMapping, len(run.Mappings))
	for _, mapping := range run.Mappings {
		byPlatform[mapping.Platform] = mapping
	}
	for _, platform := range orchestration.Platforms {
		mapping, ok := byPlatform[platform]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrMissingPlatformMapping, platform)
		}
		connection, err := connections.GetConnection(ctx, mapping.OrgID, mapping.ConnectionID)
		if errors.Is(err, domainerrors.ErrConnectionNotFound) || (err == nil && !connection.Active()) {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrConnectionInactive, platform)
		}
		if err != nil {
			return nil, err
		}
	}

	detail := map[string]any{"platforms": len(orchestration.Platforms)}
	if orchestration.HasUnallocatedBudget() {
		unallocated := entities.RoundCurrency(*orchestration.TotalBudget - orchestration.TotalAllocated())
		detail["unallocated_budget"] = unallocated
		run.Logger().Warn("orchestration has unallocated budget",
			"event", "orchestration_unallocated_budget",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"orchestration_id", orchestration.OrchestrationID,
			"total_budget", *orchestration.TotalBudget,
			"allocated", orchestration.TotalAllocated(),
		)
	}
	return detail, nil
}

func createPlatformCampaigns(ctx context.Context, run *Run, sync syncing.Service) (map[string]any, error) {
	orchestration := run.Orchestration
	orchestration.MarkDeploying(run.Now())
	updated, err := run.Store.UpdateOrchestration(ctx, orchestration)
	if err != nil {
		return nil, err
	}
	run.Orchestration = updated

	created := make([]string, 0, len(run.Mappings))
	for _, mapping := range append([]entities.PlatformMapping(nil), run.Mappings...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mapping.Deployed() {
			continue
		}
		mapping.MarkCreating(run.Now())
		mapping, err = run.Store.UpdateMapping(ctx, mapping)
		if err != nil {
			return nil, err
		}
		run.replaceMapping(mapping)

		remote, err := sync.CreatePlatformCampaign(ctx, run.Orchestration, mapping)
		if err != nil {
			return nil, fmt.Errorf("create campaign on %s: %w", mapping.Platform, err)
		}
		owner := mapping
		run.Compensate("delete "+string(owner.Platform)+" campaign "+remote.ExternalID, func(ctx context.Context) error {
			return sync.DeletePlatformCampaign(ctx, owner, remote.ExternalID)
		})

		mapping.MarkActive(remote.ExternalID, remote.Name, run.Now())
		mapping, err = run.Store.UpdateMapping(ctx, mapping)
		if err != nil {
			return nil, err
		}
		run.replaceMapping(mapping)
		created = append(created, string(mapping.Platform))
	}
	return map[string]any{"created": created}, nil
}

func syncSettings(ctx context.Context, run *Run, sync syncing.Service) (map[string]any, error) {
	synced := 0
	for _, mapping := range append([]entities.PlatformMapping(nil), run.Mappings...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		updated, _, err := sync.SyncPlatformMapping(ctx, run.Store, mapping, entities.SyncTypeSettings)
		if err != nil {
			return nil, fmt.Errorf("sync settings on %s: %w", mapping.Platform, err)
		}
		run.replaceMapping(updated)
		synced++
	}
	return map[string]any{"synced": synced}, nil
}

func activateCampaigns(ctx context.Context, run *Run) (map[string]any, error) {
	orchestration := run.Orchestration
	now := run.Now()
	orchestration.Activate(now)
	counts := entities.CountMappings(run.Mappings)
	orchestration.ApplyCounts(counts)
	updated, err := run.Store.UpdateOrchestration(ctx, orchestration)
	if err != nil {
		return nil, err
	}
	run.Orchestration = updated

	envelope, err := application.NewOrchestrationEnvelope(
		run.WorkflowID,
		EventOrchestrationDeployed,
		updated.OrchestrationID,
		run.WorkflowID,
		now,
		map[string]any{
			"orchestration_id": updated.OrchestrationID,
			"org_id":           updated.OrgID,
			"active_platforms": counts.Active,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := run.Store.AppendOutbox(ctx, envelope); err != nil {
		return nil, err
	}
	return map[string]any{
		"status":           string(updated.Status),
		"active_platforms": counts.Active,
	}, nil
}
