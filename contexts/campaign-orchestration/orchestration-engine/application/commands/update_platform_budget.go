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

type UpdatePlatformBudgetCommand struct {
	OrgID           string
	OrchestrationID string
	Platform        string
	Budget          float64
}

type UpdatePlatformBudgetUseCase struct {
	UnitOfWork ports.UnitOfWork
	Sync       syncing.Service
	Clock      ports.Clock
	Logger     *slog.Logger
}

// Execute pushes the new budget to the platform before committing it, so a
// remote rejection leaves the stored allocation untouched.
func (uc UpdatePlatformBudgetUseCase) Execute(ctx context.Context, cmd UpdatePlatformBudgetCommand) (entities.PlatformMapping, error) {
	logger := application.ResolveLogger(uc.Logger)
	platform := entities.NormalizePlatform(cmd.Platform)
	if cmd.Budget < 0 || !entities.IsSupportedPlatform(platform) {
		return entities.PlatformMapping{}, domainerrors.ErrInvalidOrchestrationInput
	}
	budget := entities.RoundCurrency(cmd.Budget)
	orgID := strings.TrimSpace(cmd.OrgID)
	orchestrationID := strings.TrimSpace(cmd.OrchestrationID)

	var result entities.PlatformMapping
	var overAllocated bool
	err := uc.UnitOfWork.WithinTransaction(ctx, func(ctx context.Context, store ports.AggregateStore) error {
		orchestration, err := store.GetOrchestration(ctx, orgID, orchestrationID)
		if err != nil {
			return err
		}
		mappings, err := store.ListMappings(ctx, orgID, orchestrationID)
		if err != nil {
			return err
		}
		var mapping *entities.PlatformMapping
		for index := range mappings {
			if mappings[index].Platform == platform {
				mapping = &mappings[index]
				break
			}
		}
		if mapping == nil {
			return fmt.Errorf("%w: %s", domainerrors.ErrMissingPlatformMapping, platform)
		}

		if mapping.Deployed() {
			if err := uc.Sync.UpdatePlatformCampaign(ctx, *mapping, ports.CampaignUpdate{DailyBudget: &budget}); err != nil {
				return err
			}
		}
		now := uc.Clock.Now().UTC()
		mapping.AllocatedBudget = budget
		mapping.UpdatedAt = now
		updated, err := store.UpdateMapping(ctx, *mapping)
		if err != nil {
			return err
		}
		result = updated

		if orchestration.BudgetAllocation == nil {
			orchestration.BudgetAllocation = make(map[entities.Platform]float64)
		}
		orchestration.BudgetAllocation[platform] = budget
		orchestration.UpdatedAt = now
		overAllocated = orchestration.OverAllocated()
		_, err = store.UpdateOrchestration(ctx, orchestration)
		return err
	})
	if err != nil {
		return entities.PlatformMapping{}, err
	}

	if overAllocated {
		logger.Warn("budget allocation exceeds total budget",
			"event", "orchestration_budget_overallocated",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"orchestration_id", orchestrationID,
			"platform", string(platform),
		)
	}
	logger.Info("platform budget updated",
		"event", "orchestration_platform_budget_updated",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestrationID,
		"platform", string(platform),
		"budget", budget,
	)
	return result, nil
}
