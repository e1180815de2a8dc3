package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const EventOrchestrationCreated = "orchestration.created"

type CreateOverrides struct {
	Name        *string
	Description *string
	Platforms   []string
	TotalBudget *float64
	Config      entities.ConfigOverrides
}

type CreateFromTemplateCommand struct {
	OrgID      string
	UserID     string
	TemplateID string
	Overrides  CreateOverrides
}

type CreateFromTemplateResult struct {
	Orchestration entities.Orchestration
	Mappings      []entities.PlatformMapping
}

type CreateFromTemplateUseCase struct {
	UnitOfWork  ports.UnitOfWork
	Templates   ports.TemplateProvider
	Connections ports.ConnectionRegistry
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute persists the orchestration and one pending mapping per platform in
// a single transaction; a platform without an active connection aborts it.
func (uc CreateFromTemplateUseCase) Execute(ctx context.Context, cmd CreateFromTemplateCommand) (CreateFromTemplateResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	orgID := strings.TrimSpace(cmd.OrgID)
	userID := strings.TrimSpace(cmd.UserID)
	templateID := strings.TrimSpace(cmd.TemplateID)
	if orgID == "" || userID == "" {
		return CreateFromTemplateResult{}, domainerrors.ErrInvalidOrchestrationInput
	}

	template := entities.Template{IsActive: true}
	if templateID != "" {
		item, err := uc.Templates.GetTemplate(ctx, orgID, templateID)
		if err != nil {
			return CreateFromTemplateResult{}, err
		}
		template = item
	}

	platforms := template.Platforms
	if len(cmd.Overrides.Platforms) > 0 {
		platforms = make([]entities.Platform, 0, len(cmd.Overrides.Platforms))
		for _, item := range cmd.Overrides.Platforms {
			platforms = append(platforms, entities.NormalizePlatform(item))
		}
	}
	platforms = entities.UniquePlatforms(platforms)
	for _, platform := range platforms {
		if !entities.IsSupportedPlatform(platform) {
			return CreateFromTemplateResult{}, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedPlatform, platform)
		}
	}

	totalBudget := template.DefaultTotalBudget
	if cmd.Overrides.TotalBudget != nil {
		value := *cmd.Overrides.TotalBudget
		totalBudget = &value
	}
	name := template.Name
	if cmd.Overrides.Name != nil {
		name = *cmd.Overrides.Name
	}
	description := template.Description
	if cmd.Overrides.Description != nil {
		description = *cmd.Overrides.Description
	}

	orchestrationID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateFromTemplateResult{}, err
	}
	now := uc.Clock.Now().UTC()
	orchestration := entities.Orchestration{
		OrchestrationID:  orchestrationID,
		OrgID:            orgID,
		CreatedBy:        userID,
		Name:             strings.TrimSpace(name),
		Description:      strings.TrimSpace(description),
		Platforms:        platforms,
		Config:           template.BaseConfig.Apply(cmd.Overrides.Config),
		TotalBudget:      totalBudget,
		BudgetAllocation: entities.AllocateBudget(platforms, template.BudgetDistribution(), totalBudget),
		Status:           entities.OrchestrationStatusDraft,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if templateID != "" {
		orchestration.TemplateID = &templateID
	}
	if !orchestration.ValidateBasics() {
		return CreateFromTemplateResult{}, domainerrors.ErrInvalidOrchestrationInput
	}
	if orchestration.OverAllocated() {
		logger.Warn("budget allocation exceeds total budget",
			"event", "orchestration_budget_overallocated",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"orchestration_id", orchestrationID,
			"total_budget", *orchestration.TotalBudget,
			"allocated", orchestration.TotalAllocated(),
		)
	}

	mappings := make([]entities.PlatformMapping, 0, len(platforms))
	err = uc.UnitOfWork.WithinTransaction(ctx, func(ctx context.Context, store ports.AggregateStore) error {
		mappings = mappings[:0]
		if err := store.CreateOrchestration(ctx, orchestration); err != nil {
			return err
		}
		for _, platform := range platforms {
			connection, found, err := uc.Connections.FindActiveConnection(ctx, orgID, platform)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s", domainerrors.ErrNoActiveConnection, platform)
			}
			mappingID, err := uc.IDGenerator.NewID(ctx)
			if err != nil {
				return err
			}
			mapping := newMapping(mappingID, orchestration, platform, connection, template.PlatformConfig(platform), now)
			if err := store.CreateMapping(ctx, mapping); err != nil {
				return err
			}
			mappings = append(mappings, mapping)
		}
		if orchestration.TemplateID != nil {
			if err := store.IncrementTemplateUsage(ctx, *orchestration.TemplateID); err != nil {
				return err
			}
		}
		return appendEvent(ctx, store, uc.IDGenerator, EventOrchestrationCreated, orchestration, now, map[string]any{
			"orchestration_id": orchestration.OrchestrationID,
			"org_id":           orgID,
			"created_by":       userID,
			"platforms":        platforms,
		})
	})
	if err != nil {
		logger.Warn("orchestration creation aborted",
			"event", "orchestration_create_aborted",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"org_id", orgID,
			"template_id", templateID,
			"error", err.Error(),
		)
		return CreateFromTemplateResult{}, err
	}

	logger.Info("orchestration created",
		"event", "orchestration_created",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", orchestration.OrchestrationID,
		"org_id", orgID,
		"template_id", templateID,
		"platform_count", len(platforms),
	)
	return CreateFromTemplateResult{Orchestration: orchestration, Mappings: mappings}, nil
}

func newMapping(
	mappingID string,
	orchestration entities.Orchestration,
	platform entities.Platform,
	connection entities.Connection,
	config entities.PlatformConfig,
	now time.Time,
) entities.PlatformMapping {
	return entities.PlatformMapping{
		PlatformMappingID: mappingID,
		OrgID:             orchestration.OrgID,
		OrchestrationID:   orchestration.OrchestrationID,
		ConnectionID:      connection.ConnectionID,
		Platform:          platform,
		Status:            entities.MappingStatusPending,
		PlatformConfig:    config,
		AllocatedBudget:   orchestration.BudgetAllocation[platform],
		SyncStatus:        entities.MappingSyncStatusNever,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
