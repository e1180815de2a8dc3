package syncing

import (
	"strings"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const defaultObjective = "AWARENESS"

// BuildCampaignSpec derives the platform-neutral create request for a mapping.
func BuildCampaignSpec(orchestration entities.Orchestration, mapping entities.PlatformMapping) ports.CampaignSpec {
	name := strings.TrimSpace(mapping.PlatformConfig.CampaignName)
	if name == "" {
		name = strings.TrimSpace(orchestration.Name)
	}
	objective := strings.TrimSpace(mapping.PlatformConfig.Objective)
	if objective == "" {
		objective = strings.TrimSpace(orchestration.Config.Objective)
	}
	if objective == "" {
		objective = defaultObjective
	}
	spec := ports.CampaignSpec{
		Name:           name,
		Objective:      strings.ToUpper(objective),
		Currency:       orchestration.Config.Currency,
		StartDate:      orchestration.Config.StartDate,
		EndDate:        orchestration.Config.EndDate,
		IdempotencyKey: mapping.IdempotencyKey(),
		Config:         mapping.PlatformConfig.Clone().Extra,
	}
	if mapping.AllocatedBudget > 0 {
		spec.DailyBudget = entities.RoundCurrency(mapping.AllocatedBudget)
	}
	return spec
}

// SettingsPayload is what a settings sync pushes to the platform.
func SettingsPayload(mapping entities.PlatformMapping) (ports.CampaignUpdate, map[string]any) {
	pushed := map[string]any{}
	update := ports.CampaignUpdate{Settings: mapping.PlatformConfig.Clone().Extra}
	if name := strings.TrimSpace(mapping.PlatformConfig.CampaignName); name != "" {
		update.Name = &name
		pushed["campaign_name"] = name
	}
	if mapping.AllocatedBudget > 0 {
		budget := entities.RoundCurrency(mapping.AllocatedBudget)
		update.DailyBudget = &budget
		pushed["daily_budget"] = budget
	}
	if objective := strings.TrimSpace(mapping.PlatformConfig.Objective); objective != "" {
		pushed["objective"] = objective
	}
	for key, value := range update.Settings {
		pushed[key] = value
	}
	return update, pushed
}
