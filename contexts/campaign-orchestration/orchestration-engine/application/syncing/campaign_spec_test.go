package syncing

import (
	"testing"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
)

func TestBuildCampaignSpecFallsBackToOrchestration(t *testing.T) {
	orchestration := entities.Orchestration{
		OrchestrationID: "orch-1",
		Name:            "Spring Launch",
		Config:          entities.OrchestrationConfig{Objective: "conversions", Currency: "USD"},
	}
	mapping := entities.PlatformMapping{
		PlatformMappingID: "map-1",
		OrchestrationID:   "orch-1",
		AllocatedBudget:   123.456,
	}

	spec := BuildCampaignSpec(orchestration, mapping)
	if spec.Name != "Spring Launch" {
		t.Fatalf("expected orchestration name, got %q", spec.Name)
	}
	if spec.Objective != "CONVERSIONS" {
		t.Fatalf("expected uppercased objective, got %q", spec.Objective)
	}
	if spec.DailyBudget != 123.46 {
		t.Fatalf("expected budget rounded to cents, got %v", spec.DailyBudget)
	}
	if spec.IdempotencyKey != "orchestration:orch-1:mapping:map-1" {
		t.Fatalf("unexpected idempotency key %q", spec.IdempotencyKey)
	}

	orchestration.Config.Objective = ""
	if got := BuildCampaignSpec(orchestration, mapping).Objective; got != defaultObjective {
		t.Fatalf("expected default objective, got %q", got)
	}
}

func TestSettingsPayloadReportsPushedFields(t *testing.T) {
	mapping := entities.PlatformMapping{
		AllocatedBudget: 250,
		PlatformConfig: entities.PlatformConfig{
			CampaignName: "Spring meta",
			Objective:    "TRAFFIC",
			Extra:        map[string]any{"bid_strategy": "lowest_cost"},
		},
	}

	update, pushed := SettingsPayload(mapping)
	if update.Name == nil || *update.Name != "Spring meta" {
		t.Fatalf("expected campaign name in update, got %+v", update)
	}
	if update.DailyBudget == nil || *update.DailyBudget != 250 {
		t.Fatalf("expected daily budget in update, got %+v", update)
	}
	if pushed["objective"] != "TRAFFIC" || pushed["bid_strategy"] != "lowest_cost" {
		t.Fatalf("unexpected pushed fields: %+v", pushed)
	}
}
