package entities

import (
	"testing"
	"time"
)

func TestAllocateBudgetProportional(t *testing.T) {
	total := 1000.0
	allocation := AllocateBudget(
		[]Platform{PlatformMeta, PlatformGoogle},
		map[Platform]float64{PlatformMeta: 40, PlatformGoogle: 60},
		&total,
	)
	if allocation[PlatformMeta] != 400 || allocation[PlatformGoogle] != 600 {
		t.Fatalf("unexpected allocation: %+v", allocation)
	}
	if SumAllocation(allocation) != 1000 {
		t.Fatalf("expected allocation to sum to total, got %v", SumAllocation(allocation))
	}
}

func TestAllocateBudgetEqualShareForMissingPlatforms(t *testing.T) {
	total := 100.0
	allocation := AllocateBudget(
		[]Platform{PlatformMeta, PlatformGoogle, PlatformTikTok},
		nil,
		&total,
	)
	for _, platform := range []Platform{PlatformMeta, PlatformGoogle, PlatformTikTok} {
		if allocation[platform] != 33.33 {
			t.Fatalf("expected equal share for %s, got %v", platform, allocation[platform])
		}
	}

	orchestration := Orchestration{TotalBudget: &total, BudgetAllocation: allocation}
	if orchestration.HasUnallocatedBudget() {
		t.Fatalf("rounding remainder must stay within epsilon")
	}
	if orchestration.OverAllocated() {
		t.Fatalf("equal split must not over-allocate")
	}
}

func TestAllocateBudgetDoesNotNormalize(t *testing.T) {
	total := 1000.0
	allocation := AllocateBudget(
		[]Platform{PlatformMeta, PlatformGoogle},
		map[Platform]float64{PlatformMeta: 70, PlatformGoogle: 70},
		&total,
	)
	orchestration := Orchestration{TotalBudget: &total, BudgetAllocation: allocation}
	if !orchestration.OverAllocated() {
		t.Fatalf("expected over-allocation to be detectable, got %+v", allocation)
	}
}

func TestAllocateBudgetWithoutTotal(t *testing.T) {
	allocation := AllocateBudget([]Platform{PlatformMeta}, map[Platform]float64{PlatformMeta: 100}, nil)
	if len(allocation) != 0 {
		t.Fatalf("expected no allocation without a total budget, got %+v", allocation)
	}
}

func TestSafeDivideZeroDenominator(t *testing.T) {
	if got := SafeDivide(10, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	performance := PerformanceOf(PlatformMapping{Platform: PlatformMeta})
	if performance.CTR != 0 || performance.CPC != 0 || performance.CPA != 0 || performance.ROAS != 0 || performance.ConversionRate != 0 {
		t.Fatalf("expected zero ratios for empty metrics, got %+v", performance)
	}
}

func TestApplyDeltaIsAdditiveAndIgnoresNegatives(t *testing.T) {
	mapping := PlatformMapping{Metrics: Metrics{Spend: 10, Impressions: 100, Clicks: 5}}
	mapping.ApplyDelta(PerformanceDelta{Spend: 2.5, Impressions: 50, Clicks: -3, Revenue: 7.125})
	if mapping.Metrics.Spend != 12.5 || mapping.Metrics.Impressions != 150 || mapping.Metrics.Clicks != 5 {
		t.Fatalf("unexpected metrics after delta: %+v", mapping.Metrics)
	}
	if mapping.Metrics.Revenue != 7.13 {
		t.Fatalf("expected revenue rounded to cents, got %v", mapping.Metrics.Revenue)
	}
}

func TestAggregateKeepsDeclarationOrder(t *testing.T) {
	total := 500.0
	orchestration := Orchestration{
		OrchestrationID: "orch-1",
		Platforms:       []Platform{PlatformGoogle, PlatformMeta},
		TotalBudget:     &total,
	}
	mappings := []PlatformMapping{
		{Platform: PlatformMeta, AllocatedBudget: 200, Metrics: Metrics{Spend: 50, Revenue: 150, Impressions: 1000, Clicks: 20}},
		{Platform: PlatformGoogle, AllocatedBudget: 300, Metrics: Metrics{Spend: 50, Revenue: 50, Impressions: 1000, Clicks: 30}},
	}
	aggregate := Aggregate(orchestration, mappings)
	if aggregate.Platforms[0].Platform != PlatformGoogle || aggregate.Platforms[1].Platform != PlatformMeta {
		t.Fatalf("expected declaration order, got %+v", aggregate.Platforms)
	}
	if aggregate.TotalSpend != 100 || aggregate.TotalRevenue != 200 || aggregate.ROAS != 2 {
		t.Fatalf("unexpected totals: %+v", aggregate)
	}
	if aggregate.BudgetUtilization != 0.2 {
		t.Fatalf("expected utilization 0.2, got %v", aggregate.BudgetUtilization)
	}
	if aggregate.Platforms[1].CTR != 0.02 {
		t.Fatalf("expected meta ctr 0.02, got %v", aggregate.Platforms[1].CTR)
	}
}

func TestWorkflowTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	workflow := NewWorkflow("wf-1", Orchestration{OrchestrationID: "orch-1"}, WorkflowTypeCreation, []WorkflowStep{
		{Name: "create_meta", Action: "create_campaign"},
	}, now)
	if workflow.Complete(now) {
		t.Fatalf("pending workflow must not complete")
	}
	if !workflow.Start(now) {
		t.Fatalf("expected pending workflow to start")
	}
	if workflow.Start(now) {
		t.Fatalf("running workflow must not restart")
	}
	workflow.AdvanceStep(now)
	workflow.AdvanceStep(now)
	if workflow.CurrentStep != 1 {
		t.Fatalf("current step must not exceed total steps, got %d", workflow.CurrentStep)
	}
	if !workflow.Fail("boom", now) {
		t.Fatalf("expected running workflow to fail")
	}
	workflow.LogStep("late", StepStatusCompleted, nil, now)
	if len(workflow.ExecutionLog) != 0 {
		t.Fatalf("terminal workflow must not accept log entries")
	}
	if workflow.Complete(now) {
		t.Fatalf("failed workflow must not complete")
	}
}
