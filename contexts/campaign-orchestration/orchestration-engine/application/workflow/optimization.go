package workflow

import (
	"context"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

const (
	StepFetchPerformance        = "fetch_performance"
	StepAnalyzePerformance      = "analyze_performance"
	StepGenerateRecommendations = "generate_recommendations"
	StepApplyOptimizations      = "apply_optimizations"
)

// OptimizationPipeline is not transactional: each step persists on its own and
// per-platform fetch failures are recorded instead of aborting.
func OptimizationPipeline(sync syncing.Service) Pipeline {
	return Pipeline{
		Type: entities.WorkflowTypeOptimization,
		Steps: []Step{
			NewStep(StepFetchPerformance, "fetch", func(ctx context.Context, run *Run) (map[string]any, error) {
				return fetchPerformance(ctx, run, sync)
			}),
			NewStep(StepAnalyzePerformance, "analyze", analyzePerformance),
			NewStep(StepGenerateRecommendations, "recommend", generateRecommendations),
			NewStep(StepApplyOptimizations, "apply", func(ctx context.Context, run *Run) (map[string]any, error) {
				return applyOptimizations(ctx, run, sync)
			}),
		},
	}
}

func fetchPerformance(ctx context.Context, run *Run, sync syncing.Service) (map[string]any, error) {
	synced := 0
	failures := map[string]any{}
	for _, mapping := range append([]entities.PlatformMapping(nil), run.Mappings...) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !mapping.Deployed() {
			continue
		}
		updated, _, err := sync.SyncPlatformMapping(ctx, run.Store, mapping, entities.SyncTypePerformance)
		if err != nil {
			failures[string(mapping.Platform)] = err.Error()
			continue
		}
		run.replaceMapping(updated)
		synced++
	}
	detail := map[string]any{"synced": synced}
	if len(failures) > 0 {
		detail["failed"] = failures
	}
	return detail, nil
}

func analyzePerformance(_ context.Context, run *Run) (map[string]any, error) {
	analysis := entities.AnalyzePerformance(run.Orchestration, run.Mappings)
	run.Analysis = &analysis
	return map[string]any{
		"overall_score": analysis.OverallScore,
		"platforms":     len(analysis.PlatformScores),
		"roas":          analysis.ROAS,
	}, nil
}

func generateRecommendations(_ context.Context, run *Run) (map[string]any, error) {
	if run.Analysis == nil {
		analysis := entities.AnalyzePerformance(run.Orchestration, run.Mappings)
		run.Analysis = &analysis
	}
	run.Recommendations = entities.GenerateRecommendations(*run.Analysis)
	actions := make([]string, 0, len(run.Recommendations))
	for _, item := range run.Recommendations {
		actions = append(actions, item.Platform+":"+item.Action)
	}
	return map[string]any{
		"count":   len(run.Recommendations),
		"actions": actions,
	}, nil
}

// applyOptimizations changes budgets only when auto_optimize is enabled. A
// platform whose budget push fails keeps its previous allocation.
func applyOptimizations(ctx context.Context, run *Run, sync syncing.Service) (map[string]any, error) {
	orchestration := run.Orchestration
	if !orchestration.Config.AutoOptimize {
		return map[string]any{"applied": 0, "skipped": "auto_optimize disabled"}, nil
	}

	current := make(map[entities.Platform]float64, len(run.Mappings))
	byPlatform := make(map[entities.Platform]entities.PlatformMapping, len(run.Mappings))
	for _, mapping := range run.Mappings {
		current[mapping.Platform] = mapping.AllocatedBudget
		byPlatform[mapping.Platform] = mapping
	}
	_, planned := entities.PlanOptimizations(current, run.Recommendations)

	applied := make([]entities.AppliedOptimization, 0, len(planned))
	for _, item := range planned {
		mapping, ok := byPlatform[item.Platform]
		if !ok {
			continue
		}
		budget := item.NewBudget
		if mapping.Deployed() {
			if err := sync.UpdatePlatformCampaign(ctx, mapping, ports.CampaignUpdate{DailyBudget: &budget}); err != nil {
				run.Logger().Warn("optimization skipped",
					"event", "orchestration_optimization_skipped",
					"module", "campaign-orchestration/orchestration-engine",
					"layer", "application",
					"orchestration_id", orchestration.OrchestrationID,
					"platform", string(item.Platform),
					"action", item.Action,
					"error", err.Error(),
				)
				continue
			}
		}
		mapping.AllocatedBudget = budget
		mapping.UpdatedAt = run.Now()
		updated, err := run.Store.UpdateMapping(ctx, mapping)
		if err != nil {
			return nil, err
		}
		byPlatform[item.Platform] = updated
		run.replaceMapping(updated)
		if orchestration.BudgetAllocation == nil {
			orchestration.BudgetAllocation = make(map[entities.Platform]float64)
		}
		orchestration.BudgetAllocation[item.Platform] = budget
		applied = append(applied, item)
	}

	if len(applied) > 0 {
		orchestration.UpdatedAt = run.Now()
		updated, err := run.Store.UpdateOrchestration(ctx, orchestration)
		if err != nil {
			return nil, err
		}
		run.Orchestration = updated
	}
	run.Applied = applied
	return map[string]any{"applied": len(applied)}, nil
}
