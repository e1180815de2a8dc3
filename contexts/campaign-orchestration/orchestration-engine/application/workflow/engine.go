package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

// Engine executes pipelines against one orchestration. Transactional
// pipelines run every step inside one unit of work; the workflow record is
// written outside of it so a failed run keeps its timeline.
type Engine struct {
	UnitOfWork  ports.UnitOfWork
	Store       ports.AggregateStore
	Workflows   ports.WorkflowRepository
	Connections ports.ConnectionRegistry
	Sync        syncing.Service
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (e Engine) ExecuteDeploymentWorkflow(ctx context.Context, orchestration entities.Orchestration) (entities.Workflow, error) {
	workflow, _, err := e.Execute(ctx, DeploymentPipeline(e.Sync, e.Connections), orchestration)
	return workflow, err
}

func (e Engine) ExecuteOptimizationWorkflow(ctx context.Context, orchestration entities.Orchestration) (entities.Workflow, *Run, error) {
	return e.Execute(ctx, OptimizationPipeline(e.Sync), orchestration)
}

func (e Engine) Execute(
	ctx context.Context,
	pipeline Pipeline,
	orchestration entities.Orchestration,
) (entities.Workflow, *Run, error) {
	logger := application.ResolveLogger(e.Logger)

	workflowID, err := e.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Workflow{}, nil, err
	}
	workflow := entities.NewWorkflow(workflowID, orchestration, pipeline.Type, pipeline.Plan(), e.now())
	if err := e.Workflows.CreateWorkflow(ctx, workflow); err != nil {
		return entities.Workflow{}, nil, err
	}
	workflow.Start(e.now())
	if err := e.Workflows.UpdateWorkflow(ctx, workflow); err != nil {
		return workflow, nil, err
	}

	run := &Run{
		WorkflowID: workflowID,
		clock:      e.Clock,
		logger:     logger,
	}
	body := func(ctx context.Context, store ports.AggregateStore) error {
		current, err := store.GetOrchestration(ctx, orchestration.OrgID, orchestration.OrchestrationID)
		if err != nil {
			return err
		}
		mappings, err := store.ListMappings(ctx, current.OrgID, current.OrchestrationID)
		if err != nil {
			return err
		}
		run.Orchestration = current
		run.Mappings = entities.OrderMappings(current, mappings)
		run.Store = store
		return e.runSteps(ctx, pipeline, &workflow, run)
	}

	if pipeline.Transactional {
		err = e.UnitOfWork.WithinTransaction(ctx, body)
	} else {
		err = body(ctx, e.Store)
	}
	if err != nil {
		workflow.Fail(err.Error(), e.now())
		if updateErr := e.Workflows.UpdateWorkflow(ctx, workflow); updateErr != nil {
			logger.Warn("workflow failure could not be recorded",
				"event", "orchestration_workflow_record_failed",
				"module", "campaign-orchestration/orchestration-engine",
				"layer", "application",
				"workflow_id", workflowID,
				"error", updateErr.Error(),
			)
		}
		e.compensate(ctx, run)
		logger.Error("workflow failed",
			"event", "orchestration_workflow_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"workflow_id", workflowID,
			"workflow_type", string(pipeline.Type),
			"orchestration_id", orchestration.OrchestrationID,
			"current_step", workflow.CurrentStep,
			"error", err.Error(),
		)
		return workflow, run, err
	}

	workflow.Complete(e.now())
	if err := e.Workflows.UpdateWorkflow(ctx, workflow); err != nil {
		return workflow, run, err
	}
	logger.Info("workflow completed",
		"event", "orchestration_workflow_completed",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"workflow_id", workflowID,
		"workflow_type", string(pipeline.Type),
		"orchestration_id", orchestration.OrchestrationID,
		"total_steps", workflow.TotalSteps,
	)
	return workflow, run, nil
}

func (e Engine) runSteps(ctx context.Context, pipeline Pipeline, workflow *entities.Workflow, run *Run) error {
	for _, step := range pipeline.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		workflow.LogStep(step.Name(), entities.StepStatusRunning, nil, e.now())
		if err := e.Workflows.UpdateWorkflow(ctx, *workflow); err != nil {
			return err
		}

		detail, err := step.Run(ctx, run)
		if err != nil {
			workflow.LogStep(step.Name(), entities.StepStatusFailed, map[string]any{"error": err.Error()}, e.now())
			if updateErr := e.Workflows.UpdateWorkflow(ctx, *workflow); updateErr != nil {
				run.Logger().Warn("workflow step failure could not be recorded",
					"event", "orchestration_workflow_step_record_failed",
					"module", "campaign-orchestration/orchestration-engine",
					"layer", "application",
					"workflow_id", workflow.WorkflowID,
					"step", step.Name(),
					"error", updateErr.Error(),
				)
			}
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}

		workflow.LogStep(step.Name(), entities.StepStatusCompleted, detail, e.now())
		workflow.AdvanceStep(e.now())
		if err := e.Workflows.UpdateWorkflow(ctx, *workflow); err != nil {
			return err
		}
	}
	return nil
}

// compensate undoes remote side effects in reverse order, best effort.
func (e Engine) compensate(ctx context.Context, run *Run) {
	if run == nil || len(run.compensations) == 0 {
		return
	}
	logger := application.ResolveLogger(e.Logger)
	undoCtx := context.WithoutCancel(ctx)
	for index := len(run.compensations) - 1; index >= 0; index-- {
		item := run.compensations[index]
		if err := item.undo(undoCtx); err != nil {
			logger.Warn("compensation failed",
				"event", "orchestration_compensation_failed",
				"module", "campaign-orchestration/orchestration-engine",
				"layer", "application",
				"workflow_id", run.WorkflowID,
				"compensation", item.description,
				"error", err.Error(),
			)
			continue
		}
		logger.Info("compensation applied",
			"event", "orchestration_compensation_applied",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"workflow_id", run.WorkflowID,
			"compensation", item.description,
		)
	}
}

func (e Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now().UTC()
	}
	return e.Clock.Now().UTC()
}
