package workflow

import (
	"context"
	"log/slog"
	"time"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

// Step is one named unit of a pipeline. The returned detail is written to the
// workflow execution log.
type Step interface {
	Name() string
	Action() string
	Run(ctx context.Context, run *Run) (map[string]any, error)
}

type Pipeline struct {
	Type          entities.WorkflowType
	Steps         []Step
	Transactional bool
}

func (p Pipeline) Plan() []entities.WorkflowStep {
	plan := make([]entities.WorkflowStep, 0, len(p.Steps))
	for _, step := range p.Steps {
		plan = append(plan, entities.WorkflowStep{Name: step.Name(), Action: step.Action()})
	}
	return plan
}

type compensation struct {
	description string
	undo        func(ctx context.Context) error
}

// Run is the state shared by the steps of one workflow execution.
type Run struct {
	WorkflowID      string
	Orchestration   entities.Orchestration
	Mappings        []entities.PlatformMapping
	Store           ports.AggregateStore
	Analysis        *entities.PerformanceAnalysis
	Recommendations []entities.Recommendation
	Applied         []entities.AppliedOptimization

	clock         ports.Clock
	logger        *slog.Logger
	compensations []compensation
}

func (r *Run) Now() time.Time {
	if r.clock == nil {
		return time.Now().UTC()
	}
	return r.clock.Now().UTC()
}

func (r *Run) Logger() *slog.Logger {
	return r.logger
}

// Compensate registers an undo action for a remote side effect. Undo actions
// run in reverse order only when the workflow fails.
func (r *Run) Compensate(description string, undo func(ctx context.Context) error) {
	r.compensations = append(r.compensations, compensation{description: description, undo: undo})
}

func (r *Run) replaceMapping(updated entities.PlatformMapping) {
	for index := range r.Mappings {
		if r.Mappings[index].PlatformMappingID == updated.PlatformMappingID {
			r.Mappings[index] = updated
			return
		}
	}
}

// stepFunc adapts a function to Step.
type stepFunc struct {
	name   string
	action string
	run    func(ctx context.Context, run *Run) (map[string]any, error)
}

func (s stepFunc) Name() string {
	return s.name
}

func (s stepFunc) Action() string {
	return s.action
}

func (s stepFunc) Run(ctx context.Context, run *Run) (map[string]any, error) {
	return s.run(ctx, run)
}

func NewStep(name string, action string, run func(ctx context.Context, run *Run) (map[string]any, error)) Step {
	return stepFunc{name: name, action: action, run: run}
}
