package entities

import "time"

type WorkflowType string

const (
	WorkflowTypeCreation     WorkflowType = "creation"
	WorkflowTypeOptimization WorkflowType = "optimization"
)

type WorkflowStatus string

const (
	WorkflowStatusPending   WorkflowStatus = "pending"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

type StepStatus string

const (
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

type WorkflowStep struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

type ExecutionLogEntry struct {
	Step      string         `json:"step"`
	Status    StepStatus     `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
}

type Workflow struct {
	WorkflowID      string
	OrgID           string
	OrchestrationID string
	WorkflowType    WorkflowType
	Steps           []WorkflowStep
	TotalSteps      int
	CurrentStep     int
	Status          WorkflowStatus
	ExecutionLog    []ExecutionLogEntry
	ErrorMessage    string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewWorkflow(id string, orchestration Orchestration, workflowType WorkflowType, steps []WorkflowStep, now time.Time) Workflow {
	return Workflow{
		WorkflowID:      id,
		OrgID:           orchestration.OrgID,
		OrchestrationID: orchestration.OrchestrationID,
		WorkflowType:    workflowType,
		Steps:           append([]WorkflowStep(nil), steps...),
		TotalSteps:      len(steps),
		CurrentStep:     0,
		Status:          WorkflowStatusPending,
		ExecutionLog:    []ExecutionLogEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (w Workflow) Terminal() bool {
	return w.Status == WorkflowStatusCompleted || w.Status == WorkflowStatusFailed
}

// Start is the only transition out of pending.
func (w *Workflow) Start(now time.Time) bool {
	if w.Status != WorkflowStatusPending {
		return false
	}
	w.Status = WorkflowStatusRunning
	startedAt := now
	w.StartedAt = &startedAt
	w.UpdatedAt = now
	return true
}

func (w *Workflow) LogStep(step string, status StepStatus, detail map[string]any, now time.Time) {
	if w.Terminal() {
		return
	}
	w.ExecutionLog = append(w.ExecutionLog, ExecutionLogEntry{
		Step:      step,
		Status:    status,
		Timestamp: now,
		Detail:    detail,
	})
	w.UpdatedAt = now
}

func (w *Workflow) AdvanceStep(now time.Time) {
	if w.Terminal() || w.CurrentStep >= w.TotalSteps {
		return
	}
	w.CurrentStep++
	w.UpdatedAt = now
}

func (w *Workflow) Complete(now time.Time) bool {
	if w.Status != WorkflowStatusRunning {
		return false
	}
	w.Status = WorkflowStatusCompleted
	completedAt := now
	w.CompletedAt = &completedAt
	w.UpdatedAt = now
	return true
}

func (w *Workflow) Fail(message string, now time.Time) bool {
	if w.Status != WorkflowStatusRunning {
		return false
	}
	w.Status = WorkflowStatusFailed
	w.ErrorMessage = message
	completedAt := now
	w.CompletedAt = &completedAt
	w.UpdatedAt = now
	return true
}

func (w Workflow) Progress() float64 {
	return RoundRatio(SafeDivide(float64(w.CurrentStep), float64(w.TotalSteps)))
}

func (w Workflow) Clone() Workflow {
	out := w
	out.Steps = append([]WorkflowStep(nil), w.Steps...)
	out.ExecutionLog = append([]ExecutionLogEntry(nil), w.ExecutionLog...)
	return out
}
