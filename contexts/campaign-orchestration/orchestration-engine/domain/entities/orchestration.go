package entities

import (
	"strings"
	"time"
)

type OrchestrationStatus string

const (
	OrchestrationStatusDraft     OrchestrationStatus = "draft"
	OrchestrationStatusDeploying OrchestrationStatus = "deploying"
	OrchestrationStatusActive    OrchestrationStatus = "active"
	OrchestrationStatusPaused    OrchestrationStatus = "paused"
	OrchestrationStatusCompleted OrchestrationStatus = "completed"
	OrchestrationStatusFailed    OrchestrationStatus = "failed"
)

// OrchestrationConfig holds the known orchestration keys; Extra is passthrough.
type OrchestrationConfig struct {
	Objective    string         `json:"objective,omitempty"`
	AutoOptimize bool           `json:"auto_optimize,omitempty"`
	Currency     string         `json:"currency,omitempty"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// ConfigOverrides are caller deltas applied on top of a template's base config.
type ConfigOverrides struct {
	Objective    *string
	AutoOptimize *bool
	Currency     *string
	StartDate    *time.Time
	EndDate      *time.Time
	Extra        map[string]any
}

func (c OrchestrationConfig) Apply(overrides ConfigOverrides) OrchestrationConfig {
	out := c
	out.Extra = copyExtra(c.Extra)
	if overrides.Objective != nil {
		out.Objective = strings.TrimSpace(*overrides.Objective)
	}
	if overrides.AutoOptimize != nil {
		out.AutoOptimize = *overrides.AutoOptimize
	}
	if overrides.Currency != nil {
		out.Currency = strings.ToUpper(strings.TrimSpace(*overrides.Currency))
	}
	if overrides.StartDate != nil {
		start := overrides.StartDate.UTC()
		out.StartDate = &start
	}
	if overrides.EndDate != nil {
		end := overrides.EndDate.UTC()
		out.EndDate = &end
	}
	for key, value := range overrides.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(overrides.Extra))
		}
		out.Extra[key] = value
	}
	return out
}

type MappingCounts struct {
	Active int
	Paused int
	Failed int
}

type Orchestration struct {
	OrchestrationID  string
	OrgID            string
	TemplateID       *string
	CreatedBy        string
	Name             string
	Description      string
	Platforms        []Platform
	Config           OrchestrationConfig
	TotalBudget      *float64
	BudgetAllocation map[Platform]float64
	Status           OrchestrationStatus
	ActivePlatforms  int
	PausedPlatforms  int
	FailedPlatforms  int
	LastSyncedAt     *time.Time
	DeployedAt       *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (o Orchestration) ValidateBasics() bool {
	name := strings.TrimSpace(o.Name)
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.TrimSpace(o.OrgID) == "" || strings.TrimSpace(o.CreatedBy) == "" {
		return false
	}
	if len(o.Platforms) == 0 {
		return false
	}
	for _, platform := range o.Platforms {
		if !IsSupportedPlatform(platform) {
			return false
		}
	}
	if o.TotalBudget != nil && *o.TotalBudget < 0 {
		return false
	}
	return true
}

func (o Orchestration) TotalAllocated() float64 {
	return SumAllocation(o.BudgetAllocation)
}

// HasUnallocatedBudget is true when the total budget exceeds the per-platform sum.
func (o Orchestration) HasUnallocatedBudget() bool {
	if o.TotalBudget == nil {
		return false
	}
	return RoundCurrency(*o.TotalBudget-o.TotalAllocated()) > AllocationEpsilon
}

// OverAllocated is true when the per-platform sum exceeds the total budget.
func (o Orchestration) OverAllocated() bool {
	if o.TotalBudget == nil {
		return false
	}
	return RoundCurrency(o.TotalAllocated()-*o.TotalBudget) > AllocationEpsilon
}

func (o Orchestration) CanDeploy() bool {
	return o.Status == OrchestrationStatusDraft || o.Status == OrchestrationStatusFailed
}

func (o *Orchestration) MarkDeploying(now time.Time) {
	o.Status = OrchestrationStatusDeploying
	o.UpdatedAt = now
}

func (o *Orchestration) Activate(now time.Time) {
	o.Status = OrchestrationStatusActive
	if o.DeployedAt == nil {
		deployedAt := now
		o.DeployedAt = &deployedAt
	}
	o.UpdatedAt = now
}

func (o *Orchestration) Pause(now time.Time) {
	o.Status = OrchestrationStatusPaused
	o.UpdatedAt = now
}

func (o *Orchestration) MarkSynced(now time.Time) {
	syncedAt := now
	o.LastSyncedAt = &syncedAt
	o.UpdatedAt = now
}

// ApplyCounts replaces the summary counters; they are never mutated independently.
func (o *Orchestration) ApplyCounts(counts MappingCounts) {
	o.ActivePlatforms = counts.Active
	o.PausedPlatforms = counts.Paused
	o.FailedPlatforms = counts.Failed
}

func (o Orchestration) Clone() Orchestration {
	out := o
	out.Platforms = append([]Platform(nil), o.Platforms...)
	out.Config.Extra = copyExtra(o.Config.Extra)
	out.BudgetAllocation = make(map[Platform]float64, len(o.BudgetAllocation))
	for platform, amount := range o.BudgetAllocation {
		out.BudgetAllocation[platform] = amount
	}
	if o.TotalBudget != nil {
		total := *o.TotalBudget
		out.TotalBudget = &total
	}
	if o.TemplateID != nil {
		templateID := *o.TemplateID
		out.TemplateID = &templateID
	}
	return out
}

func CountMappings(mappings []PlatformMapping) MappingCounts {
	counts := MappingCounts{}
	for _, mapping := range mappings {
		switch mapping.Status {
		case MappingStatusActive:
			counts.Active++
		case MappingStatusPaused:
			counts.Paused++
		case MappingStatusFailed:
			counts.Failed++
		}
	}
	return counts
}

func copyExtra(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
