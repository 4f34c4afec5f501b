package execution

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
)

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step   provision.Step
	status provision.StepStatus
	diff   provision.Diff
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step provision.Step, status provision.StepStatus, diff provision.Diff) PlanEntry {
	return PlanEntry{
		step:   step,
		status: status,
		diff:   diff,
	}
}

// Step returns the step to be executed.
func (e PlanEntry) Step() provision.Step {
	return e.step
}

// Status returns the current status of the step.
func (e PlanEntry) Status() provision.StepStatus {
	return e.status
}

// Diff returns the planned changes.
func (e PlanEntry) Diff() provision.Diff {
	return e.diff
}

// PlanSummary provides aggregate statistics about the execution plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Unknown    int
}

// Plan represents the ordered plan for executing all steps.
type Plan struct {
	entries []PlanEntry
}

// NewExecutionPlan creates an empty Plan.
func NewExecutionPlan() *Plan {
	return &Plan{
		entries: make([]PlanEntry, 0),
	}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns all plan entries in declaration order.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// HasChanges returns true if any steps need to be applied.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.status == provision.StatusNeedsApply {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case provision.StatusNeedsApply:
			summary.NeedsApply++
		case provision.StatusSatisfied:
			summary.Satisfied++
		case provision.StatusUnknown:
			summary.Unknown++
		case provision.StatusFailed, provision.StatusSkipped:
			// Terminal statuses never appear in a fresh plan.
		}
	}
	return summary
}
