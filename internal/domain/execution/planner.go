package execution

import (
	"context"
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
)

// Planner generates an execution Plan from a compiled Sequence.
// It checks each step's current status so already-satisfied steps are
// reported rather than blindly re-applied.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan generates a Plan by checking every step in declaration order.
func (p *Planner) Plan(ctx context.Context, seq *provision.Sequence) (*Plan, error) {
	plan := NewExecutionPlan()
	runCtx := provision.NewRunContext(ctx)

	for _, step := range seq.Steps() {
		entry, err := p.planStep(step, runCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to plan step %q: %w", step.ID().String(), err)
		}
		plan.Add(entry)
	}

	return plan, nil
}

// planStep checks a single step and generates a PlanEntry.
// A Check error does not abort planning: the step is recorded as unknown and
// resolved at apply time, so planning stays read-only even on a degraded host.
func (p *Planner) planStep(step provision.Step, ctx provision.RunContext) (PlanEntry, error) {
	status, err := step.Check(ctx)
	if err != nil {
		return NewPlanEntry(step, provision.StatusUnknown, provision.Diff{}), nil
	}

	var diff provision.Diff
	if status == provision.StatusNeedsApply {
		diff, err = step.Plan(ctx)
		if err != nil {
			return PlanEntry{}, fmt.Errorf("plan failed: %w", err)
		}
	}

	return NewPlanEntry(step, status, diff), nil
}
