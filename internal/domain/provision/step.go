// Package provision defines the step model for the provisioning pipeline.
// Providers compile manifest sections into ordered Steps; each step can check
// the host's current state, plan its change, and apply it.
package provision

// Step represents one discrete provisioning action in the ordered plan.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// DependsOn returns the IDs of steps that must complete before this one.
	DependsOn() []StepID

	// Check determines the current status of this step.
	// Returns StatusSatisfied if no action is needed, StatusNeedsApply if the
	// host must be mutated to reach the desired state.
	Check(ctx RunContext) (StepStatus, error)

	// Plan returns the diff describing what change this step will make.
	Plan(ctx RunContext) (Diff, error)

	// Apply executes the step's change. Apply must be idempotent: running it
	// again on a converged host produces the same end state.
	Apply(ctx RunContext) error
}

// CompensableStep extends Step with a compensating-action record.
// The executor journals the record after a successful apply so a future
// rollback pass has enough information to undo the change. No rollback is
// executed today; a failed run leaves prior effects in place.
type CompensableStep interface {
	Step

	// Compensation describes how the applied change could be undone.
	Compensation() Compensation
}

// AsCompensable attempts to cast a step to CompensableStep.
// Returns nil if the step declares no compensating action.
func AsCompensable(step Step) CompensableStep {
	if c, ok := step.(CompensableStep); ok {
		return c
	}
	return nil
}

// Compensation records how to undo an applied step.
type Compensation struct {
	StepID StepID
	// Action is an operator-readable undo instruction, e.g.
	// "apt-get remove -y docker.io" or "restore /etc/tb-gateway.conf.bak".
	Action string
}
