package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// Executor runs the steps of a Plan strictly in declaration order on a single
// goroutine. Each step blocks the executor until its underlying action
// returns. The first failure halts the run immediately: no later step is
// attempted, no journal record is emitted for it, and nothing applied earlier
// is rolled back. Compensation records for applied steps are journaled so a
// future rollback pass has the information the run itself does not use.
type Executor struct {
	logger ports.Logger
	dryRun bool
}

// NewExecutor creates a new Executor journaling through the given logger.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// WithDryRun returns an Executor that simulates execution without applying.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	return &Executor{
		logger: e.logger,
		dryRun: dryRun,
	}
}

// ExecuteResult contains the outcome of a whole run plus per-step results.
type ExecuteResult struct {
	Run     RunResult
	Results []StepResult
}

// Execute runs all steps in the plan in order and finalizes the run.
// The returned error is non-nil only for harness failures (e.g. the state
// machine could not be built); a failing step is reported through the
// RunResult, not the error.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (ExecuteResult, error) {
	run, err := NewRun()
	if err != nil {
		return ExecuteResult{}, err
	}

	results := make([]StepResult, 0, plan.Len())
	runCtx := provision.NewRunContext(ctx).WithDryRun(e.dryRun)

	run.Begin()
	e.logger.Info(ctx, "run started",
		ports.F("run_id", run.ID().String()),
		ports.F("steps", plan.Len()),
		ports.F("dry_run", e.dryRun))

	for i, entry := range plan.Entries() {
		select {
		case <-ctx.Done():
			e.logger.Error(ctx, "run canceled", ports.F("step", entry.Step().ID().String()))
			run.Fail(entry.Step().ID().String(), 1)
			return e.finish(ctx, run, e.skipRemaining(plan, i, results)), nil
		default:
		}

		result := e.executeEntry(runCtx, entry)
		results = append(results, result)
		run.Advance(i)

		if result.Status() == provision.StatusFailed {
			run.Fail(entry.Step().ID().String(), provision.ExitCodeOf(result.Error()))
			return e.finish(ctx, run, e.skipRemaining(plan, i+1, results)), nil
		}
	}

	run.Complete()
	return e.finish(ctx, run, results), nil
}

// executeEntry executes a single plan entry, journaling one record before and
// one after the attempt.
func (e *Executor) executeEntry(runCtx provision.RunContext, entry PlanEntry) StepResult {
	step := entry.Step()
	id := step.ID()
	ctx := runCtx.Context()

	e.logger.Info(ctx, "step starting", ports.F("step", id.String()))

	// Already converged: report success without touching the host.
	status := entry.Status()
	if status == provision.StatusUnknown {
		// Planning could not determine state; re-check now that earlier steps
		// have run.
		checked, err := step.Check(runCtx)
		if err != nil {
			checked = provision.StatusNeedsApply
		}
		status = checked
	}
	if status == provision.StatusSatisfied {
		e.logger.Info(ctx, "step already satisfied", ports.F("step", id.String()))
		return NewStepResult(id, provision.StatusSatisfied, nil)
	}

	if runCtx.DryRun() {
		e.logger.Info(ctx, "step would apply", ports.F("step", id.String()), ports.F("diff", entry.Diff().Summary()))
		return NewStepResult(id, provision.StatusNeedsApply, nil).WithDiff(entry.Diff())
	}

	start := time.Now()
	err := step.Apply(runCtx)
	duration := time.Since(start)

	if err != nil {
		e.logger.Error(ctx, "step failed",
			ports.F("step", id.String()),
			ports.F("exit_code", provision.ExitCodeOf(err)),
			ports.F("cause", err.Error()))
		return NewStepResult(id, provision.StatusFailed, err).WithDuration(duration)
	}

	e.logger.Info(ctx, "step succeeded",
		ports.F("step", id.String()),
		ports.F("duration", duration.Round(time.Millisecond).String()))

	if comp := provision.AsCompensable(step); comp != nil {
		rec := comp.Compensation()
		e.logger.Debug(ctx, "compensation recorded",
			ports.F("step", rec.StepID.String()),
			ports.F("undo", rec.Action))
	}

	return NewStepResult(id, provision.StatusSatisfied, nil).
		WithDuration(duration).
		WithDiff(entry.Diff())
}

// skipRemaining marks every un-attempted step as skipped. Skipped steps
// deliberately produce no journal records.
func (e *Executor) skipRemaining(plan *Plan, from int, results []StepResult) []StepResult {
	for _, entry := range plan.Entries()[from:] {
		results = append(results, NewStepResult(entry.Step().ID(), provision.StatusSkipped, nil))
	}
	return results
}

// finish journals the terminal result and assembles the ExecuteResult.
func (e *Executor) finish(ctx context.Context, run *Run, results []StepResult) ExecuteResult {
	runResult := run.Result()

	if runResult.Completed() {
		e.logger.Info(ctx, "run completed", ports.F("run_id", run.ID().String()))
	} else {
		e.logger.Error(ctx, fmt.Sprintf("run failed: %s", runResult.String()),
			ports.F("run_id", run.ID().String()))
	}

	return ExecuteResult{Run: runResult, Results: results}
}
