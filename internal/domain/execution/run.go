package execution

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"
)

// RunState represents the lifecycle state of a provisioning run.
type RunState string

const (
	// RunNotStarted indicates the run has been created but not begun.
	RunNotStarted RunState = "not-started"
	// RunRunning indicates steps are executing.
	RunRunning RunState = "running"
	// RunCompleted indicates every step succeeded.
	RunCompleted RunState = "completed"
	// RunFailed indicates a step failed and the run halted.
	RunFailed RunState = "failed"
)

// Event types for the run state machine.
const (
	EventStart    = "START"
	EventComplete = "COMPLETE"
	EventFail     = "FAIL"
	EventReset    = "RESET"
)

// failurePayload carries the failing step's identity through the machine.
type failurePayload struct {
	StepName string
	ExitCode int
}

// runInfo is the statekit context for a run.
type runInfo struct {
	StepIndex  int
	FailedStep string
	ExitCode   int
}

// Run tracks the lifecycle of one full execution of all steps, from start to
// terminal result. The terminal result is never mutated after finalization.
type Run struct {
	id     uuid.UUID
	info   *runInfo
	interp *statekit.Interpreter[runInfo]
}

// NewRun creates a run in the not-started state.
func NewRun() (*Run, error) {
	info := &runInfo{}

	machine, err := statekit.NewMachine[runInfo]("provisioning-run").
		WithInitial(statekit.StateID(RunNotStarted)).
		WithContext(*info).
		WithAction("recordFailure", func(_ *runInfo, event statekit.Event) {
			if payload, ok := event.Payload.(failurePayload); ok {
				info.FailedStep = payload.StepName
				info.ExitCode = payload.ExitCode
			}
		}).
		State(statekit.StateID(RunNotStarted)).
		On(EventStart).Target(statekit.StateID(RunRunning)).Done().
		State(statekit.StateID(RunRunning)).
		On(EventComplete).Target(statekit.StateID(RunCompleted)).
		On(EventFail).Target(statekit.StateID(RunFailed)).Done().
		State(statekit.StateID(RunCompleted)).
		On(EventReset).Target(statekit.StateID(RunNotStarted)).Done().
		State(statekit.StateID(RunFailed)).
		OnEntry("recordFailure").
		On(EventReset).Target(statekit.StateID(RunNotStarted)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build run state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()

	return &Run{
		id:     uuid.New(),
		info:   info,
		interp: interp,
	}, nil
}

// ID returns the run's unique identifier.
func (r *Run) ID() uuid.UUID {
	return r.id
}

// State returns the run's current lifecycle state.
func (r *Run) State() RunState {
	return RunState(r.interp.State().Value)
}

// Begin transitions the run into the running state.
func (r *Run) Begin() {
	r.interp.Send(statekit.Event{Type: EventStart})
}

// Advance records that the step at index finished successfully.
func (r *Run) Advance(index int) {
	r.info.StepIndex = index + 1
}

// StepIndex returns the index of the next step to execute.
func (r *Run) StepIndex() int {
	return r.info.StepIndex
}

// Complete finalizes the run as fully successful.
func (r *Run) Complete() {
	r.interp.Send(statekit.Event{Type: EventComplete})
}

// Fail finalizes the run with the failing step's name and exit code.
func (r *Run) Fail(stepName string, exitCode int) {
	r.interp.Send(statekit.Event{
		Type:    EventFail,
		Payload: failurePayload{StepName: stepName, ExitCode: exitCode},
	})
}

// Result returns the terminal result. Calling Result before the run reaches a
// terminal state returns a zero RunResult with Outcome empty.
func (r *Run) Result() RunResult {
	switch r.State() {
	case RunCompleted:
		return RunResult{Outcome: OutcomeCompleted}
	case RunFailed:
		return RunResult{
			Outcome:    OutcomeFailed,
			FailedStep: r.info.FailedStep,
			ExitCode:   r.info.ExitCode,
		}
	case RunNotStarted, RunRunning:
		return RunResult{}
	}
	return RunResult{}
}

// Outcome is the terminal state of a whole run.
type Outcome string

const (
	// OutcomeCompleted means all steps succeeded.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means a step failed and later steps were not attempted.
	OutcomeFailed Outcome = "failed"
)

// RunResult is the finalized outcome of a run.
type RunResult struct {
	Outcome    Outcome
	FailedStep string
	ExitCode   int
}

// Completed returns true if every step succeeded.
func (r RunResult) Completed() bool {
	return r.Outcome == OutcomeCompleted
}

// String renders the result the way it appears in the run log.
func (r RunResult) String() string {
	if r.Outcome == OutcomeFailed {
		return fmt.Sprintf("Failed(%s, %d)", r.FailedStep, r.ExitCode)
	}
	if r.Outcome == OutcomeCompleted {
		return "Completed"
	}
	return "NotFinished"
}
