package service

import (
	"fmt"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// StartStep starts a systemd unit.
type StartStep struct {
	unit   string
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewStartStep creates a new StartStep.
func NewStartStep(unit string, runner ports.CommandRunner, deps []provision.StepID) *StartStep {
	return &StartStep{
		unit:   unit,
		id:     provision.MustNewStepID("service:start:" + unit),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *StartStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *StartStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the unit is already active.
func (s *StartStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "systemctl", "is-active", s.unit)
	if err != nil {
		return provision.StatusUnknown, err
	}
	// is-active exits non-zero for inactive units; the output still says why.
	if strings.TrimSpace(result.Stdout) == "active" {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *StartStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeModify, "service", s.unit, "inactive", "active"), nil
}

// Apply starts the unit.
func (s *StartStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "systemctl", "start", s.unit)
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "systemctl start failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("systemctl start %s failed: %s", s.unit, result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion(fmt.Sprintf("Inspect the unit's log: journalctl -u %s.", s.unit))
	}
	return nil
}

// Compensation describes how to undo the start.
func (s *StartStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("systemctl stop %s", s.unit),
	}
}

// EnableStep enables a systemd unit at boot.
type EnableStep struct {
	unit   string
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewEnableStep creates a new EnableStep.
func NewEnableStep(unit string, runner ports.CommandRunner, deps []provision.StepID) *EnableStep {
	return &EnableStep{
		unit:   unit,
		id:     provision.MustNewStepID("service:enable:" + unit),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *EnableStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *EnableStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the unit is already enabled.
func (s *EnableStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "systemctl", "is-enabled", s.unit)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if strings.TrimSpace(result.Stdout) == "enabled" {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *EnableStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeModify, "service", s.unit, "disabled", "enabled"), nil
}

// Apply enables the unit.
func (s *EnableStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "systemctl", "enable", s.unit)
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "systemctl enable failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("systemctl enable %s failed: %s", s.unit, result.FailureOutput())).
			WithExitCode(result.ExitCode)
	}
	return nil
}

// Compensation describes how to undo the enable.
func (s *EnableStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("systemctl disable %s", s.unit),
	}
}

// Steps with compensating actions.
var (
	_ provision.CompensableStep = (*StartStep)(nil)
	_ provision.CompensableStep = (*EnableStep)(nil)
)
