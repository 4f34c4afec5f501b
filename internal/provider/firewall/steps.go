package firewall

import (
	"fmt"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// AllowStep opens one port through ufw.
type AllowStep struct {
	port   Port
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewAllowStep creates a new AllowStep.
func NewAllowStep(port Port, runner ports.CommandRunner, deps []provision.StepID) *AllowStep {
	return &AllowStep{
		port:   port,
		id:     provision.MustNewStepID("firewall:allow:" + strings.ReplaceAll(port.Rule(), "/", "-")),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *AllowStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *AllowStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if an allow rule for the port already exists.
func (s *AllowStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "ufw", "status")
	if err != nil {
		return provision.StatusUnknown, err
	}
	if !result.Success() {
		return provision.StatusUnknown, nil
	}

	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == s.port.Rule() && fields[1] == "ALLOW" {
			return provision.StatusSatisfied, nil
		}
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *AllowStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "firewall-rule", s.port.Rule(), "", "allow"), nil
}

// Apply adds the allow rule.
func (s *AllowStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "ufw", "allow", s.port.Rule())
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "ufw allow failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("ufw allow %s failed: %s", s.port.Rule(), result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion("Check that ufw is installed: apt-get install -y ufw.")
	}
	return nil
}

// Compensation describes how to undo the rule.
func (s *AllowStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("ufw delete allow %s", s.port.Rule()),
	}
}

// EnableStep turns the firewall on.
type EnableStep struct {
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewEnableStep creates a new EnableStep.
func NewEnableStep(runner ports.CommandRunner, deps []provision.StepID) *EnableStep {
	return &EnableStep{
		id:     provision.MustNewStepID("firewall:enable"),
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

// Check determines if the firewall is already active.
func (s *EnableStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "ufw", "status")
	if err != nil {
		return provision.StatusUnknown, err
	}
	if !result.Success() {
		return provision.StatusUnknown, nil
	}
	if strings.HasPrefix(strings.TrimSpace(result.Stdout), "Status: active") {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *EnableStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeModify, "firewall", "ufw", "inactive", "active"), nil
}

// Apply enables the firewall non-interactively.
func (s *EnableStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "ufw", "--force", "enable")
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "ufw enable failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("ufw enable failed: %s", result.FailureOutput())).
			WithExitCode(result.ExitCode)
	}
	return nil
}

// Compensation describes how to undo enabling the firewall.
func (s *EnableStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: "ufw disable",
	}
}

// Steps with compensating actions.
var (
	_ provision.CompensableStep = (*AllowStep)(nil)
	_ provision.CompensableStep = (*EnableStep)(nil)
)
