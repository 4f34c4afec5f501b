package script

import (
	"fmt"
	"path/filepath"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// RunStep executes one delegated script through its interpreter.
type RunStep struct {
	script Script
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
}

// NewRunStep creates a new RunStep.
func NewRunStep(script Script, runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger, deps []provision.StepID) *RunStep {
	return &RunStep{
		script: script,
		id:     provision.MustNewStepID("script:run:" + filepath.Base(script.Path)),
		deps:   append(deps, script.After...),
		runner: runner,
		fs:     fs,
		logger: logger,
	}
}

// ID returns the step identifier.
func (s *RunStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *RunStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the script already ran. Without a creates marker a
// script has no observable done state, so it runs every time.
func (s *RunStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if s.script.Creates == "" {
		return provision.StatusNeedsApply, nil
	}
	if s.fs.Exists(s.script.Creates) {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *RunStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "script", s.script.Path,
		"", fmt.Sprintf("%s %s", s.script.Interpreter, s.script.Path)), nil
}

// Apply runs the script and records its exit status.
func (s *RunStep) Apply(ctx provision.RunContext) error {
	if !s.fs.Exists(s.script.Path) {
		return provision.NewStepError(provision.ErrCodeScript, s.id,
			fmt.Sprintf("script not found: %s", s.script.Path)).
			WithSuggestion("Check the script path in the manifest, or add a fetch artifact for it.")
	}

	args := append([]string{s.script.Path}, s.script.Args...)
	result, err := s.runner.Run(ctx.Context(), s.script.Interpreter, args...)
	if err != nil {
		return provision.NewStepError(provision.ErrCodeScript, s.id,
			fmt.Sprintf("failed to run %s", s.script.Path)).
			WithUnderlying(err)
	}

	// The script's exit status is its only contract, so it is always logged.
	s.logger.Info(ctx.Context(), "delegated script exited",
		ports.F("script", s.script.Path),
		ports.F("exit_code", result.ExitCode),
	)

	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeScript, s.id,
			fmt.Sprintf("script %s exited with status %d: %s",
				s.script.Path, result.ExitCode, result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion(fmt.Sprintf("Run %s %s manually to reproduce.", s.script.Interpreter, s.script.Path))
	}
	return nil
}
