package apt

import (
	"fmt"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/validation"
)

// UpdateStep refreshes the apt package index.
type UpdateStep struct {
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewUpdateStep creates a new UpdateStep.
func NewUpdateStep(runner ports.CommandRunner, deps []provision.StepID) *UpdateStep {
	return &UpdateStep{
		id:     provision.MustNewStepID("apt:update"),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *UpdateStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *UpdateStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check always reports the index as stale. There is no cheap freshness
// predicate, and a redundant update is harmless.
func (s *UpdateStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *UpdateStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeModify, "apt-index", "update", "", ""), nil
}

// Apply refreshes the package index.
func (s *UpdateStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "apt-get", "update")
	if err != nil {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id, "apt-get update failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id,
			fmt.Sprintf("apt-get update failed: %s", result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion("Check the host's apt sources and network connectivity.")
	}
	return nil
}

// UpgradeStep upgrades all installed packages.
type UpgradeStep struct {
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewUpgradeStep creates a new UpgradeStep.
func NewUpgradeStep(runner ports.CommandRunner, deps []provision.StepID) *UpgradeStep {
	return &UpgradeStep{
		id:     provision.MustNewStepID("apt:upgrade"),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *UpgradeStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *UpgradeStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check reports whether any packages are upgradable.
func (s *UpgradeStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "apt-get", "-s", "upgrade")
	if err != nil {
		return provision.StatusUnknown, err
	}
	if !result.Success() {
		return provision.StatusUnknown, nil
	}
	if strings.Contains(result.Stdout, "0 upgraded, 0 newly installed") {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *UpgradeStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeModify, "apt-index", "upgrade", "", ""), nil
}

// Apply upgrades installed packages.
func (s *UpgradeStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "apt-get", "upgrade", "-y")
	if err != nil {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id, "apt-get upgrade failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id,
			fmt.Sprintf("apt-get upgrade failed: %s", result.FailureOutput())).
			WithExitCode(result.ExitCode)
	}
	return nil
}

// PackageStep installs a single apt package.
type PackageStep struct {
	pkg    Package
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewPackageStep creates a new PackageStep.
func NewPackageStep(pkg Package, runner ports.CommandRunner, deps []provision.StepID) *PackageStep {
	return &PackageStep{
		pkg:    pkg,
		id:     provision.MustNewStepID("apt:package:" + pkg.Name),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *PackageStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *PackageStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the package is already installed.
func (s *PackageStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "dpkg-query", "-W", "-f=${db:Status-Status}", s.pkg.Name)
	if err != nil {
		return provision.StatusUnknown, err
	}

	// dpkg-query exits non-zero when the package is unknown.
	if !result.Success() {
		return provision.StatusNeedsApply, nil
	}
	if strings.TrimSpace(result.Stdout) == "installed" {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *PackageStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	version := "latest"
	if s.pkg.Version != "" {
		version = s.pkg.Version
	}
	return provision.NewDiff(provision.DiffTypeAdd, "package", s.pkg.Name, "", version), nil
}

// Apply installs the package.
func (s *PackageStep) Apply(ctx provision.RunContext) error {
	// Validate before execution to prevent command injection.
	if err := validation.ValidatePackageName(s.pkg.Name); err != nil {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id, "invalid package name").
			WithUnderlying(err)
	}

	pkgSpec := s.pkg.Name
	if s.pkg.Version != "" {
		if err := validation.ValidatePackageName(s.pkg.Version); err != nil {
			return provision.NewStepError(provision.ErrCodePackageManager, s.id, "invalid package version").
				WithUnderlying(err)
		}
		pkgSpec = s.pkg.FullName()
	}

	result, err := s.runner.Run(ctx.Context(), "apt-get", "install", "-y", pkgSpec)
	if err != nil {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id,
			fmt.Sprintf("apt-get install %s failed", pkgSpec)).
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodePackageManager, s.id,
			fmt.Sprintf("apt-get install %s failed: %s", pkgSpec, result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion("Run 'apt-get update' and retry, or check the package name.")
	}
	return nil
}

// Compensation describes how to undo the installation.
func (s *PackageStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("apt-get remove -y %s", s.pkg.Name),
	}
}

// Ensure PackageStep records a compensating action.
var _ provision.CompensableStep = (*PackageStep)(nil)
