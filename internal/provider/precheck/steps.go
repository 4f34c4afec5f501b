package precheck

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

const gib = 1024 * 1024 * 1024

// PrivilegeStepID is the identifier of the privilege precondition step.
// Mutating steps in other providers declare a dependency on it.
var PrivilegeStepID = provision.MustNewStepID("precheck:privilege")

// PrivilegeStep verifies the process runs with root privileges. It is the
// only precheck that fails the run: provisioning without root cannot work.
type PrivilegeStep struct {
	id   provision.StepID
	euid func() int
}

// NewPrivilegeStep creates a new PrivilegeStep.
func NewPrivilegeStep() *PrivilegeStep {
	return &PrivilegeStep{
		id:   PrivilegeStepID,
		euid: os.Geteuid,
	}
}

// ID returns the step identifier.
func (s *PrivilegeStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *PrivilegeStep) DependsOn() []provision.StepID {
	return nil
}

// Check determines whether the process already has the required privileges.
func (s *PrivilegeStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if s.euid() == 0 {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *PrivilegeStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeNone, "privilege", "root", "", ""), nil
}

// Apply fails: privileges cannot be acquired, only verified.
func (s *PrivilegeStep) Apply(_ provision.RunContext) error {
	if s.euid() == 0 {
		return nil
	}
	return provision.NewStepError(provision.ErrCodePrivilege, s.id, "root privileges required").
		WithSuggestion("Re-run with sudo.")
}

// MemoryStep warns when the host has less memory than recommended.
// It never fails the run.
type MemoryStep struct {
	id        provision.StepID
	minGiB    int
	logger    ports.Logger
	virtualFn func() (*mem.VirtualMemoryStat, error)
}

// NewMemoryStep creates a new MemoryStep.
func NewMemoryStep(minGiB int, logger ports.Logger) *MemoryStep {
	return &MemoryStep{
		id:        provision.MustNewStepID("precheck:memory"),
		minGiB:    minGiB,
		logger:    logger,
		virtualFn: mem.VirtualMemory,
	}
}

// ID returns the step identifier.
func (s *MemoryStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *MemoryStep) DependsOn() []provision.StepID {
	return nil
}

// Check reports whether the host meets the recommended memory minimum.
func (s *MemoryStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	vm, err := s.virtualFn()
	if err != nil {
		return provision.StatusUnknown, err
	}
	if vm.Total >= uint64(s.minGiB)*gib {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *MemoryStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeNone, "memory", fmt.Sprintf(">= %d GiB", s.minGiB), "", ""), nil
}

// Apply warns about the shortfall and succeeds. Memory cannot be provisioned.
func (s *MemoryStep) Apply(ctx provision.RunContext) error {
	vm, err := s.virtualFn()
	if err != nil {
		s.logger.Warn(ctx.Context(), "memory check skipped", ports.F("cause", err.Error()))
		return nil
	}
	s.logger.Warn(ctx.Context(), "host memory below recommended minimum",
		ports.F("total_gib", float64(vm.Total)/gib),
		ports.F("recommended_gib", s.minGiB))
	return nil
}

// DiskStep warns when the filesystem holding the install path has less free
// space than recommended. It never fails the run.
type DiskStep struct {
	id      provision.StepID
	path    string
	minGiB  int
	logger  ports.Logger
	usageFn func(path string) (*disk.UsageStat, error)
}

// NewDiskStep creates a new DiskStep.
func NewDiskStep(path string, minGiB int, logger ports.Logger) *DiskStep {
	return &DiskStep{
		id:      provision.MustNewStepID("precheck:disk"),
		path:    path,
		minGiB:  minGiB,
		logger:  logger,
		usageFn: disk.Usage,
	}
}

// ID returns the step identifier.
func (s *DiskStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *DiskStep) DependsOn() []provision.StepID {
	return nil
}

// Check reports whether free disk space meets the recommended minimum.
func (s *DiskStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	usage, err := s.usageFn(s.path)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if usage.Free >= uint64(s.minGiB)*gib {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DiskStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeNone, "disk", fmt.Sprintf("%s >= %d GiB free", s.path, s.minGiB), "", ""), nil
}

// Apply warns about the shortfall and succeeds.
func (s *DiskStep) Apply(ctx provision.RunContext) error {
	usage, err := s.usageFn(s.path)
	if err != nil {
		s.logger.Warn(ctx.Context(), "disk check skipped", ports.F("cause", err.Error()))
		return nil
	}
	s.logger.Warn(ctx.Context(), "free disk space below recommended minimum",
		ports.F("path", s.path),
		ports.F("free_gib", float64(usage.Free)/gib),
		ports.F("recommended_gib", s.minGiB))
	return nil
}

// DependencyManifestStep warns when an expected dependency manifest is
// missing from the host. Absence is advisory, not fatal.
type DependencyManifestStep struct {
	id     provision.StepID
	path   string
	fs     ports.FileSystem
	logger ports.Logger
}

// NewDependencyManifestStep creates a new DependencyManifestStep.
func NewDependencyManifestStep(path string, fs ports.FileSystem, logger ports.Logger) *DependencyManifestStep {
	return &DependencyManifestStep{
		id:     provision.MustNewStepID("precheck:dependencies"),
		path:   path,
		fs:     fs,
		logger: logger,
	}
}

// ID returns the step identifier.
func (s *DependencyManifestStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *DependencyManifestStep) DependsOn() []provision.StepID {
	return nil
}

// Check reports whether the dependency manifest is present.
func (s *DependencyManifestStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if s.fs.Exists(s.path) {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DependencyManifestStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeNone, "file", s.path, "", ""), nil
}

// Apply warns that the manifest is missing and succeeds.
func (s *DependencyManifestStep) Apply(ctx provision.RunContext) error {
	s.logger.Warn(ctx.Context(), "dependency manifest missing",
		ports.F("path", s.path))
	return nil
}
