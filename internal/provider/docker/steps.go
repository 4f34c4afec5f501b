package docker

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/validation"
)

// GroupStep adds a user to the docker group so the engine socket is usable
// without root after provisioning.
type GroupStep struct {
	user   string
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewGroupStep creates a new GroupStep.
func NewGroupStep(user string, runner ports.CommandRunner, deps []provision.StepID) *GroupStep {
	return &GroupStep{
		user:   user,
		id:     provision.MustNewStepID("docker:group:" + user),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *GroupStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *GroupStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the user is already in the docker group.
func (s *GroupStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "id", "-nG", s.user)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if !result.Success() {
		return provision.StatusUnknown, nil
	}
	for _, group := range strings.Fields(result.Stdout) {
		if group == "docker" {
			return provision.StatusSatisfied, nil
		}
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *GroupStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeModify, "group", "docker", "", s.user), nil
}

// Apply adds the user to the docker group.
func (s *GroupStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "usermod", "-aG", "docker", s.user)
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "usermod failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("usermod -aG docker %s failed: %s", s.user, result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion("Check that the user exists and the docker group was created by the engine package.")
	}
	return nil
}

// Compensation describes how to undo the group membership.
func (s *GroupStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("gpasswd -d %s docker", s.user),
	}
}

// NetworkStep creates the stack's docker network.
type NetworkStep struct {
	network string
	id      provision.StepID
	deps    []provision.StepID
	runner  ports.CommandRunner
}

// NewNetworkStep creates a new NetworkStep.
func NewNetworkStep(network string, runner ports.CommandRunner, deps []provision.StepID) *NetworkStep {
	return &NetworkStep{
		network: network,
		id:      provision.MustNewStepID("docker:network:" + network),
		deps:    deps,
		runner:  runner,
	}
}

// ID returns the step identifier.
func (s *NetworkStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *NetworkStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the network already exists.
func (s *NetworkStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "docker", "network", "inspect", s.network)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if result.Success() {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *NetworkStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "network", s.network, "", "bridge"), nil
}

// Apply creates the network.
func (s *NetworkStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "docker", "network", "create", s.network)
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "docker network create failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("docker network create %s failed: %s", s.network, result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion("Check that the docker engine is running: systemctl status docker.")
	}
	return nil
}

// Compensation describes how to undo the network creation.
func (s *NetworkStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("docker network rm %s", s.network),
	}
}

// ComposeFileStep writes the rendered compose file. A pre-existing file with
// foreign content is backed up next to it before being overwritten.
type ComposeFileStep struct {
	path     string
	rendered []byte
	id       provision.StepID
	deps     []provision.StepID
	fs       ports.FileSystem
}

// NewComposeFileStep creates a new ComposeFileStep.
func NewComposeFileStep(path string, rendered []byte, fs ports.FileSystem, deps []provision.StepID) *ComposeFileStep {
	return &ComposeFileStep{
		path:     path,
		rendered: rendered,
		id:       provision.MustNewStepID("docker:compose-file"),
		deps:     deps,
		fs:       fs,
	}
}

// ID returns the step identifier.
func (s *ComposeFileStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *ComposeFileStep) DependsOn() []provision.StepID {
	return s.deps
}

// BackupPath returns where a foreign compose file is preserved.
func (s *ComposeFileStep) BackupPath() string {
	return s.path + ".bak"
}

// Check determines if the compose file already has the rendered content.
func (s *ComposeFileStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if !s.fs.Exists(s.path) {
		return provision.StatusNeedsApply, nil
	}
	current, err := s.fs.ReadFile(s.path)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if bytes.Equal(current, s.rendered) {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *ComposeFileStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	if s.fs.Exists(s.path) {
		return provision.NewDiff(provision.DiffTypeModify, "file", s.path, "", ""), nil
	}
	return provision.NewDiff(provision.DiffTypeAdd, "file", s.path, "", ""), nil
}

// Apply writes the rendered compose file, backing up foreign content first.
func (s *ComposeFileStep) Apply(_ provision.RunContext) error {
	if err := validation.ValidatePath(s.path); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "invalid compose path").
			WithUnderlying(err)
	}

	if s.fs.Exists(s.path) {
		current, err := s.fs.ReadFile(s.path)
		if err != nil {
			return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot read existing compose file").
				WithUnderlying(err)
		}
		if !bytes.Equal(current, s.rendered) {
			if err := s.fs.CopyFile(s.path, s.BackupPath()); err != nil {
				return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot back up existing compose file").
					WithUnderlying(err)
			}
		}
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot create compose directory").
			WithUnderlying(err)
	}
	if err := s.fs.WriteFile(s.path, s.rendered, 0o644); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot write compose file").
			WithUnderlying(err).
			WithSuggestion("Check filesystem permissions and free space.")
	}
	return nil
}

// Compensation describes how to undo the compose file write.
func (s *ComposeFileStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("restore %s from %s", s.path, s.BackupPath()),
	}
}

// ComposeUpStep deploys the stack with docker compose.
type ComposeUpStep struct {
	path   string
	id     provision.StepID
	deps   []provision.StepID
	runner ports.CommandRunner
}

// NewComposeUpStep creates a new ComposeUpStep.
func NewComposeUpStep(path string, runner ports.CommandRunner, deps []provision.StepID) *ComposeUpStep {
	return &ComposeUpStep{
		path:   path,
		id:     provision.MustNewStepID("docker:compose-up"),
		deps:   deps,
		runner: runner,
	}
}

// ID returns the step identifier.
func (s *ComposeUpStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *ComposeUpStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the stack is already running.
func (s *ComposeUpStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "docker", "compose", "-f", s.path, "ps", "--status", "running", "-q")
	if err != nil {
		return provision.StatusUnknown, err
	}
	if result.Success() && strings.TrimSpace(result.Stdout) != "" {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *ComposeUpStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "stack", s.path, "", "running"), nil
}

// Apply brings the stack up detached.
func (s *ComposeUpStep) Apply(ctx provision.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "docker", "compose", "-f", s.path, "up", "-d")
	if err != nil {
		return provision.NewStepError(provision.ErrCodeService, s.id, "docker compose up failed").
			WithUnderlying(err)
	}
	if !result.Success() {
		return provision.NewStepError(provision.ErrCodeService, s.id,
			fmt.Sprintf("docker compose up failed: %s", result.FailureOutput())).
			WithExitCode(result.ExitCode).
			WithSuggestion("Inspect the compose file and container logs: docker compose logs.")
	}
	return nil
}

// Compensation describes how to undo the deployment.
func (s *ComposeUpStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("docker compose -f %s down", s.path),
	}
}

// Steps with compensating actions.
var (
	_ provision.CompensableStep = (*GroupStep)(nil)
	_ provision.CompensableStep = (*NetworkStep)(nil)
	_ provision.CompensableStep = (*ComposeFileStep)(nil)
	_ provision.CompensableStep = (*ComposeUpStep)(nil)
)
