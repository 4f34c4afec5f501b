package docker

import (
	"github.com/groundwork-sh/groundwork/internal/domain/config"
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles docker configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	env    config.Environment
}

// NewProvider creates a new docker Provider. The environment carries the
// active profile's sizing, rendered into the compose file.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem, env config.Environment) *Provider {
	return &Provider{runner: runner, fs: fs, env: env}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "docker"
}

// Compile transforms docker configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("docker")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	steps := make([]provision.Step, 0, 4)

	if cfg.GroupUser != "" {
		steps = append(steps, NewGroupStep(cfg.GroupUser, p.runner, deps))
	}
	if cfg.Network != "" {
		steps = append(steps, NewNetworkStep(cfg.Network, p.runner, deps))
	}
	if cfg.Compose != nil {
		rendered, err := RenderCompose(cfg.Compose, cfg.Network, p.env)
		if err != nil {
			return nil, err
		}

		fileStep := NewComposeFileStep(cfg.Compose.Path, rendered, p.fs, deps)
		steps = append(steps, fileStep)
		steps = append(steps, NewComposeUpStep(cfg.Compose.Path, p.runner,
			append(deps, fileStep.ID())))
	}

	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
