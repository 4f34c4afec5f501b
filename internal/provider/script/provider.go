package script

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles script configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
}

// NewProvider creates a new script Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem, logger ports.Logger) *Provider {
	return &Provider{runner: runner, fs: fs, logger: logger}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "script"
}

// Compile transforms script configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("script")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	steps := make([]provision.Step, 0, len(cfg.Scripts))
	for _, script := range cfg.Scripts {
		deps := []provision.StepID{precheck.PrivilegeStepID}
		steps = append(steps, NewRunStep(script, p.runner, p.fs, p.logger, deps))
	}
	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
