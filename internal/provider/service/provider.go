package service

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles service configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
}

// NewProvider creates a new service Provider.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "service"
}

// Compile transforms service configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("service")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	steps := make([]provision.Step, 0, len(cfg.Units)*2)

	for _, unit := range cfg.Units {
		start := NewStartStep(unit.Name, p.runner, deps)
		steps = append(steps, start)
		if unit.Enable {
			steps = append(steps, NewEnableStep(unit.Name, p.runner,
				append(deps, start.ID())))
		}
	}

	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
