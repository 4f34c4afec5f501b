package apt

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles apt configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
}

// NewProvider creates a new apt Provider.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "apt"
}

// Compile transforms apt configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("apt")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	steps := make([]provision.Step, 0, len(cfg.Packages)+2)

	if cfg.Update {
		update := NewUpdateStep(p.runner, deps)
		steps = append(steps, update)
		deps = append(deps, update.ID())
	}
	if cfg.Upgrade {
		upgrade := NewUpgradeStep(p.runner, deps)
		steps = append(steps, upgrade)
	}
	for _, pkg := range cfg.Packages {
		steps = append(steps, NewPackageStep(pkg, p.runner, deps))
	}

	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
