package firewall

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles firewall configuration into executable steps.
type Provider struct {
	runner ports.CommandRunner
}

// NewProvider creates a new firewall Provider.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "firewall"
}

// Compile transforms firewall configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("firewall")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	steps := make([]provision.Step, 0, len(cfg.Ports)+1)

	// Rules first, then enable: enabling before the allow rules exist would
	// cut off an active SSH session.
	for _, port := range cfg.Ports {
		steps = append(steps, NewAllowStep(port, p.runner, deps))
	}
	if cfg.Enable {
		steps = append(steps, NewEnableStep(p.runner, deps))
	}

	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
