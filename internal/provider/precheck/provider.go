package precheck

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// Provider compiles precheck configuration into executable steps.
// It must be registered first: every mutating provider depends on the
// privilege step it emits.
type Provider struct {
	fs             ports.FileSystem
	logger         ports.Logger
	skipAdvisories bool
}

// NewProvider creates a new precheck Provider.
func NewProvider(fs ports.FileSystem, logger ports.Logger) *Provider {
	return &Provider{fs: fs, logger: logger}
}

// WithoutAdvisories returns a Provider that emits only the privilege step.
// The privilege step itself cannot be skipped: every mutating step depends
// on it.
func (p *Provider) WithoutAdvisories() *Provider {
	return &Provider{fs: p.fs, logger: p.logger, skipAdvisories: true}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "precheck"
}

// Compile transforms precheck configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	cfg, err := ParseConfig(ctx.GetSection("precheck"))
	if err != nil {
		return nil, err
	}

	steps := []provision.Step{NewPrivilegeStep()}
	if p.skipAdvisories {
		return steps, nil
	}

	steps = append(steps,
		NewMemoryStep(cfg.MinMemoryGiB, p.logger),
		NewDiskStep(cfg.DiskPath, cfg.MinDiskGiB, p.logger),
	)
	if cfg.DependencyManifest != "" {
		steps = append(steps, NewDependencyManifestStep(cfg.DependencyManifest, p.fs, p.logger))
	}
	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
