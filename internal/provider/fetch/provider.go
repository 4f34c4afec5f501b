package fetch

import (
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles fetch configuration into executable steps.
type Provider struct {
	fs         ports.FileSystem
	downloader ports.Downloader
}

// NewProvider creates a new fetch Provider.
func NewProvider(fs ports.FileSystem, downloader ports.Downloader) *Provider {
	return &Provider{fs: fs, downloader: downloader}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "fetch"
}

// Compile transforms fetch configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("fetch")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	steps := make([]provision.Step, 0, len(cfg.Artifacts))
	for _, artifact := range cfg.Artifacts {
		steps = append(steps, NewArtifactStep(artifact, p.fs, p.downloader, deps))
	}
	return steps, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
