package envfile

import (
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/domain/config"
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Provider compiles envfile configuration into executable steps.
type Provider struct {
	fs  ports.FileSystem
	env config.Environment
}

// NewProvider creates a new envfile Provider. The environment carries the
// active profile's sizing, merged into the managed block.
func NewProvider(fs ports.FileSystem, env config.Environment) *Provider {
	return &Provider{fs: fs, env: env}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "envfile"
}

// Compile transforms envfile configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("envfile")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	// Profile sizing first; manifest values win on conflict.
	values := map[string]string{
		"JAVA_OPTS":                           p.env.JavaOpts,
		"SPRING_DATASOURCE_MAXIMUM_POOL_SIZE": fmt.Sprintf("%d", p.env.DBPoolSize),
	}
	for key, val := range cfg.Values {
		values[key] = val
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	return []provision.Step{NewUpsertStep(cfg.Path, values, p.fs, deps)}, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
