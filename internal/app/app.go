// Package app wires the manifest, providers, planner and executor into the
// operations the CLI exposes.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/groundwork-sh/groundwork/internal/domain/config"
	"github.com/groundwork-sh/groundwork/internal/domain/execution"
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/notify"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/apt"
	"github.com/groundwork-sh/groundwork/internal/provider/docker"
	"github.com/groundwork-sh/groundwork/internal/provider/envfile"
	"github.com/groundwork-sh/groundwork/internal/provider/fetch"
	"github.com/groundwork-sh/groundwork/internal/provider/firewall"
	"github.com/groundwork-sh/groundwork/internal/provider/postgres"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
	"github.com/groundwork-sh/groundwork/internal/provider/script"
	"github.com/groundwork-sh/groundwork/internal/provider/service"
)

// App is the orchestrator behind every CLI command.
type App struct {
	logger     ports.Logger
	fs         ports.FileSystem
	runner     ports.CommandRunner
	downloader ports.Downloader
	loader     *config.Loader

	skipPrechecks bool

	// Test seams for verify.
	httpClient  *http.Client
	dockerCheck func() (docker.Client, error)
}

// Option configures the App.
type Option func(*App)

// WithSkipPrechecks disables the advisory resource checks. The privilege
// check always runs.
func WithSkipPrechecks(skip bool) Option {
	return func(a *App) {
		a.skipPrechecks = skip
	}
}

// WithHTTPClient overrides the verify HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithDockerClient overrides the verify Docker client factory.
func WithDockerClient(factory func() (docker.Client, error)) Option {
	return func(a *App) {
		a.dockerCheck = factory
	}
}

// New creates a new App on the given adapters.
func New(logger ports.Logger, fs ports.FileSystem, runner ports.CommandRunner, downloader ports.Downloader, opts ...Option) *App {
	a := &App{
		logger:     logger,
		fs:         fs,
		runner:     runner,
		downloader: downloader,
		loader:     config.NewLoader(fs),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dockerCheck: func() (docker.Client, error) {
			return docker.NewClient()
		},
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// compiler assembles the provider pipeline for one manifest. Registration
// order is execution order: prechecks gate everything, packages before the
// engine, the engine before the stack, the stack before delegated scripts.
func (a *App) compiler(manifest *config.Manifest) *provision.Compiler {
	env := manifest.ActiveEnvironment()

	prechecks := precheck.NewProvider(a.fs, a.logger)
	if a.skipPrechecks {
		prechecks = prechecks.WithoutAdvisories()
	}

	c := provision.NewCompiler()
	c.RegisterProvider(prechecks)
	c.RegisterProvider(apt.NewProvider(a.runner))
	c.RegisterProvider(docker.NewProvider(a.runner, a.fs, env))
	c.RegisterProvider(postgres.NewProvider())
	c.RegisterProvider(fetch.NewProvider(a.fs, a.downloader))
	c.RegisterProvider(envfile.NewProvider(a.fs, env))
	c.RegisterProvider(firewall.NewProvider(a.runner))
	c.RegisterProvider(service.NewProvider(a.runner))
	c.RegisterProvider(script.NewProvider(a.runner, a.fs, a.logger))
	return c
}

// PlanOutcome is what `groundwork plan` reports.
type PlanOutcome struct {
	Manifest *config.Manifest
	Plan     *execution.Plan
}

// Plan loads the manifest, compiles every provider and checks each step
// without mutating the host.
func (a *App) Plan(ctx context.Context, manifestPath string) (*PlanOutcome, error) {
	manifest, err := a.loader.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	seq, err := a.compiler(manifest).Compile(manifest.Sections())
	if err != nil {
		return nil, err
	}

	plan, err := execution.NewPlanner().Plan(ctx, seq)
	if err != nil {
		return nil, err
	}
	return &PlanOutcome{Manifest: manifest, Plan: plan}, nil
}

// ApplyOutcome is what `groundwork apply` reports.
type ApplyOutcome struct {
	Manifest *config.Manifest
	Plan     *execution.Plan
	Result   execution.ExecuteResult
}

// Apply plans and then executes the sequence, halting on the first failure.
// A notify section, when present, gets a completion email for both outcomes;
// an unreachable relay is a warning, never a failed run.
func (a *App) Apply(ctx context.Context, manifestPath string, dryRun bool) (*ApplyOutcome, error) {
	outcome, err := a.Plan(ctx, manifestPath)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := execution.NewExecutor(a.logger).WithDryRun(dryRun).Execute(ctx, outcome.Plan)
	if err != nil {
		return nil, err
	}

	if !dryRun {
		a.notify(ctx, outcome.Manifest, result, time.Since(started))
	}

	return &ApplyOutcome{
		Manifest: outcome.Manifest,
		Plan:     outcome.Plan,
		Result:   result,
	}, nil
}

func (a *App) notify(ctx context.Context, manifest *config.Manifest, result execution.ExecuteResult, elapsed time.Duration) {
	cfg, err := notify.ParseConfig(sectionOrNil(manifest, "notify"))
	if err != nil {
		a.logger.Warn(ctx, "notification disabled: invalid notify section", ports.F("error", err.Error()))
		return
	}
	if cfg == nil {
		return
	}

	summary := notify.Summary{
		Succeeded:  result.Run.Completed(),
		FailedStep: result.Run.FailedStep,
		Duration:   elapsed,
	}
	for _, r := range result.Results {
		switch {
		case r.Success() && !r.Diff().IsEmpty():
			summary.Applied++
		case r.Success():
			summary.Satisfied++
		}
	}

	if err := notify.NewNotifier(*cfg).Notify(summary); err != nil {
		a.logger.Warn(ctx, "completion notification not delivered", ports.F("error", err.Error()))
		return
	}
	a.logger.Info(ctx, "completion notification sent", ports.F("recipients", len(cfg.To)))
}

func sectionOrNil(manifest *config.Manifest, key string) map[string]interface{} {
	return provision.NewCompileContext(manifest.Sections()).GetSection(key)
}
