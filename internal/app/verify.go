package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/provider/docker"
	"github.com/groundwork-sh/groundwork/internal/provider/service"
	"github.com/groundwork-sh/groundwork/internal/validation"
)

// DefaultVerifyURL is probed when the manifest's verify section names no
// endpoint. ThingsBoard's web UI answers here on a default install.
const DefaultVerifyURL = "http://localhost:8080"

// Check is one post-install health probe result. Verify never fails the
// command: a red check is advice, not an exit code.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// VerifyReport collects all health probe results for one host.
type VerifyReport struct {
	Checks []Check
}

// Healthy returns true when every probe passed.
func (r VerifyReport) Healthy() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func (r *VerifyReport) add(name string, ok bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, OK: ok, Detail: detail})
}

// Verify probes the provisioned stack: compose containers via the Docker
// API, the HTTP endpoint, and the managed systemd units.
func (a *App) Verify(ctx context.Context, manifestPath string) (*VerifyReport, error) {
	manifest, err := a.loader.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{}
	a.verifyContainers(ctx, manifest.Sections(), report)
	a.verifyHTTP(ctx, manifest.Sections(), report)
	a.verifyServices(ctx, manifest.Sections(), report)
	return report, nil
}

func (a *App) verifyContainers(ctx context.Context, sections map[string]interface{}, report *VerifyReport) {
	raw, ok := sections["docker"].(map[string]interface{})
	if !ok {
		return
	}
	cfg, err := docker.ParseConfig(raw)
	if err != nil || cfg.Compose == nil {
		return
	}

	cli, err := a.dockerCheck()
	if err != nil {
		report.add("docker api", false, fmt.Sprintf("cannot connect to the Docker daemon: %v", err))
		return
	}

	statuses, err := docker.NewVerifier(cli).Containers(ctx, cfg.Compose.Project)
	if err != nil {
		report.add("docker api", false, err.Error())
		return
	}
	if len(statuses) == 0 {
		report.add("containers", false,
			fmt.Sprintf("no containers found for compose project %q", cfg.Compose.Project))
		return
	}

	for _, s := range statuses {
		detail := s.State
		report.add("container "+s.Name, s.Running, detail)
	}
}

func (a *App) verifyHTTP(ctx context.Context, sections map[string]interface{}, report *VerifyReport) {
	url := DefaultVerifyURL
	if raw, ok := sections["verify"].(map[string]interface{}); ok {
		if u, ok := raw["http_url"].(string); ok && u != "" {
			if err := validation.ValidateURL(u); err != nil {
				report.add("http endpoint", false, err.Error())
				return
			}
			url = u
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		report.add("http endpoint", false, err.Error())
		return
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		report.add("http endpoint", false, fmt.Sprintf("%s unreachable: %v", url, err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode < 500
	report.add("http endpoint", ok, fmt.Sprintf("%s returned %s", url, resp.Status))
}

func (a *App) verifyServices(ctx context.Context, sections map[string]interface{}, report *VerifyReport) {
	raw, ok := sections["service"].(map[string]interface{})
	if !ok {
		return
	}
	cfg, err := service.ParseConfig(raw)
	if err != nil {
		return
	}

	for _, unit := range cfg.Units {
		result, err := a.runner.Run(ctx, "systemctl", "is-active", unit.Name)
		if err != nil {
			report.add("service "+unit.Name, false, err.Error())
			continue
		}
		state := strings.TrimSpace(result.Stdout)
		report.add("service "+unit.Name, state == "active", state)
	}
}

// Logged renders the report through the app logger, one record per check.
func (r VerifyReport) Logged(ctx context.Context, logger ports.Logger) {
	for _, c := range r.Checks {
		if c.OK {
			logger.Info(ctx, "check passed", ports.F("check", c.Name), ports.F("detail", c.Detail))
		} else {
			logger.Warn(ctx, "check failed", ports.F("check", c.Name), ports.F("detail", c.Detail))
		}
	}
}
