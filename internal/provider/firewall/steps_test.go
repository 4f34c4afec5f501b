package firewall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/testutil/mocks"
)

const activeStatus = `Status: active

To                         Action      From
--                         ------      ----
8080                       ALLOW       Anywhere
5683/udp                   ALLOW       Anywhere
`

func runCtx() provision.RunContext {
	return provision.NewRunContext(context.Background())
}

func TestAllowStep_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		port Port
		want provision.StepStatus
	}{
		{"existing tcp rule", Port{Number: 8080}, provision.StatusSatisfied},
		{"existing udp rule", Port{Number: 5683, Protocol: "udp"}, provision.StatusSatisfied},
		{"missing rule", Port{Number: 1883}, provision.StatusNeedsApply},
		{"protocol mismatch", Port{Number: 8080, Protocol: "udp"}, provision.StatusNeedsApply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			runner.AddResult("ufw", []string{"status"}, ports.CommandResult{ExitCode: 0, Stdout: activeStatus})

			step := NewAllowStep(tt.port, runner, nil)
			status, err := step.Check(runCtx())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestAllowStep_Apply(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("ufw", []string{"allow", "1883"}, ports.CommandResult{ExitCode: 0})

	step := NewAllowStep(Port{Number: 1883}, runner, nil)
	require.NoError(t, step.Apply(runCtx()))
	assert.Equal(t, "ufw delete allow 1883", step.Compensation().Action)
}

func TestAllowStep_ApplyFailure(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("ufw", []string{"allow", "1883"},
		ports.CommandResult{ExitCode: 1, Stderr: "ERROR: Couldn't determine iptables version"})

	err := NewAllowStep(Port{Number: 1883}, runner, nil).Apply(runCtx())
	require.Error(t, err)
	assert.Equal(t, provision.ErrCodeService, provision.CodeOf(err))
}

func TestEnableStep(t *testing.T) {
	t.Parallel()

	t.Run("active firewall is satisfied", func(t *testing.T) {
		t.Parallel()

		runner := mocks.NewCommandRunner()
		runner.AddResult("ufw", []string{"status"}, ports.CommandResult{ExitCode: 0, Stdout: activeStatus})

		status, err := NewEnableStep(runner, nil).Check(runCtx())
		require.NoError(t, err)
		assert.Equal(t, provision.StatusSatisfied, status)
	})

	t.Run("inactive firewall needs apply", func(t *testing.T) {
		t.Parallel()

		runner := mocks.NewCommandRunner()
		runner.AddResult("ufw", []string{"status"}, ports.CommandResult{ExitCode: 0, Stdout: "Status: inactive\n"})

		status, err := NewEnableStep(runner, nil).Check(runCtx())
		require.NoError(t, err)
		assert.Equal(t, provision.StatusNeedsApply, status)
	})

	t.Run("apply enables non-interactively", func(t *testing.T) {
		t.Parallel()

		runner := mocks.NewCommandRunner()
		runner.AddResult("ufw", []string{"--force", "enable"}, ports.CommandResult{ExitCode: 0})

		require.NoError(t, NewEnableStep(runner, nil).Apply(runCtx()))
	})
}

func TestProvider_Compile(t *testing.T) {
	t.Parallel()

	provider := NewProvider(mocks.NewCommandRunner())
	assert.Equal(t, "firewall", provider.Name())

	steps, err := provider.Compile(provision.NewCompileContext(map[string]interface{}{
		"firewall": map[string]interface{}{
			"ports": []interface{}{
				8080,
				map[string]interface{}{"port": 5683, "protocol": "udp"},
			},
		},
	}))
	require.NoError(t, err)

	require.Len(t, steps, 3)
	assert.Equal(t, "firewall:allow:8080", steps[0].ID().String())
	assert.Equal(t, "firewall:allow:5683-udp", steps[1].ID().String())
	// Rules precede enable so a new firewall never races its own rules.
	assert.Equal(t, "firewall:enable", steps[2].ID().String())
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"port out of range", map[string]interface{}{"ports": []interface{}{70000}}},
		{"bad protocol", map[string]interface{}{"ports": []interface{}{
			map[string]interface{}{"port": 80, "protocol": "icmp"},
		}}},
		{"port wrong type", map[string]interface{}{"ports": []interface{}{"8080"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseConfig(tt.raw)
			assert.Error(t, err)
		})
	}
}
