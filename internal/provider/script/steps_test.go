package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/testutil/mocks"
)

func runCtx() provision.RunContext {
	return provision.NewRunContext(context.Background())
}

func TestRunStep_Check(t *testing.T) {
	t.Parallel()

	t.Run("no creates marker always runs", func(t *testing.T) {
		t.Parallel()

		fs := mocks.NewFileSystem()
		fs.Seed("/opt/scripts/seed.sh", []byte("#!/bin/bash\n"))
		step := NewRunStep(Script{Path: "/opt/scripts/seed.sh", Interpreter: DefaultInterpreter},
			mocks.NewCommandRunner(), fs, mocks.NewLogger(), nil)

		status, err := step.Check(runCtx())
		require.NoError(t, err)
		assert.Equal(t, provision.StatusNeedsApply, status)
	})

	t.Run("creates marker present is satisfied", func(t *testing.T) {
		t.Parallel()

		fs := mocks.NewFileSystem()
		fs.Seed("/var/lib/groundwork/seeded", []byte{})
		step := NewRunStep(Script{
			Path:        "/opt/scripts/seed.sh",
			Interpreter: DefaultInterpreter,
			Creates:     "/var/lib/groundwork/seeded",
		}, mocks.NewCommandRunner(), fs, mocks.NewLogger(), nil)

		status, err := step.Check(runCtx())
		require.NoError(t, err)
		assert.Equal(t, provision.StatusSatisfied, status)
	})
}

func TestRunStep_Apply(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.Seed("/opt/scripts/seed.sh", []byte("#!/bin/bash\n"))

	runner := mocks.NewCommandRunner()
	runner.AddResult("/bin/bash", []string{"/opt/scripts/seed.sh", "--tenant", "acme"},
		ports.CommandResult{ExitCode: 0, Stdout: "seeded\n"})

	logger := mocks.NewLogger()
	step := NewRunStep(Script{
		Path:        "/opt/scripts/seed.sh",
		Interpreter: DefaultInterpreter,
		Args:        []string{"--tenant", "acme"},
	}, runner, fs, logger, nil)

	require.NoError(t, step.Apply(runCtx()))

	records := logger.RecordsAt(ports.LevelInfo)
	require.Len(t, records, 1)
	assert.Equal(t, "delegated script exited", records[0].Message)
	assert.Equal(t, 0, records[0].Field("exit_code"))
	assert.Equal(t, "/opt/scripts/seed.sh", records[0].Field("script"))
}

func TestRunStep_ApplyFailureStillLogsExitStatus(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.Seed("/opt/scripts/seed.sh", []byte("#!/bin/bash\n"))

	runner := mocks.NewCommandRunner()
	runner.AddResult("/bin/bash", []string{"/opt/scripts/seed.sh"},
		ports.CommandResult{ExitCode: 3, Stderr: "tenant already exists"})

	logger := mocks.NewLogger()
	step := NewRunStep(Script{Path: "/opt/scripts/seed.sh", Interpreter: DefaultInterpreter},
		runner, fs, logger, nil)

	err := step.Apply(runCtx())
	require.Error(t, err)
	assert.Equal(t, provision.ErrCodeScript, provision.CodeOf(err))
	assert.Equal(t, 3, provision.ExitCodeOf(err))

	records := logger.RecordsAt(ports.LevelInfo)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Field("exit_code"))
}

func TestRunStep_MissingScript(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	step := NewRunStep(Script{Path: "/opt/scripts/absent.sh", Interpreter: DefaultInterpreter},
		runner, mocks.NewFileSystem(), mocks.NewLogger(), nil)

	err := step.Apply(runCtx())
	require.Error(t, err)
	assert.Equal(t, provision.ErrCodeScript, provision.CodeOf(err))
	assert.Empty(t, runner.Calls())
}

func TestProvider_Compile(t *testing.T) {
	t.Parallel()

	provider := NewProvider(mocks.NewCommandRunner(), mocks.NewFileSystem(), mocks.NewLogger())
	assert.Equal(t, "script", provider.Name())

	steps, err := provider.Compile(provision.NewCompileContext(map[string]interface{}{
		"script": map[string]interface{}{
			"scripts": []interface{}{
				map[string]interface{}{
					"path":  "/opt/scripts/seed.sh",
					"after": []interface{}{"docker:compose-up"},
				},
			},
		},
	}))
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "script:run:seed.sh", steps[0].ID().String())
	assert.Contains(t, steps[0].DependsOn(), provision.MustNewStepID("docker:compose-up"))
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"missing path", map[string]interface{}{"scripts": []interface{}{
			map[string]interface{}{"args": []interface{}{"-v"}},
		}}},
		{"relative path", map[string]interface{}{"scripts": []interface{}{
			map[string]interface{}{"path": "scripts/seed.sh"},
		}}},
		{"path traversal", map[string]interface{}{"scripts": []interface{}{
			map[string]interface{}{"path": "/opt/../etc/passwd"},
		}}},
		{"bad after entry", map[string]interface{}{"scripts": []interface{}{
			map[string]interface{}{"path": "/opt/scripts/seed.sh", "after": []interface{}{"not a step id"}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseConfig(tt.raw)
			assert.Error(t, err)
		})
	}
}
