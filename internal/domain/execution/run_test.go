package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Lifecycle_Completed(t *testing.T) {
	t.Parallel()

	run, err := NewRun()
	require.NoError(t, err)
	assert.Equal(t, RunNotStarted, run.State())

	run.Begin()
	assert.Equal(t, RunRunning, run.State())

	run.Advance(0)
	run.Advance(1)
	assert.Equal(t, 2, run.StepIndex())

	run.Complete()
	assert.Equal(t, RunCompleted, run.State())
	assert.True(t, run.Result().Completed())
	assert.Equal(t, "Completed", run.Result().String())
}

func TestRun_Lifecycle_Failed(t *testing.T) {
	t.Parallel()

	run, err := NewRun()
	require.NoError(t, err)

	run.Begin()
	run.Fail("apt:package:docker.io", 100)

	assert.Equal(t, RunFailed, run.State())

	result := run.Result()
	assert.False(t, result.Completed())
	assert.Equal(t, "apt:package:docker.io", result.FailedStep)
	assert.Equal(t, 100, result.ExitCode)
	assert.Equal(t, "Failed(apt:package:docker.io, 100)", result.String())
}

func TestRun_ResultBeforeTerminal(t *testing.T) {
	t.Parallel()

	run, err := NewRun()
	require.NoError(t, err)

	assert.Equal(t, Outcome(""), run.Result().Outcome)
	run.Begin()
	assert.Equal(t, Outcome(""), run.Result().Outcome)
}

func TestRun_CannotCompleteBeforeStart(t *testing.T) {
	t.Parallel()

	run, err := NewRun()
	require.NoError(t, err)

	// COMPLETE is not a valid transition out of not-started.
	run.Complete()
	assert.Equal(t, RunNotStarted, run.State())
}

func TestRun_UniqueIDs(t *testing.T) {
	t.Parallel()

	a, err := NewRun()
	require.NoError(t, err)
	b, err := NewRun()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}
