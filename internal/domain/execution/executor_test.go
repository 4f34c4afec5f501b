package execution

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
	"github.com/groundwork-sh/groundwork/internal/testutil/mocks"
)

// scriptedStep is a controllable step for executor tests.
type scriptedStep struct {
	id          provision.StepID
	deps        []provision.StepID
	checkStatus provision.StepStatus
	checkErr    error
	applyErr    error
	applied     *[]string
	undo        string
}

func (s *scriptedStep) ID() provision.StepID          { return s.id }
func (s *scriptedStep) DependsOn() []provision.StepID { return s.deps }

func (s *scriptedStep) Check(provision.RunContext) (provision.StepStatus, error) {
	if s.checkErr != nil {
		return provision.StatusUnknown, s.checkErr
	}
	if s.checkStatus == "" {
		return provision.StatusNeedsApply, nil
	}
	return s.checkStatus, nil
}

func (s *scriptedStep) Plan(provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "test", s.id.String(), "", "applied"), nil
}

func (s *scriptedStep) Apply(provision.RunContext) error {
	if s.applied != nil {
		*s.applied = append(*s.applied, s.id.String())
	}
	return s.applyErr
}

func (s *scriptedStep) Compensation() provision.Compensation {
	return provision.Compensation{StepID: s.id, Action: s.undo}
}

func buildPlan(t *testing.T, steps ...provision.Step) *Plan {
	t.Helper()

	seq := provision.NewSequence()
	for _, s := range steps {
		require.NoError(t, seq.Add(s))
	}

	plan, err := NewPlanner().Plan(context.Background(), seq)
	require.NoError(t, err)
	return plan
}

// stepRecords filters journal records down to those emitted for steps,
// excluding the run-level bracketing records.
func stepRecords(logger *mocks.Logger) []mocks.Record {
	var out []mocks.Record
	for _, r := range logger.Records() {
		if strings.HasPrefix(r.Message, "step ") {
			out = append(out, r)
		}
	}
	return out
}

func TestExecutor_AllStepsSucceed(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()
	plan := buildPlan(t,
		&scriptedStep{id: provision.MustNewStepID("precheck:privilege"), applied: &applied},
		&scriptedStep{id: provision.MustNewStepID("apt:update"), applied: &applied},
		&scriptedStep{id: provision.MustNewStepID("apt:package:docker.io"), applied: &applied},
	)

	result, err := NewExecutor(logger).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, result.Run.Completed())
	assert.Equal(t, []string{"precheck:privilege", "apt:update", "apt:package:docker.io"}, applied)

	// Exactly one start and one success record per step, in step order.
	records := stepRecords(logger)
	require.Len(t, records, 6)
	for i, stepID := range applied {
		assert.Equal(t, "step starting", records[2*i].Message)
		assert.Equal(t, stepID, records[2*i].Field("step"))
		assert.Equal(t, "step succeeded", records[2*i+1].Message)
		assert.Equal(t, stepID, records[2*i+1].Field("step"))
	}
}

func TestExecutor_HaltsOnFirstFailure(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()

	failing := &scriptedStep{
		id:      provision.MustNewStepID("apt:package:thingsboard"),
		applied: &applied,
	}
	failing.applyErr = provision.NewStepError(
		provision.ErrCodePackageManager, failing.id, "apt-get install failed").WithExitCode(1)

	plan := buildPlan(t,
		&scriptedStep{id: provision.MustNewStepID("precheck:privilege"), applied: &applied},
		&scriptedStep{id: provision.MustNewStepID("apt:package:openjdk-17-jdk"), applied: &applied},
		&scriptedStep{id: provision.MustNewStepID("fetch:artifact:thingsboard.deb"), applied: &applied},
		failing,
		&scriptedStep{id: provision.MustNewStepID("service:start:thingsboard"), applied: &applied},
	)

	result, err := NewExecutor(logger).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.False(t, result.Run.Completed())
	assert.Equal(t, "apt:package:thingsboard", result.Run.FailedStep)
	assert.Equal(t, 1, result.Run.ExitCode)

	// The step after the failure never ran and produced no journal records.
	assert.NotContains(t, applied, "service:start:thingsboard")
	for _, r := range logger.Records() {
		if v, ok := r.Field("step").(string); ok {
			assert.NotEqual(t, "service:start:thingsboard", v)
		}
	}

	// Three successful steps emit two records each; the failing step emits
	// its start record plus exactly one error record.
	records := stepRecords(logger)
	require.Len(t, records, 8)
	last := records[len(records)-1]
	assert.Equal(t, "step failed", last.Message)
	assert.Equal(t, ports.LevelError, last.Level)
	assert.Equal(t, "apt:package:thingsboard", last.Field("step"))
	assert.Equal(t, 1, last.Field("exit_code"))

	// Per-step results: failure recorded, trailing step skipped.
	require.Len(t, result.Results, 5)
	assert.Equal(t, provision.StatusFailed, result.Results[3].Status())
	assert.Equal(t, provision.StatusSkipped, result.Results[4].Status())
}

func TestExecutor_PrivilegeCheckFailsFirst(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()

	precheck := &scriptedStep{id: provision.MustNewStepID("precheck:privilege"), applied: &applied}
	precheck.applyErr = provision.NewStepError(
		provision.ErrCodePrivilege, precheck.id, "must run as root")

	plan := buildPlan(t,
		precheck,
		&scriptedStep{id: provision.MustNewStepID("apt:update"), applied: &applied},
	)

	result, err := NewExecutor(logger).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, "precheck:privilege", result.Run.FailedStep)
	assert.Equal(t, []string{"precheck:privilege"}, applied)

	// No mutating step was attempted after the privilege failure.
	records := stepRecords(logger)
	require.Len(t, records, 2)
	assert.Equal(t, "step failed", records[1].Message)
}

func TestExecutor_SatisfiedStepNotReapplied(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()
	plan := buildPlan(t,
		&scriptedStep{
			id:          provision.MustNewStepID("apt:package:docker.io"),
			checkStatus: provision.StatusSatisfied,
			applied:     &applied,
		},
	)

	result, err := NewExecutor(logger).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, result.Run.Completed())
	assert.Empty(t, applied)

	records := stepRecords(logger)
	require.Len(t, records, 2)
	assert.Equal(t, "step already satisfied", records[1].Message)
}

func TestExecutor_DryRunAppliesNothing(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()
	plan := buildPlan(t,
		&scriptedStep{id: provision.MustNewStepID("firewall:allow:8080"), applied: &applied},
	)

	result, err := NewExecutor(logger).WithDryRun(true).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, result.Run.Completed())
	assert.Empty(t, applied)
	require.Len(t, result.Results, 1)
	assert.Equal(t, provision.StatusNeedsApply, result.Results[0].Status())
}

func TestExecutor_JournalsCompensation(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()
	plan := buildPlan(t,
		&scriptedStep{
			id:      provision.MustNewStepID("apt:package:docker.io"),
			applied: &applied,
			undo:    "apt-get remove -y docker.io",
		},
	)

	_, err := NewExecutor(logger).Execute(context.Background(), plan)
	require.NoError(t, err)

	debugs := logger.RecordsAt(ports.LevelDebug)
	require.Len(t, debugs, 1)
	assert.Equal(t, "compensation recorded", debugs[0].Message)
	assert.Equal(t, "apt-get remove -y docker.io", debugs[0].Field("undo"))
}

func TestExecutor_ContextCanceled(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()
	plan := buildPlan(t,
		&scriptedStep{id: provision.MustNewStepID("apt:update"), applied: &applied},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewExecutor(logger).Execute(ctx, plan)
	require.NoError(t, err)

	assert.False(t, result.Run.Completed())
	assert.Empty(t, applied)
}

func TestExecutor_UnknownStatusResolvedAtApply(t *testing.T) {
	t.Parallel()

	var applied []string
	logger := mocks.NewLogger()

	// Check fails during planning, so the entry is planned as unknown; by
	// apply time the re-check succeeds and reports convergence.
	step := &scriptedStep{
		id:       provision.MustNewStepID("docker:network:tb-net"),
		checkErr: assert.AnError,
		applied:  &applied,
	}
	plan := buildPlan(t, step)
	require.Equal(t, provision.StatusUnknown, plan.Entries()[0].Status())

	step.checkErr = nil
	step.checkStatus = provision.StatusSatisfied

	result, err := NewExecutor(logger).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.True(t, result.Run.Completed())
	assert.Empty(t, applied)
}
