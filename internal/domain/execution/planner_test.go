package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
)

func TestPlanner_OrdersEntriesByDeclaration(t *testing.T) {
	t.Parallel()

	seq := provision.NewSequence()
	require.NoError(t, seq.Add(&scriptedStep{id: provision.MustNewStepID("precheck:privilege")}))
	require.NoError(t, seq.Add(&scriptedStep{id: provision.MustNewStepID("apt:update")}))
	require.NoError(t, seq.Add(&scriptedStep{id: provision.MustNewStepID("apt:package:docker.io")}))

	plan, err := NewPlanner().Plan(context.Background(), seq)
	require.NoError(t, err)

	require.Equal(t, 3, plan.Len())
	assert.Equal(t, "precheck:privilege", plan.Entries()[0].Step().ID().String())
	assert.Equal(t, "apt:update", plan.Entries()[1].Step().ID().String())
	assert.Equal(t, "apt:package:docker.io", plan.Entries()[2].Step().ID().String())
}

func TestPlanner_SatisfiedStepHasNoDiff(t *testing.T) {
	t.Parallel()

	seq := provision.NewSequence()
	require.NoError(t, seq.Add(&scriptedStep{
		id:          provision.MustNewStepID("apt:package:docker.io"),
		checkStatus: provision.StatusSatisfied,
	}))

	plan, err := NewPlanner().Plan(context.Background(), seq)
	require.NoError(t, err)

	entry := plan.Entries()[0]
	assert.Equal(t, provision.StatusSatisfied, entry.Status())
	assert.True(t, entry.Diff().IsEmpty())
	assert.False(t, plan.HasChanges())
}

func TestPlanner_NeedsApplyCarriesDiff(t *testing.T) {
	t.Parallel()

	seq := provision.NewSequence()
	require.NoError(t, seq.Add(&scriptedStep{id: provision.MustNewStepID("firewall:allow:1883")}))

	plan, err := NewPlanner().Plan(context.Background(), seq)
	require.NoError(t, err)

	entry := plan.Entries()[0]
	assert.Equal(t, provision.StatusNeedsApply, entry.Status())
	assert.Equal(t, provision.DiffTypeAdd, entry.Diff().Type())
	assert.True(t, plan.HasChanges())
}

func TestPlanner_CheckErrorRecordedAsUnknown(t *testing.T) {
	t.Parallel()

	seq := provision.NewSequence()
	require.NoError(t, seq.Add(&scriptedStep{
		id:       provision.MustNewStepID("docker:network:tb-net"),
		checkErr: assert.AnError,
	}))

	plan, err := NewPlanner().Plan(context.Background(), seq)
	require.NoError(t, err)

	assert.Equal(t, provision.StatusUnknown, plan.Entries()[0].Status())
}

func TestPlan_Summary(t *testing.T) {
	t.Parallel()

	plan := NewExecutionPlan()
	plan.Add(NewPlanEntry(&scriptedStep{id: provision.MustNewStepID("a")}, provision.StatusNeedsApply, provision.Diff{}))
	plan.Add(NewPlanEntry(&scriptedStep{id: provision.MustNewStepID("b")}, provision.StatusSatisfied, provision.Diff{}))
	plan.Add(NewPlanEntry(&scriptedStep{id: provision.MustNewStepID("c")}, provision.StatusUnknown, provision.Diff{}))

	summary := plan.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.NeedsApply)
	assert.Equal(t, 1, summary.Satisfied)
	assert.Equal(t, 1, summary.Unknown)
}

func TestPlan_Empty(t *testing.T) {
	t.Parallel()

	plan := NewExecutionPlan()
	assert.True(t, plan.IsEmpty())
	assert.False(t, plan.HasChanges())
	assert.Equal(t, 0, plan.Len())
}
