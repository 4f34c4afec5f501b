package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStep struct {
	id   StepID
	deps []StepID
}

func (s *fakeStep) ID() StepID                           { return s.id }
func (s *fakeStep) DependsOn() []StepID                  { return s.deps }
func (s *fakeStep) Check(RunContext) (StepStatus, error) { return StatusNeedsApply, nil }
func (s *fakeStep) Plan(RunContext) (Diff, error)        { return Diff{}, nil }
func (s *fakeStep) Apply(RunContext) error               { return nil }

type fakeProvider struct {
	name  string
	steps []Step
	err   error
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Compile(CompileContext) ([]Step, error) {
	return p.steps, p.err
}

func TestSequence_PreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	first := &fakeStep{id: MustNewStepID("apt:update")}
	second := &fakeStep{id: MustNewStepID("apt:package:docker.io")}

	require.NoError(t, seq.Add(first))
	require.NoError(t, seq.Add(second))

	steps := seq.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "apt:update", steps[0].ID().String())
	assert.Equal(t, "apt:package:docker.io", steps[1].ID().String())
}

func TestSequence_RejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	require.NoError(t, seq.Add(&fakeStep{id: MustNewStepID("apt:update")}))

	err := seq.Add(&fakeStep{id: MustNewStepID("apt:update")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step ID")
}

func TestSequence_Validate_ForwardDependency(t *testing.T) {
	t.Parallel()

	later := MustNewStepID("docker:deploy")
	seq := NewSequence()
	require.NoError(t, seq.Add(&fakeStep{id: MustNewStepID("firewall:allow:8080"), deps: []StepID{later}}))
	require.NoError(t, seq.Add(&fakeStep{id: later}))

	err := seq.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depends on later step")
}

func TestSequence_Validate_MissingDependency(t *testing.T) {
	t.Parallel()

	seq := NewSequence()
	require.NoError(t, seq.Add(&fakeStep{
		id:   MustNewStepID("docker:deploy"),
		deps: []StepID{MustNewStepID("precheck:privilege")},
	}))

	err := seq.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}

func TestCompiler_Compile_RegistrationOrder(t *testing.T) {
	t.Parallel()

	comp := NewCompiler()
	comp.RegisterProvider(&fakeProvider{
		name:  "precheck",
		steps: []Step{&fakeStep{id: MustNewStepID("precheck:privilege")}},
	})
	comp.RegisterProvider(&fakeProvider{
		name: "apt",
		steps: []Step{
			&fakeStep{id: MustNewStepID("apt:update")},
			&fakeStep{id: MustNewStepID("apt:package:docker.io"), deps: []StepID{MustNewStepID("precheck:privilege")}},
		},
	})

	seq, err := comp.Compile(map[string]interface{}{})
	require.NoError(t, err)
	require.Equal(t, 3, seq.Len())
	assert.Equal(t, "precheck:privilege", seq.Steps()[0].ID().String())
	assert.Equal(t, "apt:package:docker.io", seq.Steps()[2].ID().String())
}

func TestCompiler_Compile_ProviderError(t *testing.T) {
	t.Parallel()

	comp := NewCompiler()
	comp.RegisterProvider(&fakeProvider{name: "apt", err: assert.AnError})

	_, err := comp.Compile(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `provider "apt"`)
}

func TestCompileContext_GetSection(t *testing.T) {
	t.Parallel()

	ctx := NewCompileContext(map[string]interface{}{
		"apt":   map[string]interface{}{"packages": []interface{}{"docker.io"}},
		"wrong": "not a map",
	})

	assert.NotNil(t, ctx.GetSection("apt"))
	assert.Nil(t, ctx.GetSection("missing"))
	assert.Nil(t, ctx.GetSection("wrong"))
}

func TestAsCompensable(t *testing.T) {
	t.Parallel()

	plain := &fakeStep{id: MustNewStepID("apt:update")}
	assert.Nil(t, AsCompensable(plain))
}
