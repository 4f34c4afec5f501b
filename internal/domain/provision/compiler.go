package provision

import "fmt"

// Provider compiles a section of the manifest into executable steps.
// Each provider handles one resource family (apt, docker, firewall, ...).
type Provider interface {
	// Name returns the provider's identifier (e.g., "apt", "docker").
	Name() string

	// Compile transforms manifest data into an ordered list of steps.
	// Step order within a provider is preserved; cross-provider ordering is
	// the registration order plus Step.DependsOn constraints.
	Compile(ctx CompileContext) ([]Step, error)
}

// CompileContext provides manifest data to providers during compilation.
type CompileContext struct {
	config map[string]interface{}
}

// NewCompileContext creates a new CompileContext with the given configuration.
func NewCompileContext(config map[string]interface{}) CompileContext {
	return CompileContext{config: config}
}

// Config returns the full manifest configuration.
func (c CompileContext) Config() map[string]interface{} {
	return c.config
}

// GetSection returns a specific section of the manifest by key.
// Returns nil if the section doesn't exist or isn't a map.
func (c CompileContext) GetSection(key string) map[string]interface{} {
	if c.config == nil {
		return nil
	}
	section, ok := c.config[key]
	if !ok {
		return nil
	}
	sectionMap, ok := section.(map[string]interface{})
	if !ok {
		return nil
	}
	return sectionMap
}

// Sequence is the ordered list of steps for one run. Unlike a dependency
// graph there is no reordering: steps execute exactly in declaration order,
// and a step may only depend on steps declared before it.
type Sequence struct {
	steps []Step
	index map[string]int
}

// NewSequence creates an empty Sequence.
func NewSequence() *Sequence {
	return &Sequence{
		steps: make([]Step, 0),
		index: make(map[string]int),
	}
}

// Add appends a step, rejecting duplicate IDs.
func (s *Sequence) Add(step Step) error {
	id := step.ID().String()
	if _, exists := s.index[id]; exists {
		return fmt.Errorf("duplicate step ID %q", id)
	}
	s.index[id] = len(s.steps)
	s.steps = append(s.steps, step)
	return nil
}

// Steps returns the steps in declaration order.
func (s *Sequence) Steps() []Step {
	return s.steps
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	return len(s.steps)
}

// Validate checks that every dependency names a step declared earlier in the
// sequence. A forward or missing dependency is a compilation error.
func (s *Sequence) Validate() error {
	for i, step := range s.steps {
		for _, dep := range step.DependsOn() {
			pos, ok := s.index[dep.String()]
			if !ok {
				return fmt.Errorf("step %q depends on unknown step %q", step.ID().String(), dep.String())
			}
			if pos >= i {
				return fmt.Errorf("step %q depends on later step %q", step.ID().String(), dep.String())
			}
		}
	}
	return nil
}

// Compiler orchestrates providers to build a Sequence from the manifest.
type Compiler struct {
	providers []Provider
}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		providers: make([]Provider, 0),
	}
}

// RegisterProvider adds a provider to the compiler.
// Providers are compiled in registration order; registration order is the
// execution order of their steps.
func (c *Compiler) RegisterProvider(provider Provider) {
	c.providers = append(c.providers, provider)
}

// Providers returns all registered providers.
func (c *Compiler) Providers() []Provider {
	return c.providers
}

// Compile transforms the manifest into a validated Sequence.
func (c *Compiler) Compile(config map[string]interface{}) (*Sequence, error) {
	ctx := NewCompileContext(config)
	seq := NewSequence()

	for _, provider := range c.providers {
		steps, err := provider.Compile(ctx)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", provider.Name(), err)
		}

		for _, step := range steps {
			if err := seq.Add(step); err != nil {
				return nil, fmt.Errorf("provider %q: %w", provider.Name(), err)
			}
		}
	}

	if err := seq.Validate(); err != nil {
		return nil, err
	}

	return seq, nil
}
