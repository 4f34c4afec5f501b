package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Profile selects the resource sizing applied to the stack.
type Profile string

const (
	// ProfileDev sizes the stack for a development host.
	ProfileDev Profile = "dev"
	// ProfileProd sizes the stack for a production host.
	ProfileProd Profile = "prod"
)

// Environment holds the profile-dependent runtime settings rendered into the
// ThingsBoard environment file.
type Environment struct {
	JavaOpts   string `yaml:"java_opts,omitempty"`
	DBPoolSize int    `yaml:"db_pool_size,omitempty"`
}

// Built-in sizing used when the manifest does not override a profile.
var defaultEnvironments = map[Profile]Environment{
	ProfileDev:  {JavaOpts: "-Xms512M -Xmx512M", DBPoolSize: 5},
	ProfileProd: {JavaOpts: "-Xms2G -Xmx2G", DBPoolSize: 20},
}

// Manifest is the root configuration (groundwork.yaml). The typed header
// controls profile selection; provider sections stay raw and are decoded by
// the provider that owns them.
type Manifest struct {
	Version      int
	Profile      Profile
	Environments map[Profile]Environment

	sections map[string]interface{}
}

// manifestHeader is the typed YAML header for unmarshaling.
type manifestHeader struct {
	Version      int                    `yaml:"version,omitempty"`
	Profile      string                 `yaml:"profile,omitempty"`
	Environments map[string]Environment `yaml:"environments,omitempty"`
}

// Keys of the typed header; everything else is a provider section.
var headerKeys = map[string]struct{}{
	"version":      {},
	"profile":      {},
	"environments": {},
}

// ParseManifest parses a Manifest from YAML bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var header manifestHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:      header.Version,
		Profile:      Profile(header.Profile),
		Environments: make(map[Profile]Environment),
		sections:     make(map[string]interface{}),
	}
	if m.Version == 0 {
		m.Version = 1
	}
	if m.Profile == "" {
		m.Profile = ProfileDev
	}

	for name, env := range header.Environments {
		m.Environments[Profile(name)] = env
	}
	for key, value := range raw {
		if _, reserved := headerKeys[key]; reserved {
			continue
		}
		m.sections[key] = value
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate() error {
	errs := NewErrorList()

	if m.Version != 1 {
		errs.AddValidation("version", fmt.Sprintf("unsupported manifest version %d", m.Version),
			"This release understands manifest version 1.")
	}
	if m.Profile != ProfileDev && m.Profile != ProfileProd {
		errs.Add(&UserError{
			Code:       ErrCodeProfileUnknown,
			Message:    fmt.Sprintf("unknown profile %q", m.Profile),
			Context:    "profile",
			Suggestion: "Use 'dev' or 'prod'.",
		})
	}
	for name := range m.Environments {
		if name != ProfileDev && name != ProfileProd {
			errs.AddValidation("environments", fmt.Sprintf("unknown environment %q", name),
				"Only 'dev' and 'prod' environments are supported.")
		}
	}

	return errs.AsError()
}

// Sections returns the raw provider sections for step compilation.
func (m *Manifest) Sections() map[string]interface{} {
	return m.sections
}

// ActiveEnvironment resolves the environment for the selected profile,
// falling back to built-in sizing for fields the manifest leaves unset.
func (m *Manifest) ActiveEnvironment() Environment {
	env := defaultEnvironments[m.Profile]
	if override, ok := m.Environments[m.Profile]; ok {
		if override.JavaOpts != "" {
			env.JavaOpts = override.JavaOpts
		}
		if override.DBPoolSize != 0 {
			env.DBPoolSize = override.DBPoolSize
		}
	}
	return env
}
