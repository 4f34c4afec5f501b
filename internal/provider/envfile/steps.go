package envfile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"gopkg.in/ini.v1"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// loadOptions reads env-style files: no sections, '=' on write, no padding.
var loadOptions = ini.LoadOptions{
	KeyValueDelimiterOnWrite: "=",
}

func init() {
	// Env files are consumed by the shell; "KEY = VALUE" would break them.
	ini.PrettyFormat = false
}

// UpsertStep merges managed keys into an env-style KEY=VALUE file. Keys
// already present are updated in place; re-running a converged host rewrites
// nothing, so the managed block appears exactly once no matter how often the
// run repeats.
type UpsertStep struct {
	path   string
	values map[string]string
	id     provision.StepID
	deps   []provision.StepID
	fs     ports.FileSystem
}

// NewUpsertStep creates a new UpsertStep.
func NewUpsertStep(path string, values map[string]string, fs ports.FileSystem, deps []provision.StepID) *UpsertStep {
	return &UpsertStep{
		path:   path,
		values: values,
		id:     provision.MustNewStepID("envfile:" + filepath.Base(path)),
		deps:   deps,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *UpsertStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *UpsertStep) DependsOn() []provision.StepID {
	return s.deps
}

// BackupPath returns where the previous file content is preserved.
func (s *UpsertStep) BackupPath() string {
	return s.path + ".bak"
}

// Check determines if every managed key already has its target value.
func (s *UpsertStep) Check(_ provision.RunContext) (provision.StepStatus, error) {
	if !s.fs.Exists(s.path) {
		return provision.StatusNeedsApply, nil
	}
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return provision.StatusUnknown, err
	}
	cfg, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return provision.StatusUnknown, err
	}

	section := cfg.Section(ini.DefaultSection)
	for key, want := range s.values {
		if !section.HasKey(key) || section.Key(key).String() != want {
			return provision.StatusNeedsApply, nil
		}
	}
	return provision.StatusSatisfied, nil
}

// Plan returns the diff for this step.
func (s *UpsertStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	if s.fs.Exists(s.path) {
		return provision.NewDiff(provision.DiffTypeModify, "envfile", s.path, "", ""), nil
	}
	return provision.NewDiff(provision.DiffTypeAdd, "envfile", s.path, "", ""), nil
}

// Apply merges the managed keys into the file, preserving foreign keys and
// backing up the previous content.
func (s *UpsertStep) Apply(_ provision.RunContext) error {
	var existing []byte
	if s.fs.Exists(s.path) {
		data, err := s.fs.ReadFile(s.path)
		if err != nil {
			return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot read environment file").
				WithUnderlying(err)
		}
		existing = data

		if err := s.fs.CopyFile(s.path, s.BackupPath()); err != nil {
			return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot back up environment file").
				WithUnderlying(err)
		}
	}

	cfg, err := ini.LoadSources(loadOptions, normalizeSource(existing))
	if err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot parse environment file").
			WithUnderlying(err).
			WithSuggestion("The file must contain KEY=VALUE lines.")
	}

	section := cfg.Section(ini.DefaultSection)
	for _, key := range sortedKeys(s.values) {
		section.Key(key).SetValue(s.values[key])
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot render environment file").
			WithUnderlying(err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot create configuration directory").
			WithUnderlying(err)
	}
	if err := s.fs.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return provision.NewStepError(provision.ErrCodeConfigWrite, s.id, "cannot write environment file").
			WithUnderlying(err).
			WithSuggestion("Check filesystem permissions and free space.")
	}
	return nil
}

// Compensation describes how to undo the upsert.
func (s *UpsertStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("restore %s from %s", s.path, s.BackupPath()),
	}
}

// normalizeSource hands ini an empty source when the file does not exist yet.
func normalizeSource(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Ensure UpsertStep records a compensating action.
var _ provision.CompensableStep = (*UpsertStep)(nil)
