package config

import (
	"strings"

	"github.com/groundwork-sh/groundwork/internal/ports"
)

// Loader loads the manifest from the filesystem.
type Loader struct {
	fs ports.FileSystem
}

// NewLoader creates a new Loader reading through the given filesystem.
func NewLoader(fs ports.FileSystem) *Loader {
	return &Loader{fs: fs}
}

// LoadManifest loads and parses the manifest at path.
func (l *Loader) LoadManifest(path string) (*Manifest, error) {
	if !l.fs.Exists(path) {
		return nil, NewConfigNotFoundError(path)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		// Translate raw YAML errors into operator-facing messages.
		if strings.Contains(err.Error(), "yaml:") || strings.Contains(err.Error(), "unmarshal") {
			return nil, NewYAMLParseError(path, err)
		}
		return nil, err
	}
	return manifest, nil
}
