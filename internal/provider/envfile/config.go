// Package envfile provides the idempotent KEY=VALUE upsert step for the
// ThingsBoard environment configuration file.
package envfile

import (
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/validation"
)

// DefaultPath is where the ThingsBoard deb install reads its environment.
const DefaultPath = "/etc/thingsboard/conf/thingsboard.conf"

// Config represents the envfile section of the manifest.
type Config struct {
	Path   string
	Values map[string]string
}

// ParseConfig parses the envfile configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Path:   DefaultPath,
		Values: make(map[string]string),
	}

	if v, ok := raw["path"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("path must be a string")
		}
		if err := validation.ValidatePath(s); err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		cfg.Path = s
	}

	if v, ok := raw["values"]; ok {
		section, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("values must be an object")
		}
		for key, val := range section {
			switch typed := val.(type) {
			case string:
				cfg.Values[key] = typed
			case int:
				cfg.Values[key] = fmt.Sprintf("%d", typed)
			case bool:
				cfg.Values[key] = fmt.Sprintf("%t", typed)
			default:
				return nil, fmt.Errorf("values.%s must be a scalar", key)
			}
		}
	}

	return cfg, nil
}
