// Package docker provides steps that stand up the containerized ThingsBoard
// stack: engine group membership, the stack network, the compose file, and
// the deployment itself.
package docker

import (
	"fmt"
)

// Defaults for the compose deployment.
const (
	DefaultComposePath = "/opt/thingsboard/docker-compose.yml"
	DefaultProject     = "thingsboard"
	DefaultService     = "thingsboard"
)

// ComposeConfig describes the rendered compose deployment.
type ComposeConfig struct {
	Path        string
	Project     string
	Service     string
	Image       string
	Ports       []string
	Volumes     []string
	Environment map[string]string
}

// Config represents the docker section of the manifest.
type Config struct {
	Network   string
	GroupUser string // Optional: user to add to the docker group
	Compose   *ComposeConfig
}

// ParseConfig parses the docker configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{}

	if v, ok := raw["network"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("network must be a non-empty string")
		}
		cfg.Network = s
	}

	if v, ok := raw["group_user"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("group_user must be a string")
		}
		cfg.GroupUser = s
	}

	if v, ok := raw["compose"]; ok {
		section, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("compose must be an object")
		}
		compose, err := parseCompose(section)
		if err != nil {
			return nil, err
		}
		cfg.Compose = compose
	}

	return cfg, nil
}

func parseCompose(raw map[string]interface{}) (*ComposeConfig, error) {
	cfg := &ComposeConfig{
		Path:        DefaultComposePath,
		Project:     DefaultProject,
		Service:     DefaultService,
		Environment: make(map[string]string),
	}

	image, ok := raw["image"].(string)
	if !ok || image == "" {
		return nil, fmt.Errorf("compose.image is required")
	}
	cfg.Image = image

	if v, ok := raw["path"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("compose.path must be a string")
		}
		cfg.Path = s
	}
	if v, ok := raw["project"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("compose.project must be a string")
		}
		cfg.Project = s
	}
	if v, ok := raw["service"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("compose.service must be a string")
		}
		cfg.Service = s
	}

	var err error
	if cfg.Ports, err = stringList(raw, "ports"); err != nil {
		return nil, err
	}
	if cfg.Volumes, err = stringList(raw, "volumes"); err != nil {
		return nil, err
	}

	if v, ok := raw["environment"]; ok {
		section, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("compose.environment must be an object")
		}
		for key, val := range section {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("compose.environment.%s must be a string", key)
			}
			cfg.Environment[key] = s
		}
	}

	return cfg, nil
}

func stringList(raw map[string]interface{}, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("compose.%s must be a list", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("compose.%s entries must be strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
