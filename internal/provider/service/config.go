// Package service provides systemd unit control steps.
package service

import (
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/validation"
)

// Unit represents one systemd unit to manage.
type Unit struct {
	Name   string
	Enable bool // Also enable at boot
}

// Config represents the service section of the manifest.
type Config struct {
	Units []Unit
}

// ParseConfig parses the service configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{Units: make([]Unit, 0)}

	v, ok := raw["units"]
	if !ok {
		return cfg, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("units must be a list")
	}

	for _, item := range list {
		unit, err := parseUnit(item)
		if err != nil {
			return nil, err
		}
		cfg.Units = append(cfg.Units, unit)
	}
	return cfg, nil
}

func parseUnit(raw interface{}) (Unit, error) {
	switch v := raw.(type) {
	case string:
		if err := validation.ValidateUnitName(v); err != nil {
			return Unit{}, err
		}
		return Unit{Name: v, Enable: true}, nil
	case map[string]interface{}:
		name, ok := v["name"].(string)
		if !ok {
			return Unit{}, fmt.Errorf("unit must have a name")
		}
		if err := validation.ValidateUnitName(name); err != nil {
			return Unit{}, err
		}
		unit := Unit{Name: name, Enable: true}
		if enable, ok := v["enable"].(bool); ok {
			unit.Enable = enable
		}
		return unit, nil
	default:
		return Unit{}, fmt.Errorf("unit must be a string or object")
	}
}
