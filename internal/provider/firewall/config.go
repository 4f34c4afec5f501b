// Package firewall provides ufw steps opening the stack's ports.
package firewall

import (
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/validation"
)

// Config represents the firewall section of the manifest.
type Config struct {
	Ports  []Port
	Enable bool
}

// Port is a firewall rule target.
type Port struct {
	Number   int
	Protocol string // "tcp", "udp", or "" for both
}

// Rule returns the ufw argument for this port.
func (p Port) Rule() string {
	if p.Protocol != "" {
		return fmt.Sprintf("%d/%s", p.Number, p.Protocol)
	}
	return fmt.Sprintf("%d", p.Number)
}

// ParseConfig parses the firewall configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Ports:  make([]Port, 0),
		Enable: true,
	}

	if v, ok := raw["enable"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("enable must be a boolean")
		}
		cfg.Enable = b
	}

	if v, ok := raw["ports"]; ok {
		list, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("ports must be a list")
		}
		for _, item := range list {
			port, err := parsePort(item)
			if err != nil {
				return nil, err
			}
			cfg.Ports = append(cfg.Ports, port)
		}
	}

	return cfg, nil
}

func parsePort(raw interface{}) (Port, error) {
	switch v := raw.(type) {
	case int:
		if err := validation.ValidatePort(v); err != nil {
			return Port{}, err
		}
		return Port{Number: v}, nil
	case map[string]interface{}:
		number, ok := v["port"].(int)
		if !ok {
			return Port{}, fmt.Errorf("port entry must have an integer 'port'")
		}
		if err := validation.ValidatePort(number); err != nil {
			return Port{}, err
		}
		port := Port{Number: number}
		if proto, ok := v["protocol"].(string); ok {
			if proto != "tcp" && proto != "udp" {
				return Port{}, fmt.Errorf("protocol must be tcp or udp")
			}
			port.Protocol = proto
		}
		return port, nil
	default:
		return Port{}, fmt.Errorf("port must be an integer or object")
	}
}
