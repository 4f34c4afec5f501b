// Package precheck provides host precondition steps that run before any
// mutating step: privilege, resource advisories, and dependency presence.
package precheck

import (
	"fmt"
)

// Defaults for host resource advisories.
const (
	DefaultMinMemoryGiB = 2
	DefaultMinDiskGiB   = 10
	DefaultDiskPath     = "/"
)

// Config represents the precheck section of the manifest.
type Config struct {
	MinMemoryGiB       int
	MinDiskGiB         int
	DiskPath           string
	DependencyManifest string // Optional path whose absence is a warning
}

// ParseConfig parses the precheck configuration from a raw map.
// An absent section still yields the defaults: prechecks always run.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{
		MinMemoryGiB: DefaultMinMemoryGiB,
		MinDiskGiB:   DefaultMinDiskGiB,
		DiskPath:     DefaultDiskPath,
	}
	if raw == nil {
		return cfg, nil
	}

	if v, ok := raw["min_memory_gb"]; ok {
		n, ok := v.(int)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("min_memory_gb must be a positive integer")
		}
		cfg.MinMemoryGiB = n
	}

	if v, ok := raw["min_disk_gb"]; ok {
		n, ok := v.(int)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("min_disk_gb must be a positive integer")
		}
		cfg.MinDiskGiB = n
	}

	if v, ok := raw["disk_path"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("disk_path must be a string")
		}
		cfg.DiskPath = s
	}

	if v, ok := raw["dependency_manifest"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("dependency_manifest must be a string")
		}
		cfg.DependencyManifest = s
	}

	return cfg, nil
}
