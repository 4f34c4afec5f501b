// Package script runs operator-supplied scripts as provisioning steps.
package script

import (
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/validation"
)

// DefaultInterpreter runs scripts that declare no interpreter of their own.
const DefaultInterpreter = "/bin/bash"

// Script is one delegated script invocation.
type Script struct {
	Path        string
	Interpreter string
	Args        []string
	Creates     string             // If set, existence of this path marks the script done
	After       []provision.StepID // Extra step dependencies
}

// Config represents the script section of the manifest.
type Config struct {
	Scripts []Script
}

// ParseConfig parses the script configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{Scripts: make([]Script, 0)}

	v, ok := raw["scripts"]
	if !ok {
		return cfg, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("scripts must be a list")
	}

	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("script %d must be an object", i)
		}
		script, err := parseScript(entry)
		if err != nil {
			return nil, fmt.Errorf("script %d: %w", i, err)
		}
		cfg.Scripts = append(cfg.Scripts, script)
	}
	return cfg, nil
}

func parseScript(raw map[string]interface{}) (Script, error) {
	path, ok := raw["path"].(string)
	if !ok || path == "" {
		return Script{}, fmt.Errorf("path is required")
	}
	if err := validation.ValidatePath(path); err != nil {
		return Script{}, err
	}

	script := Script{Path: path, Interpreter: DefaultInterpreter}

	if interpreter, ok := raw["interpreter"].(string); ok && interpreter != "" {
		if err := validation.ValidatePath(interpreter); err != nil {
			return Script{}, err
		}
		script.Interpreter = interpreter
	}

	if rawArgs, ok := raw["args"]; ok {
		list, ok := rawArgs.([]interface{})
		if !ok {
			return Script{}, fmt.Errorf("args must be a list")
		}
		for _, a := range list {
			arg, ok := a.(string)
			if !ok {
				return Script{}, fmt.Errorf("args must be strings")
			}
			script.Args = append(script.Args, arg)
		}
	}

	if creates, ok := raw["creates"].(string); ok && creates != "" {
		if err := validation.ValidatePath(creates); err != nil {
			return Script{}, err
		}
		script.Creates = creates
	}

	if rawAfter, ok := raw["after"]; ok {
		list, ok := rawAfter.([]interface{})
		if !ok {
			return Script{}, fmt.Errorf("after must be a list")
		}
		for _, a := range list {
			name, ok := a.(string)
			if !ok {
				return Script{}, fmt.Errorf("after entries must be strings")
			}
			id, err := provision.NewStepID(name)
			if err != nil {
				return Script{}, fmt.Errorf("after entry %q: %w", name, err)
			}
			script.After = append(script.After, id)
		}
	}

	return script, nil
}
