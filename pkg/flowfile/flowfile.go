// Package flowfile loads flow definitions from YAML and compiles them
// into runnable sessions.
package flowfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Flow is the top-level document of a flow definition file.
type Flow struct {
	Name    string      `yaml:"name"`
	Vars    []VarDef    `yaml:"vars"`
	Steps   []StepDef   `yaml:"steps"`
	Actions []ActionDef `yaml:"actions"`
}

// VarDef declares a typed variable. Type is one of string, bool, float,
// time, email, uri, true and one_of; one_of additionally takes options.
type VarDef struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Options []string `yaml:"options,omitempty"`
}

// StepDef declares a step, its gates and nested substeps.
type StepDef struct {
	Name     string    `yaml:"name"`
	Inputs   []string  `yaml:"inputs,omitempty"`
	Outputs  []string  `yaml:"outputs,omitempty"`
	Substeps []StepDef `yaml:"substeps,omitempty"`
}

// ActionDef declares an action. Bind lists the step names the action is
// routed to; an empty Bind makes it the flow's fallback action. Config is
// decoded per action type.
type ActionDef struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Bind   []string       `yaml:"bind,omitempty"`
	Config map[string]any `yaml:"config,omitempty"`
}

// Parse reads a flow definition from YAML.
func Parse(data []byte) (*Flow, error) {
	var flow Flow
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	if flow.Name == "" {
		return nil, fmt.Errorf("flow missing name")
	}
	if len(flow.Steps) == 0 {
		return nil, fmt.Errorf("flow %q has no steps", flow.Name)
	}
	return &flow, nil
}

// ParseFile reads a flow definition from a YAML file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Parse(data)
}
