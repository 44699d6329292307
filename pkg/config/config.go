// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/tiendc/go-deepcopy"
)

// FullConfig is the content of the configuration file.
type FullConfig struct {
	Agent             AgentConfig              `yaml:"agent"`             // Process settings, require a restart to take effect
	Components        []ComponentConfig        `yaml:"components"`        // Components to create, in dependency order
	ExecutionContexts []ExecutionContextConfig `yaml:"executionContexts"` // Execution contexts and their bound components
}

type AgentConfig struct {
	MetricsPort int     `yaml:"metricsPort"`           // Port to expose metrics on
	APIPort     int     `yaml:"apiPort"`               // Port of the admin API
	DefaultRate float64 `yaml:"defaultRate,omitempty"` // Rate of contexts configured without one
}

// ComponentConfig describes one component instance.
type ComponentConfig struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind,omitempty"`     // counter (default) or composite
	Members  []string `yaml:"members,omitempty"`  // Members of a composite, defined earlier in the list
	Activate bool     `yaml:"activate,omitempty"` // Activate on every context the component is bound to
}

// ExecutionContextConfig describes one execution context.
type ExecutionContextConfig struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Owner      string            `yaml:"owner,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
	Components []string          `yaml:"components,omitempty"` // Components bound at startup, in order
	AutoStart  *bool             `yaml:"autoStart,omitempty"`  // Defaults to true
}

// ShouldAutoStart reports whether the context is started with the process.
func (c ExecutionContextConfig) ShouldAutoStart() bool {
	return c.AutoStart == nil || *c.AutoStart
}

// Clone returns a deep copy of the config.
func (c FullConfig) Clone() FullConfig {
	var clone FullConfig
	if err := deepcopy.Copy(&clone, &c); err != nil {
		return c
	}

	return clone
}
