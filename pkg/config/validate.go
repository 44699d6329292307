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
	"errors"
	"fmt"
)

// Validate checks names and references. Composite members must be declared
// before the composite.
func (c FullConfig) Validate() error {
	var errs []error

	if c.Agent.DefaultRate <= 0 {
		errs = append(errs, fmt.Errorf("agent.defaultRate must be positive, got %v", c.Agent.DefaultRate))
	}

	declared := make(map[string]struct{}, len(c.Components))
	for i, comp := range c.Components {
		if comp.Name == "" {
			errs = append(errs, fmt.Errorf("components[%d]: name is required", i))

			continue
		}
		if _, dup := declared[comp.Name]; dup {
			errs = append(errs, fmt.Errorf("components[%d]: duplicate name %q", i, comp.Name))
		}
		for _, m := range comp.Members {
			if _, ok := declared[m]; !ok {
				errs = append(errs, fmt.Errorf("component %q: member %q must be declared before it", comp.Name, m))
			}
		}
		declared[comp.Name] = struct{}{}
	}

	contexts := make(map[string]struct{}, len(c.ExecutionContexts))
	for i, ec := range c.ExecutionContexts {
		if ec.Name == "" {
			errs = append(errs, fmt.Errorf("executionContexts[%d]: name is required", i))

			continue
		}
		if _, dup := contexts[ec.Name]; dup {
			errs = append(errs, fmt.Errorf("executionContexts[%d]: duplicate name %q", i, ec.Name))
		}
		contexts[ec.Name] = struct{}{}

		if ec.Type == "" {
			errs = append(errs, fmt.Errorf("execution context %q: type is required", ec.Name))
		}
		for _, name := range ec.Components {
			if _, ok := declared[name]; !ok {
				errs = append(errs, fmt.Errorf("execution context %q: unknown component %q", ec.Name, name))
			}
		}
	}

	return errors.Join(errs...)
}
