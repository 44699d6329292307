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

package rtc

// ExecutionContextHandle identifies an execution context from the point of view
// of a component. It is passed to every lifecycle callback.
type ExecutionContextHandle int

// Component is the unit of computation driven by an execution context.
//
// Every callback receives the handle of the execution context that invoked it.
// A component that only cares about a few callbacks embeds ComponentBase and
// overrides the ones it needs.
//
// Return values of OnActivated, OnReset, OnExecute, OnStateUpdate and
// OnRateChanged drive the component into ERROR when they are not OK. All other
// return values are informational.
type Component interface {
	// InstanceName is the unique name of the component inside one process.
	InstanceName() string

	OnStartup(ec ExecutionContextHandle) ReturnCode
	OnShutdown(ec ExecutionContextHandle) ReturnCode
	OnActivated(ec ExecutionContextHandle) ReturnCode
	OnDeactivated(ec ExecutionContextHandle) ReturnCode
	OnAborting(ec ExecutionContextHandle) ReturnCode
	OnError(ec ExecutionContextHandle) ReturnCode
	OnReset(ec ExecutionContextHandle) ReturnCode
	OnExecute(ec ExecutionContextHandle) ReturnCode
	OnStateUpdate(ec ExecutionContextHandle) ReturnCode
	OnRateChanged(ec ExecutionContextHandle) ReturnCode
}

// CompositeComponent is a component that owns other components. Schedulers that
// place work on dedicated goroutines keep all members of a composite on the
// goroutine of their owner.
type CompositeComponent interface {
	Component
	Members() []Component
}

// ComponentBase implements every Component callback as a no-op returning OK.
type ComponentBase struct {
	Name string
}

// Ensure ComponentBase satisfies Component at compile time.
var _ Component = (*ComponentBase)(nil)

// InstanceName returns the configured name.
func (c *ComponentBase) InstanceName() string { return c.Name }

func (c *ComponentBase) OnStartup(ExecutionContextHandle) ReturnCode     { return OK }
func (c *ComponentBase) OnShutdown(ExecutionContextHandle) ReturnCode    { return OK }
func (c *ComponentBase) OnActivated(ExecutionContextHandle) ReturnCode   { return OK }
func (c *ComponentBase) OnDeactivated(ExecutionContextHandle) ReturnCode { return OK }
func (c *ComponentBase) OnAborting(ExecutionContextHandle) ReturnCode    { return OK }
func (c *ComponentBase) OnError(ExecutionContextHandle) ReturnCode       { return OK }
func (c *ComponentBase) OnReset(ExecutionContextHandle) ReturnCode       { return OK }
func (c *ComponentBase) OnExecute(ExecutionContextHandle) ReturnCode     { return OK }
func (c *ComponentBase) OnStateUpdate(ExecutionContextHandle) ReturnCode { return OK }
func (c *ComponentBase) OnRateChanged(ExecutionContextHandle) ReturnCode { return OK }

// FlattenMembers returns comp followed by every nested member of comp, depth first.
// Cycles in the ownership graph are ignored.
func FlattenMembers(comp Component) []Component {
	var out []Component
	seen := make(map[Component]struct{})

	var walk func(c Component)
	walk = func(c Component) {
		if c == nil {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)

		if composite, ok := c.(CompositeComponent); ok {
			for _, m := range composite.Members() {
				walk(m)
			}
		}
	}
	walk(comp)

	return out
}
