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

// Package multilayer provides the MultilayerCompositeExecutionContext. An
// owner goroutine runs the periodic loop; its do phase fans the cycle out to
// child tasks, one goroutine per layer, and joins them before the cycle ends.
//
// Components are assigned to a child when they are attached. The "members"
// property pins components to layers ("a,b|c,d" puts a and b on child 0, c
// and d on child 1); everything else is spread by a hash of its name.
// Members of a composite component follow their owner.
package multilayer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext/periodic"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// ExecutionContext is the MultilayerCompositeExecutionContext.
type ExecutionContext struct {
	*executioncontext.Base

	loop     *periodic.Loop
	layers   map[string]int
	index    map[rtc.Component]*executioncontext.ComponentStateMachine
	children []*childTask
	assigned map[rtc.Component]*childTask
	mu       sync.RWMutex
}

var _ executioncontext.ExecutionContext = (*ExecutionContext)(nil)

// New creates a stopped composite execution context.
func New(cfg executioncontext.Config) (*ExecutionContext, error) {
	base, err := executioncontext.NewBase(cfg, constants.MultilayerExecutionContextType, rtc.Periodic)
	if err != nil {
		return nil, err
	}

	layers, layerCount := parseMembers(base.GetProfile().Properties.Get(constants.PropMembers, ""))

	threads, err := childCount(base.GetProfile().Properties, layerCount)
	if err != nil {
		return nil, err
	}

	ec := &ExecutionContext{
		Base:     base,
		layers:   layers,
		index:    make(map[rtc.Component]*executioncontext.ComponentStateMachine),
		assigned: make(map[rtc.Component]*childTask),
	}
	for i := range threads {
		ec.children = append(ec.children, newChildTask(cfg.Name, i, ec.cycleIndex))
	}
	ec.loop = periodic.NewLoop(base, ec.beginCycle, ec.fanOut, nil)

	base.SetHooks(executioncontext.Hooks{
		OnStarted:  ec.start,
		OnStopping: ec.stop,
	})
	base.Logger().Debugf("Composite execution context uses %d child tasks", threads)

	return ec, nil
}

// parseMembers maps component names to layer indexes.
func parseMembers(raw string) (map[string]int, int) {
	layers := make(map[string]int)
	if strings.TrimSpace(raw) == "" {
		return layers, 0
	}

	groups := strings.Split(raw, "|")
	for i, group := range groups {
		for _, name := range strings.Split(group, ",") {
			if name = strings.TrimSpace(name); name != "" {
				layers[name] = i
			}
		}
	}

	return layers, len(groups)
}

// childCount picks the number of child tasks: the configured thread count,
// else the number of layers, else the number of logical CPUs.
func childCount(props rtc.Properties, layers int) (int, error) {
	threads, err := props.GetInt(constants.PropThreads, 0)
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", constants.PropThreads, err)
	}
	if threads < 0 {
		return 0, fmt.Errorf("property %s must not be negative", constants.PropThreads)
	}

	if threads == 0 && layers == 0 {
		threads, err = cpu.Counts(true)
		if err != nil || threads < 1 {
			threads = 1
		}
	}

	return max(threads, layers, 1), nil
}

// AddComponent binds comp and, for composites, every nested member, and
// assigns them to a child task.
func (e *ExecutionContext) AddComponent(comp rtc.Component) rtc.ReturnCode {
	if ret := e.Base.AddComponent(comp); ret != rtc.OK {
		return ret
	}

	child := e.childFor(comp)
	e.assign(comp, child)

	for _, member := range rtc.FlattenMembers(comp)[1:] {
		if e.Worker().Adapter(member) != nil {
			// bound earlier on its own; members run with their owner
			e.move(member, child)

			continue
		}
		if ret := e.Base.AddComponent(member); ret != rtc.OK {
			e.Logger().Debugf("Member %s of %s not bound: %s", member.InstanceName(), comp.InstanceName(), ret)

			continue
		}
		e.assign(member, child)
	}

	return rtc.OK
}

// RemoveComponent unbinds comp and drops it from its child task. Members of
// a composite stay bound until they are removed themselves.
func (e *ExecutionContext) RemoveComponent(comp rtc.Component) rtc.ReturnCode {
	if ret := e.Base.RemoveComponent(comp); ret != rtc.OK {
		return ret
	}

	e.mu.Lock()
	child := e.assigned[comp]
	delete(e.assigned, comp)
	e.mu.Unlock()

	if child != nil {
		child.unassign(comp)
	}

	return rtc.OK
}

// ChildCycleCounts returns the number of completed cycles per child task.
func (e *ExecutionContext) ChildCycleCounts() []uint64 {
	out := make([]uint64, len(e.children))
	for i, c := range e.children {
		out[i] = c.cycles.Load()
	}

	return out
}

// ChildComponents returns the instance names assigned to each child task.
func (e *ExecutionContext) ChildComponents() [][]string {
	out := make([][]string, len(e.children))
	for i, c := range e.children {
		for _, comp := range c.components() {
			out[i] = append(out[i], comp.InstanceName())
		}
	}

	return out
}

// Cycles returns the number of completed owner cycles.
func (e *ExecutionContext) Cycles() uint64 {
	return e.loop.Cycles()
}

func (e *ExecutionContext) childFor(comp rtc.Component) *childTask {
	if layer, ok := e.layers[comp.InstanceName()]; ok {
		return e.children[layer%len(e.children)]
	}

	return e.children[xxhash.Sum64String(comp.InstanceName())%uint64(len(e.children))]
}

func (e *ExecutionContext) assign(comp rtc.Component, child *childTask) {
	e.mu.Lock()
	e.assigned[comp] = child
	e.mu.Unlock()

	child.assign(comp)
}

// move reassigns an already bound comp to child.
func (e *ExecutionContext) move(comp rtc.Component, child *childTask) {
	e.mu.Lock()
	prev := e.assigned[comp]
	e.assigned[comp] = child
	e.mu.Unlock()

	if prev == child {
		return
	}
	if prev != nil {
		prev.unassign(comp)
	}
	child.assign(comp)
	e.Logger().Debugf("Moved %s to the child of its owner", comp.InstanceName())
}

// beginCycle applies pending binding changes and publishes the adapters of
// the cycle to the children.
func (e *ExecutionContext) beginCycle() {
	adapters := e.Worker().BeginCycle()

	index := make(map[rtc.Component]*executioncontext.ComponentStateMachine, len(adapters))
	for _, a := range adapters {
		index[a.Component()] = a
	}

	e.mu.Lock()
	e.index = index
	e.mu.Unlock()
}

func (e *ExecutionContext) cycleIndex() map[rtc.Component]*executioncontext.ComponentStateMachine {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.index
}

// fanOut releases every child and waits for all of them.
func (e *ExecutionContext) fanOut() {
	for _, c := range e.children {
		c.signal()
	}
	for _, c := range e.children {
		c.join()
	}
}

func (e *ExecutionContext) start() {
	for _, c := range e.children {
		c.spawn()
	}
	e.loop.Start()
}

func (e *ExecutionContext) stop() {
	e.loop.Stop()
	for _, c := range e.children {
		c.stop()
	}
}

// Register adds the composite factory to r.
func Register(r *executioncontext.Registry) error {
	return r.Register(constants.MultilayerExecutionContextType, func(cfg executioncontext.Config) (executioncontext.ExecutionContext, error) {
		return New(cfg)
	})
}
