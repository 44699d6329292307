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

package executioncontext

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// Worker is the core shared by every execution context. It owns the ordered
// list of component adapters and runs the three cycle phases over them.
//
// Binding changes requested while the worker is running are queued and
// applied at the start of the next pre phase, so a cycle always runs over a
// fixed set of adapters.
type Worker struct {
	logger  *zap.SugaredLogger
	name    string
	comps   []*ComponentStateMachine
	added   []*ComponentStateMachine
	removed []*ComponentStateMachine
	cycle   []*ComponentStateMachine
	handle  rtc.ExecutionContextHandle
	running bool
	mu      sync.Mutex
}

// NewWorker creates an empty, stopped worker.
func NewWorker(name string, handle rtc.ExecutionContextHandle, log *zap.SugaredLogger) *Worker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Worker{
		name:   name,
		handle: handle,
		logger: log,
	}
}

// Handle returns the handle passed to component callbacks.
func (w *Worker) Handle() rtc.ExecutionContextHandle {
	return w.handle
}

// IsRunning reports whether Start was called without a matching Stop.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.running
}

// Start marks the worker running and calls OnStartup on every bound component.
func (w *Worker) Start() {
	w.mu.Lock()
	w.running = true
	adapters := w.bound()
	w.mu.Unlock()

	for _, a := range adapters {
		a.OnStartup()
	}
}

// Stop marks the worker stopped and calls OnShutdown on every bound component.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.running = false
	w.applyPending()
	adapters := w.bound()
	w.mu.Unlock()

	for _, a := range adapters {
		a.OnShutdown()
	}
}

// AddComponent binds comp in INACTIVE.
func (w *Worker) AddComponent(comp rtc.Component) rtc.ReturnCode {
	if comp == nil {
		return rtc.BadParameter
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.find(comp) != nil {
		w.logger.Debugf("Component %s is already bound", comp.InstanceName())

		return rtc.BadParameter
	}

	adapter := NewComponentStateMachine(w.handle, comp, w.logger)
	adapter.setContextName(w.name)

	if w.running {
		w.added = append(w.added, adapter)
	} else {
		w.comps = append(w.comps, adapter)
	}

	return rtc.OK
}

// RemoveComponent unbinds comp. A component that is ACTIVE or about to become
// ACTIVE must be deactivated first.
func (w *Worker) RemoveComponent(comp rtc.Component) rtc.ReturnCode {
	if comp == nil {
		return rtc.BadParameter
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	adapter := w.find(comp)
	if adapter == nil {
		return rtc.BadParameter
	}
	if adapter.IsCurrentState(rtc.ActiveState) || adapter.IsNextState(rtc.ActiveState) {
		return rtc.PreconditionNotMet
	}

	if idx := slices.Index(w.added, adapter); idx >= 0 {
		w.added = slices.Delete(w.added, idx, idx+1)
	} else if w.running {
		w.removed = append(w.removed, adapter)
	} else {
		w.comps = slices.DeleteFunc(w.comps, func(a *ComponentStateMachine) bool { return a == adapter })
	}
	metrics.DeleteComponentState(w.name, comp.InstanceName())

	return rtc.OK
}

// ActivateComponent requests INACTIVE -> ACTIVE.
func (w *Worker) ActivateComponent(comp rtc.Component) rtc.ReturnCode {
	return w.request(comp, rtc.InactiveState, rtc.ActiveState)
}

// DeactivateComponent requests ACTIVE -> INACTIVE.
func (w *Worker) DeactivateComponent(comp rtc.Component) rtc.ReturnCode {
	return w.request(comp, rtc.ActiveState, rtc.InactiveState)
}

// ResetComponent requests ERROR -> INACTIVE.
func (w *Worker) ResetComponent(comp rtc.Component) rtc.ReturnCode {
	return w.request(comp, rtc.ErrorState, rtc.InactiveState)
}

// request checks and arms a transition under the worker lock, so it cannot
// interleave with RemoveComponent.
func (w *Worker) request(comp rtc.Component, from, to rtc.LifeCycleState) rtc.ReturnCode {
	if comp == nil {
		return rtc.BadParameter
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	adapter := w.find(comp)
	if adapter == nil {
		return rtc.BadParameter
	}
	if !adapter.IsCurrentState(from) {
		return rtc.PreconditionNotMet
	}
	adapter.GoTo(to)

	return rtc.OK
}

// GetComponentState returns the committed state of comp, or CREATED when
// comp is not bound.
func (w *Worker) GetComponentState(comp rtc.Component) rtc.LifeCycleState {
	adapter := w.Adapter(comp)
	if adapter == nil {
		return rtc.CreatedState
	}

	return adapter.GetState()
}

// Adapter returns the adapter bound to comp, including adapters queued for
// the next cycle, or nil.
func (w *Worker) Adapter(comp rtc.Component) *ComponentStateMachine {
	if comp == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.find(comp)
}

// Components returns the bound components in binding order.
func (w *Worker) Components() []rtc.Component {
	w.mu.Lock()
	adapters := w.bound()
	w.mu.Unlock()

	out := make([]rtc.Component, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, a.Component())
	}

	return out
}

// BeginCycle applies queued binding changes and freezes the adapter set for
// the cycle. It returns the frozen set.
func (w *Worker) BeginCycle() []*ComponentStateMachine {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.applyPending()
	w.cycle = slices.Clone(w.comps)

	return slices.Clone(w.cycle)
}

// CycleAdapters returns the adapter set frozen by the last BeginCycle.
func (w *Worker) CycleAdapters() []*ComponentStateMachine {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.cycle)
}

// InvokeWorkerPreDo starts a cycle and runs the pre phase of every adapter.
func (w *Worker) InvokeWorkerPreDo() {
	for _, a := range w.BeginCycle() {
		a.WorkerPreDo()
	}
}

// InvokeWorkerDo runs the do phase of every adapter of the current cycle.
func (w *Worker) InvokeWorkerDo() {
	for _, a := range w.CycleAdapters() {
		a.WorkerDo()
	}
}

// InvokeWorkerPostDo runs the post phase of every adapter of the current cycle.
func (w *Worker) InvokeWorkerPostDo() {
	for _, a := range w.CycleAdapters() {
		a.WorkerPostDo()
	}
}

// InvokeWorker runs one complete cycle.
func (w *Worker) InvokeWorker() {
	w.InvokeWorkerPreDo()
	w.InvokeWorkerDo()
	w.InvokeWorkerPostDo()
}

// RateChanged calls OnRateChanged on every bound component.
func (w *Worker) RateChanged() {
	w.mu.Lock()
	adapters := w.bound()
	w.mu.Unlock()

	for _, a := range adapters {
		a.OnRateChanged()
	}
}

// IsAllCurrentState reports whether every bound component is in state.
// It is true for an empty worker.
func (w *Worker) IsAllCurrentState(state rtc.LifeCycleState) bool {
	return w.all(func(a *ComponentStateMachine) bool { return a.IsCurrentState(state) })
}

// IsAllNextState reports whether every bound component heads to state.
func (w *Worker) IsAllNextState(state rtc.LifeCycleState) bool {
	return w.all(func(a *ComponentStateMachine) bool { return a.IsNextState(state) })
}

// IsOneOfCurrentState reports whether at least one bound component is in state.
func (w *Worker) IsOneOfCurrentState(state rtc.LifeCycleState) bool {
	return !w.all(func(a *ComponentStateMachine) bool { return !a.IsCurrentState(state) })
}

// IsOneOfNextState reports whether at least one bound component heads to state.
func (w *Worker) IsOneOfNextState(state rtc.LifeCycleState) bool {
	return !w.all(func(a *ComponentStateMachine) bool { return !a.IsNextState(state) })
}

func (w *Worker) all(pred func(a *ComponentStateMachine) bool) bool {
	w.mu.Lock()
	adapters := w.bound()
	w.mu.Unlock()

	for _, a := range adapters {
		if !pred(a) {
			return false
		}
	}

	return true
}

// bound lists committed and queued adapters, minus queued removals.
// Callers hold w.mu.
func (w *Worker) bound() []*ComponentStateMachine {
	out := make([]*ComponentStateMachine, 0, len(w.comps)+len(w.added))
	for _, a := range w.comps {
		if !slices.Contains(w.removed, a) {
			out = append(out, a)
		}
	}

	return append(out, w.added...)
}

// find returns the bound adapter of comp. Callers hold w.mu.
func (w *Worker) find(comp rtc.Component) *ComponentStateMachine {
	for _, a := range w.bound() {
		if a.IsEquivalent(comp) {
			return a
		}
	}

	return nil
}

// applyPending moves queued binding changes into the committed list.
// Callers hold w.mu.
func (w *Worker) applyPending() {
	if len(w.removed) == 0 && len(w.added) == 0 {
		return
	}

	for _, r := range w.removed {
		w.comps = slices.DeleteFunc(w.comps, func(a *ComponentStateMachine) bool { return a == r })
	}
	w.comps = append(w.comps, w.added...)
	w.removed = nil
	w.added = nil
}
