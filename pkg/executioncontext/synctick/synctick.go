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

// Package synctick provides the SimulatorExecutionContext. It owns no
// goroutine: each Tick runs one full cycle on the caller's goroutine and
// returns once the cycle completed. Lifecycle operations tick on their own,
// so they return with the transition already committed.
package synctick

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// ExecutionContext is the SimulatorExecutionContext.
type ExecutionContext struct {
	*executioncontext.Base

	cycles atomic.Uint64
	tickMu sync.Mutex
}

var _ executioncontext.ExecutionContext = (*ExecutionContext)(nil)

// New creates a stopped synchronous tick execution context.
func New(cfg executioncontext.Config) (*ExecutionContext, error) {
	base, err := executioncontext.NewBase(cfg, constants.SimulatorExecutionContextType, rtc.Other)
	if err != nil {
		return nil, err
	}

	e := &ExecutionContext{Base: base}
	e.SetHooks(executioncontext.Hooks{
		// Stop returns only after an in-flight tick completed.
		OnStopping: func() {
			e.tickMu.Lock()
			e.tickMu.Unlock()
		},
	})

	return e, nil
}

// Tick runs one cycle and returns after it completed. Concurrent ticks are
// serialized.
func (e *ExecutionContext) Tick() rtc.ReturnCode {
	if !e.IsRunning() {
		return rtc.PreconditionNotMet
	}

	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if !e.IsRunning() {
		return rtc.PreconditionNotMet
	}

	worker := e.Worker()
	worker.InvokeWorkerPreDo()
	started := time.Now()
	worker.InvokeWorkerDo()
	worker.InvokeWorkerPostDo()

	e.cycles.Add(1)
	e.RecordCycle(time.Since(started))

	return rtc.OK
}

// Cycles returns the number of completed ticks since creation.
func (e *ExecutionContext) Cycles() uint64 {
	return e.cycles.Load()
}

// ActivateComponent requests ACTIVE and, when running, ticks once.
func (e *ExecutionContext) ActivateComponent(comp rtc.Component) rtc.ReturnCode {
	return e.transition(comp, e.Worker().ActivateComponent, rtc.ActiveState)
}

// DeactivateComponent requests INACTIVE and, when running, ticks once.
func (e *ExecutionContext) DeactivateComponent(comp rtc.Component) rtc.ReturnCode {
	return e.transition(comp, e.Worker().DeactivateComponent, rtc.InactiveState)
}

// ResetComponent requests INACTIVE from ERROR and, when running, ticks once.
func (e *ExecutionContext) ResetComponent(comp rtc.Component) rtc.ReturnCode {
	return e.transition(comp, e.Worker().ResetComponent, rtc.InactiveState)
}

// transition arms the request and drives it with one tick. It is OK only if
// the target was committed and no ERROR is pending.
func (e *ExecutionContext) transition(comp rtc.Component, request func(rtc.Component) rtc.ReturnCode, target rtc.LifeCycleState) rtc.ReturnCode {
	if ret := request(comp); ret != rtc.OK {
		return ret
	}
	if !e.IsRunning() {
		return rtc.OK
	}
	if ret := e.Tick(); ret != rtc.OK {
		// stopped between the request and the tick
		return rtc.OK
	}

	adapter := e.Worker().Adapter(comp)
	if adapter == nil {
		return rtc.Error
	}

	states := adapter.GetStates()
	if states.Current != target || states.Next == rtc.ErrorState {
		e.Logger().Debugf("Transition of %s to %s did not settle: %+v", comp.InstanceName(), target, states)

		return rtc.Error
	}

	return rtc.OK
}

// Register adds the simulator factory to r.
func Register(r *executioncontext.Registry) error {
	return r.Register(constants.SimulatorExecutionContextType, func(cfg executioncontext.Config) (executioncontext.ExecutionContext, error) {
		return New(cfg)
	})
}
