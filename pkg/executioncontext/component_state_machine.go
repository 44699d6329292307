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
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
	"github.com/united-manufacturing-hub/component-runtime/pkg/sentry"
	"github.com/united-manufacturing-hub/component-runtime/pkg/statemachine"
)

// Callback names used in logs and metrics.
const (
	CallbackOnStartup     = "OnStartup"
	CallbackOnShutdown    = "OnShutdown"
	CallbackOnActivated   = "OnActivated"
	CallbackOnDeactivated = "OnDeactivated"
	CallbackOnAborting    = "OnAborting"
	CallbackOnError       = "OnError"
	CallbackOnReset       = "OnReset"
	CallbackOnExecute     = "OnExecute"
	CallbackOnStateUpdate = "OnStateUpdate"
	CallbackOnRateChanged = "OnRateChanged"
)

// ComponentStateMachine binds one component to one execution context. It maps
// the hooks of a lifecycle state machine onto the component's callbacks:
//
//	ACTIVE: entry=OnActivated do=OnExecute postDo=OnStateUpdate exit=OnDeactivated
//	ERROR:  entry=OnAborting  do=OnError                        exit=OnReset
//
// A non-OK result of OnActivated, OnReset, OnExecute, OnStateUpdate or
// OnRateChanged requests ERROR. The request is committed by the next pre phase.
type ComponentStateMachine struct {
	sm        *statemachine.StateMachine[rtc.LifeCycleState]
	component rtc.Component
	logger    *zap.SugaredLogger
	ecName    string
	handle    rtc.ExecutionContextHandle
}

// NewComponentStateMachine creates the adapter in INACTIVE.
func NewComponentStateMachine(handle rtc.ExecutionContextHandle, component rtc.Component, log *zap.SugaredLogger) *ComponentStateMachine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := &ComponentStateMachine{
		sm:        statemachine.New(rtc.LifeCycleStates...),
		component: component,
		handle:    handle,
		logger:    log.With("component", component.InstanceName()),
	}

	c.sm.SetEntryAction(rtc.ActiveState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnActivated() })
	c.sm.SetDoAction(rtc.ActiveState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnExecute() })
	c.sm.SetPostDoAction(rtc.ActiveState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnStateUpdate() })
	c.sm.SetExitAction(rtc.ActiveState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnDeactivated() })

	c.sm.SetEntryAction(rtc.ErrorState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnAborting() })
	c.sm.SetDoAction(rtc.ErrorState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnError() })
	c.sm.SetExitAction(rtc.ErrorState, func(statemachine.StateHolder[rtc.LifeCycleState]) { c.OnReset() })

	c.sm.SetStartState(statemachine.StateHolder[rtc.LifeCycleState]{
		Previous: rtc.CreatedState,
		Current:  rtc.InactiveState,
		Next:     rtc.InactiveState,
	})

	return c
}

// setContextName labels metrics emitted by this adapter.
func (c *ComponentStateMachine) setContextName(name string) {
	c.ecName = name
}

// Component returns the bound component.
func (c *ComponentStateMachine) Component() rtc.Component {
	return c.component
}

// IsEquivalent reports whether comp is the component bound to this adapter.
func (c *ComponentStateMachine) IsEquivalent(comp rtc.Component) bool {
	return comp != nil && c.component == comp
}

func (c *ComponentStateMachine) OnStartup() rtc.ReturnCode {
	return c.call(CallbackOnStartup, c.component.OnStartup)
}

func (c *ComponentStateMachine) OnShutdown() rtc.ReturnCode {
	return c.call(CallbackOnShutdown, c.component.OnShutdown)
}

func (c *ComponentStateMachine) OnActivated() rtc.ReturnCode {
	return c.callChecked(CallbackOnActivated, c.component.OnActivated)
}

func (c *ComponentStateMachine) OnDeactivated() rtc.ReturnCode {
	return c.call(CallbackOnDeactivated, c.component.OnDeactivated)
}

func (c *ComponentStateMachine) OnAborting() rtc.ReturnCode {
	return c.call(CallbackOnAborting, c.component.OnAborting)
}

func (c *ComponentStateMachine) OnError() rtc.ReturnCode {
	return c.call(CallbackOnError, c.component.OnError)
}

// OnReset runs as the exit hook of ERROR. A failure re-requests ERROR, which
// cancels the transition and keeps the component in ERROR.
func (c *ComponentStateMachine) OnReset() rtc.ReturnCode {
	return c.callChecked(CallbackOnReset, c.component.OnReset)
}

func (c *ComponentStateMachine) OnExecute() rtc.ReturnCode {
	return c.callChecked(CallbackOnExecute, c.component.OnExecute)
}

func (c *ComponentStateMachine) OnStateUpdate() rtc.ReturnCode {
	return c.callChecked(CallbackOnStateUpdate, c.component.OnStateUpdate)
}

func (c *ComponentStateMachine) OnRateChanged() rtc.ReturnCode {
	return c.callChecked(CallbackOnRateChanged, c.component.OnRateChanged)
}

// callChecked forwards a callback and requests ERROR when it does not return OK.
func (c *ComponentStateMachine) callChecked(name string, fn func(rtc.ExecutionContextHandle) rtc.ReturnCode) rtc.ReturnCode {
	ret := c.call(name, fn)
	if ret != rtc.OK {
		c.logger.Debugf("%s returned %s, requesting ERROR", name, ret)
		metrics.IncCallbackFailure(c.ecName, c.component.InstanceName(), name)
		c.sm.GoTo(rtc.ErrorState)
	}

	return ret
}

// call forwards a callback. A panic is recovered and turned into rtc.Error.
func (c *ComponentStateMachine) call(name string, fn func(rtc.ExecutionContextHandle) rtc.ReturnCode) (ret rtc.ReturnCode) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("%s panicked: %v", name, r)
			sentry.ReportComponentPanic(c.logger, c.ecName, c.component.InstanceName(), name, r)
			ret = rtc.Error
		}
	}()

	return fn(c.handle)
}

// WorkerPreDo commits a pending transition or runs the preDo hook.
func (c *ComponentStateMachine) WorkerPreDo() {
	c.sm.WorkerPre()
	metrics.SetComponentState(c.ecName, c.component.InstanceName(), c.sm.GetState())
}

// WorkerDo runs the do hook of the state committed by the last WorkerPreDo,
// even if that hook's cycle already requested ERROR.
func (c *ComponentStateMachine) WorkerDo() {
	c.sm.WorkerDo()
}

func (c *ComponentStateMachine) WorkerPostDo() {
	c.sm.WorkerPost()
}

// GoTo requests a transition, overwriting any earlier request.
func (c *ComponentStateMachine) GoTo(state rtc.LifeCycleState) {
	c.sm.GoTo(state)
}

func (c *ComponentStateMachine) GetState() rtc.LifeCycleState {
	return c.sm.GetState()
}

func (c *ComponentStateMachine) GetStates() statemachine.StateHolder[rtc.LifeCycleState] {
	return c.sm.GetStates()
}

func (c *ComponentStateMachine) IsCurrentState(state rtc.LifeCycleState) bool {
	return c.sm.IsIn(state)
}

func (c *ComponentStateMachine) IsNextState(state rtc.LifeCycleState) bool {
	return c.sm.IsNext(state)
}
