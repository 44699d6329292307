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
	"github.com/united-manufacturing-hub/component-runtime/pkg/latency"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// ExecutionContext drives a set of components through their lifecycle.
//
// Lifecycle operations return immediately after the transition was requested
// unless a synchronous transition mode is configured; the transition itself
// is committed by the next cycle.
type ExecutionContext interface {
	Name() string
	TypeName() string
	Handle() rtc.ExecutionContextHandle

	Start() rtc.ReturnCode
	Stop() rtc.ReturnCode
	IsRunning() bool
	// Tick runs or schedules one cycle. Contexts that drive themselves
	// return rtc.Unsupported.
	Tick() rtc.ReturnCode

	GetRate() float64
	SetRate(rate float64) rtc.ReturnCode
	GetKind() rtc.ExecutionKind
	GetProfile() Profile

	AddComponent(comp rtc.Component) rtc.ReturnCode
	RemoveComponent(comp rtc.Component) rtc.ReturnCode
	ActivateComponent(comp rtc.Component) rtc.ReturnCode
	DeactivateComponent(comp rtc.Component) rtc.ReturnCode
	ResetComponent(comp rtc.Component) rtc.ReturnCode
	GetComponentState(comp rtc.Component) rtc.LifeCycleState
	Components() []rtc.Component

	CycleLatency() latency.Summary
}
