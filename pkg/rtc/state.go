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

import (
	"fmt"
	"strings"
)

// LifeCycleState is the state of a component as seen by one execution context.
type LifeCycleState int

const (
	// CreatedState is the state of a component before it is first driven.
	CreatedState LifeCycleState = iota
	// InactiveState is the initial state after binding and the only state reachable after reset.
	InactiveState
	// ActiveState means the component's OnExecute runs every cycle.
	ActiveState
	// ErrorState is entered when a callback fails. It is left only through reset.
	ErrorState
)

// LifeCycleStates lists the states driven by the component state machine.
var LifeCycleStates = []LifeCycleState{CreatedState, InactiveState, ActiveState, ErrorState}

func (s LifeCycleState) String() string {
	switch s {
	case CreatedState:
		return "CREATED"
	case InactiveState:
		return "INACTIVE"
	case ActiveState:
		return "ACTIVE"
	case ErrorState:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExecutionKind describes how an execution context drives its components.
type ExecutionKind int

const (
	// Periodic execution contexts run their cycle at a fixed rate.
	Periodic ExecutionKind = iota
	// EventDriven execution contexts run their cycle in response to events.
	EventDriven
	// Other covers externally clocked schemes such as simulators.
	Other
)

func (k ExecutionKind) String() string {
	switch k {
	case Periodic:
		return "PERIODIC"
	case EventDriven:
		return "EVENT_DRIVEN"
	case Other:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// ParseExecutionKind converts a kind name back into an ExecutionKind.
func ParseExecutionKind(name string) (ExecutionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "PERIODIC":
		return Periodic, nil
	case "EVENT_DRIVEN":
		return EventDriven, nil
	case "OTHER":
		return Other, nil
	}

	return Other, fmt.Errorf("unknown execution kind %q", name)
}
