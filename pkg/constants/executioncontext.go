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

package constants

import "time"

const (
	// DefaultRate is the execution rate (cycles per second) used when an
	// execution context is configured without a "rate" property.
	DefaultRate = 1000.0

	// DefaultTransitionTimeout bounds how long a synchronous lifecycle
	// operation waits for its transition to be committed.
	DefaultTransitionTimeout = 500 * time.Millisecond

	// MinTransitionPollInterval is the first poll interval of a synchronous
	// lifecycle operation. Subsequent polls back off exponentially.
	MinTransitionPollInterval = 100 * time.Microsecond

	// MaxTransitionPollInterval caps the poll interval of a synchronous lifecycle operation.
	MaxTransitionPollInterval = 20 * time.Millisecond

	// StarvationPeriods is the number of periods without a completed cycle
	// after which an execution context is considered starved.
	StarvationPeriods = 50

	// MinStarvationThreshold keeps fast execution contexts from reporting
	// starvation on ordinary scheduler jitter.
	MinStarvationThreshold = 2 * time.Second

	// LatencyWindow is how long a cycle duration stays in the latency window.
	LatencyWindow = 1 * time.Minute

	// LatencyCullInterval is how often expired cycle durations are dropped.
	LatencyCullInterval = 10 * time.Second
)

// Execution context type names understood by the registry.
const (
	PeriodicExecutionContextType   = "PeriodicExecutionContext"
	ExtTrigExecutionContextType    = "ExtTrigExecutionContext"
	SimulatorExecutionContextType  = "SimulatorExecutionContext"
	MultilayerExecutionContextType = "MultilayerCompositeExecutionContext"
)

// Property keys understood by the execution contexts.
const (
	PropRate              = "rate"
	PropSyncTransition    = "sync_transition"
	PropSyncActivation    = "sync_activation"
	PropSyncDeactivation  = "sync_deactivation"
	PropSyncReset         = "sync_reset"
	PropTransitionTimeout = "transition_timeout"
	PropCPUAffinity       = "cpu_affinity"
	PropMembers           = "members"
	PropThreads           = "threads"
	PropKind              = "kind"
)
