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

// Package periodic provides the self-threaded periodic execution context. It
// owns one goroutine that runs a cycle over all bound components at the
// configured rate.
package periodic

import (
	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// ExecutionContext is the PeriodicExecutionContext.
type ExecutionContext struct {
	*executioncontext.Base

	loop *Loop
}

var _ executioncontext.ExecutionContext = (*ExecutionContext)(nil)

// New creates a stopped periodic execution context.
func New(cfg executioncontext.Config) (*ExecutionContext, error) {
	base, err := executioncontext.NewBase(cfg, constants.PeriodicExecutionContextType, rtc.Periodic)
	if err != nil {
		return nil, err
	}

	worker := base.Worker()
	ec := &ExecutionContext{
		Base: base,
		loop: NewLoop(base, worker.InvokeWorkerPreDo, worker.InvokeWorkerDo, worker.InvokeWorkerPostDo),
	}
	base.SetHooks(executioncontext.Hooks{
		OnStarted:  ec.loop.Start,
		OnStopping: ec.loop.Stop,
	})

	return ec, nil
}

// Cycles returns the number of completed cycles since creation.
func (e *ExecutionContext) Cycles() uint64 {
	return e.loop.Cycles()
}

// Register adds the periodic factory to r.
func Register(r *executioncontext.Registry) error {
	return r.Register(constants.PeriodicExecutionContextType, func(cfg executioncontext.Config) (executioncontext.ExecutionContext, error) {
		return New(cfg)
	})
}
