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

// Package exttrigger provides an execution context whose cycles are clocked
// from outside. Every Tick releases at most one cycle on the context's own
// goroutine; ticks that arrive while a cycle is pending or running coalesce.
package exttrigger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// ExecutionContext is the ExtTrigExecutionContext.
type ExecutionContext struct {
	*executioncontext.Base

	cond   *sync.Cond
	done   chan struct{}
	cycles atomic.Uint64
	mu     sync.Mutex
	ticked bool
}

var _ executioncontext.ExecutionContext = (*ExecutionContext)(nil)

// New creates a stopped externally clocked execution context.
func New(cfg executioncontext.Config) (*ExecutionContext, error) {
	base, err := executioncontext.NewBase(cfg, constants.ExtTrigExecutionContextType, rtc.Periodic)
	if err != nil {
		return nil, err
	}

	ec := &ExecutionContext{Base: base}
	ec.cond = sync.NewCond(&ec.mu)

	base.SetHooks(executioncontext.Hooks{
		OnStarted:  ec.spawn,
		OnStopping: ec.join,
		// nobody else clocks the context while a lifecycle call blocks
		OnWaitingTransition: func() { ec.Tick() },
	})

	return ec, nil
}

// Tick releases one cycle. Ticks issued while a cycle is already pending
// are merged into it.
func (e *ExecutionContext) Tick() rtc.ReturnCode {
	if !e.IsRunning() {
		return rtc.PreconditionNotMet
	}

	e.mu.Lock()
	e.ticked = true
	e.cond.Signal()
	e.mu.Unlock()

	return rtc.OK
}

// Cycles returns the number of completed cycles since creation.
func (e *ExecutionContext) Cycles() uint64 {
	return e.cycles.Load()
}

func (e *ExecutionContext) spawn() {
	e.mu.Lock()
	e.ticked = false
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	go e.run(done)
}

func (e *ExecutionContext) join() {
	e.mu.Lock()
	e.cond.Broadcast()
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (e *ExecutionContext) run(done chan struct{}) {
	defer close(done)

	e.PinThread()
	worker := e.Worker()

	for {
		if !e.awaitTick() {
			return
		}

		worker.InvokeWorkerPreDo()
		started := time.Now()
		worker.InvokeWorkerDo()
		worker.InvokeWorkerPostDo()
		elapsed := time.Since(started)

		e.cycles.Add(1)
		e.RecordCycle(elapsed)

		if !e.Sleep(e.Period() - elapsed) {
			return
		}
	}
}

// awaitTick blocks until a tick arrives and consumes it. It returns false
// once the context left RUNNING.
func (e *ExecutionContext) awaitTick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for !e.ticked && e.IsRunning() {
		e.cond.Wait()
	}
	if !e.IsRunning() {
		return false
	}
	e.ticked = false

	return true
}

// Register adds the externally clocked factory to r.
func Register(r *executioncontext.Registry) error {
	return r.Register(constants.ExtTrigExecutionContextType, func(cfg executioncontext.Config) (executioncontext.ExecutionContext, error) {
		return New(cfg)
	})
}
