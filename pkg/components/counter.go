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

// Package components contains built-in components used by the ecd binary and
// by tests.
package components

import (
	"sync"

	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// Counter records every callback it receives. Results of individual callbacks
// can be overridden to exercise error handling.
type Counter struct {
	rtc.ComponentBase

	results   map[string]rtc.ReturnCode
	panics    map[string]bool
	counts    map[string]int
	onExecute func(ec rtc.ExecutionContextHandle)
	events    []string
	mu        sync.Mutex
}

// NewCounter creates a counter component called name.
func NewCounter(name string) *Counter {
	return &Counter{
		ComponentBase: rtc.ComponentBase{Name: name},
		results:       make(map[string]rtc.ReturnCode),
		panics:        make(map[string]bool),
		counts:        make(map[string]int),
	}
}

// SetResult makes callback return rc from now on.
func (c *Counter) SetResult(callback string, rc rtc.ReturnCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[callback] = rc
}

// SetPanic makes callback panic from now on (or stop panicking).
func (c *Counter) SetPanic(callback string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panics[callback] = enabled
}

// SetExecuteHook installs fn to run at the start of every OnExecute, outside
// the counter's lock.
func (c *Counter) SetExecuteHook(fn func(ec rtc.ExecutionContextHandle)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExecute = fn
}

// HoldNextExecute makes the next OnExecute block until release is called.
// entered is closed once that OnExecute started. It replaces any execute hook.
func (c *Counter) HoldNextExecute() (entered <-chan struct{}, release func()) {
	started := make(chan struct{})
	released := make(chan struct{})

	var hold, done sync.Once
	c.SetExecuteHook(func(rtc.ExecutionContextHandle) {
		hold.Do(func() {
			close(started)
			<-released
		})
	})

	return started, func() { done.Do(func() { close(released) }) }
}

// Count returns how often callback ran.
func (c *Counter) Count(callback string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[callback]
}

// Executions returns how often OnExecute ran.
func (c *Counter) Executions() int {
	return c.Count(executioncontext.CallbackOnExecute)
}

// Events returns the callbacks received so far, in order.
func (c *Counter) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.events))
	copy(out, c.events)

	return out
}

// ResetCounts clears the recorded counts and events.
func (c *Counter) ResetCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
	c.events = nil
}

func (c *Counter) record(callback string) rtc.ReturnCode {
	c.mu.Lock()
	c.counts[callback]++
	c.events = append(c.events, callback)
	rc, ok := c.results[callback]
	shouldPanic := c.panics[callback]
	c.mu.Unlock()

	if shouldPanic {
		panic(c.Name + ": injected panic in " + callback)
	}
	if !ok {
		return rtc.OK
	}

	return rc
}

func (c *Counter) OnStartup(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnStartup)
}

func (c *Counter) OnShutdown(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnShutdown)
}

func (c *Counter) OnActivated(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnActivated)
}

func (c *Counter) OnDeactivated(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnDeactivated)
}

func (c *Counter) OnAborting(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnAborting)
}

func (c *Counter) OnError(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnError)
}

func (c *Counter) OnReset(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnReset)
}

func (c *Counter) OnExecute(ec rtc.ExecutionContextHandle) rtc.ReturnCode {
	c.mu.Lock()
	hook := c.onExecute
	c.mu.Unlock()

	if hook != nil {
		hook(ec)
	}

	return c.record(executioncontext.CallbackOnExecute)
}

func (c *Counter) OnStateUpdate(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnStateUpdate)
}

func (c *Counter) OnRateChanged(rtc.ExecutionContextHandle) rtc.ReturnCode {
	return c.record(executioncontext.CallbackOnRateChanged)
}
