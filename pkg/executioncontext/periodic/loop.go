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

package periodic

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/starvationchecker"
)

// Phase is one step of a cycle.
type Phase func()

// Loop runs cycles on a dedicated goroutine at the rate of its Base:
//
//	pre; t0; do; post; t1; sleep(period - (t1 - t0))
//
// The sleep is cut short by Stop, a running cycle never is.
type Loop struct {
	base   *executioncontext.Base
	pre    Phase
	do     Phase
	post   Phase
	done   chan struct{}
	cycles atomic.Uint64
	mu     sync.Mutex
}

// NewLoop creates a loop over the given phases. Nil phases are skipped.
func NewLoop(base *executioncontext.Base, pre, do, post Phase) *Loop {
	return &Loop{
		base: base,
		pre:  pre,
		do:   do,
		post: post,
	}
}

// Start spawns the loop goroutine unless it is already running.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return
	}
	l.done = make(chan struct{})

	go l.run(l.done)
}

// Stop waits for the loop goroutine to exit. The base must already have left
// RUNNING.
func (l *Loop) Stop() {
	l.mu.Lock()
	done := l.done
	l.done = nil
	l.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Cycles returns the number of completed cycles.
func (l *Loop) Cycles() uint64 {
	return l.cycles.Load()
}

func (l *Loop) run(done chan struct{}) {
	defer close(done)

	l.base.PinThread()

	checker := starvationchecker.NewStarvationChecker(l.base.Name(), starvationThreshold(l.base.Period()), l.base.Logger())
	defer checker.Stop()

	for l.base.IsRunning() {
		call(l.pre)
		started := time.Now()
		call(l.do)
		call(l.post)
		elapsed := time.Since(started)

		l.cycles.Add(1)
		l.base.RecordCycle(elapsed)
		checker.Beat()

		if !l.base.Sleep(l.base.Period() - elapsed) {
			return
		}
	}
}

func call(p Phase) {
	if p != nil {
		p()
	}
}

func starvationThreshold(period time.Duration) time.Duration {
	threshold := period * constants.StarvationPeriods
	if threshold < constants.MinStarvationThreshold {
		threshold = constants.MinStarvationThreshold
	}

	return threshold
}
