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

package multilayer

import (
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// childTask runs one layer of the composite context on its own goroutine.
// The owner and the child rendezvous through a mutex/condition pair guarding
// two flags; at most one of them is set at any time.
type childTask struct {
	cond     *sync.Cond
	done     chan struct{}
	resolve  func() map[rtc.Component]*executioncontext.ComponentStateMachine
	ecName   string
	label    string
	comps    []rtc.Component
	cycles   atomic.Uint64
	mu       sync.Mutex
	signaled bool
	running  bool
	quit     bool
}

func newChildTask(ecName string, id int, resolve func() map[rtc.Component]*executioncontext.ComponentStateMachine) *childTask {
	t := &childTask{
		ecName:  ecName,
		label:   strconv.Itoa(id),
		resolve: resolve,
	}
	t.cond = sync.NewCond(&t.mu)

	return t
}

// assign adds comp to the child's static list.
func (t *childTask) assign(comp rtc.Component) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !slices.Contains(t.comps, comp) {
		t.comps = append(t.comps, comp)
	}
}

// unassign drops comp from the child's list.
func (t *childTask) unassign(comp rtc.Component) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := len(t.comps)
	t.comps = slices.DeleteFunc(t.comps, func(c rtc.Component) bool { return c == comp })

	return len(t.comps) != before
}

func (t *childTask) components() []rtc.Component {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.comps)
}

// spawn starts the child goroutine.
func (t *childTask) spawn() {
	t.mu.Lock()
	t.quit = false
	t.signaled = false
	t.running = false
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go t.run(done)
}

// stop makes the child goroutine exit after its current cycle and waits for it.
func (t *childTask) stop() {
	t.mu.Lock()
	t.quit = true
	t.cond.Broadcast()
	done := t.done
	t.done = nil
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

// signal releases one cycle of the child. It first waits until the child is
// neither signaled nor running.
func (t *childTask) signal() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.signaled || t.running {
		t.cond.Wait()
	}
	t.signaled = true
	t.cond.Broadcast()
}

// join waits until the released cycle has completed.
func (t *childTask) join() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.signaled || t.running {
		t.cond.Wait()
	}
}

// awaitSignal blocks until the owner signals and moves the child from
// signaled to running. It returns the components of the cycle, or false
// when the child has to exit.
func (t *childTask) awaitSignal() ([]rtc.Component, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for !t.signaled && !t.quit {
		t.cond.Wait()
	}
	if !t.signaled {
		return nil, false
	}
	t.signaled = false
	t.running = true

	return slices.Clone(t.comps), true
}

func (t *childTask) finishCycle() {
	t.mu.Lock()
	t.running = false
	t.cycles.Add(1)
	t.cond.Broadcast()
	t.mu.Unlock()

	metrics.IncChildCycle(t.ecName, t.label)
}

func (t *childTask) run(done chan struct{}) {
	defer close(done)

	for {
		comps, ok := t.awaitSignal()
		if !ok {
			return
		}

		// components removed since the owner froze the cycle are skipped
		index := t.resolve()
		adapters := make([]*executioncontext.ComponentStateMachine, 0, len(comps))
		for _, c := range comps {
			if a, found := index[c]; found {
				adapters = append(adapters, a)
			}
		}

		for _, a := range adapters {
			a.WorkerPreDo()
		}
		for _, a := range adapters {
			a.WorkerDo()
		}
		for _, a := range adapters {
			a.WorkerPostDo()
		}

		t.finishCycle()
	}
}
