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

// Package statemachine implements a small finite-state engine that is driven
// from the outside, one phase at a time.
//
// A StateMachine holds a (previous, current, next) triple. Requests to change
// state only touch "next" (GoTo). The owner of the machine commits pending
// transitions by calling the worker methods once per cycle:
//
//	WorkerPre  - commits a pending transition (exit, commit, entry) or runs preDo
//	WorkerDo   - runs the do hook of the committed state
//	WorkerPost - runs the postDo hook of the committed state
//
// Hooks are invoked without the internal lock held, so they may call GoTo. Such a
// request is consumed by a later WorkerPre, never within the running cycle.
package statemachine

import (
	"sync"
)

// StateHolder is a snapshot of the machine's states.
type StateHolder[S comparable] struct {
	Previous S
	Current  S
	Next     S
}

// Pending reports whether a transition has been requested but not yet committed.
func (h StateHolder[S]) Pending() bool {
	return h.Current != h.Next
}

// Action is a hook bound to a state. It receives the holder as it was when the
// hook was invoked.
type Action[S comparable] func(holder StateHolder[S])

type hooks[S comparable] struct {
	entry  Action[S]
	preDo  Action[S]
	do     Action[S]
	postDo Action[S]
	exit   Action[S]
}

// StateMachine is safe for concurrent use. Registration of actions is expected
// to happen before the first worker call.
type StateMachine[S comparable] struct {
	mu      sync.Mutex
	states  StateHolder[S]
	actions map[S]*hooks[S]
	order   []S
}

// New creates a state machine over the given states. Every state starts
// without actions.
func New[S comparable](states ...S) *StateMachine[S] {
	sm := &StateMachine[S]{
		actions: make(map[S]*hooks[S], len(states)),
	}
	for _, s := range states {
		if _, ok := sm.actions[s]; ok {
			continue
		}
		sm.actions[s] = &hooks[S]{}
		sm.order = append(sm.order, s)
	}

	return sm
}

// States returns the states the machine was created with, in creation order.
func (sm *StateMachine[S]) States() []S {
	out := make([]S, len(sm.order))
	copy(out, sm.order)

	return out
}

// SetEntryAction registers the hook run after a transition into state.
// It returns false if state is unknown to the machine.
func (sm *StateMachine[S]) SetEntryAction(state S, fn Action[S]) bool {
	return sm.set(state, func(h *hooks[S]) { h.entry = fn })
}

// SetPreDoAction registers the hook run by WorkerPre when no transition is pending.
func (sm *StateMachine[S]) SetPreDoAction(state S, fn Action[S]) bool {
	return sm.set(state, func(h *hooks[S]) { h.preDo = fn })
}

// SetDoAction registers the hook run by WorkerDo.
func (sm *StateMachine[S]) SetDoAction(state S, fn Action[S]) bool {
	return sm.set(state, func(h *hooks[S]) { h.do = fn })
}

// SetPostDoAction registers the hook run by WorkerPost.
func (sm *StateMachine[S]) SetPostDoAction(state S, fn Action[S]) bool {
	return sm.set(state, func(h *hooks[S]) { h.postDo = fn })
}

// SetExitAction registers the hook run before a transition out of state.
func (sm *StateMachine[S]) SetExitAction(state S, fn Action[S]) bool {
	return sm.set(state, func(h *hooks[S]) { h.exit = fn })
}

func (sm *StateMachine[S]) set(state S, apply func(h *hooks[S])) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	h, ok := sm.actions[state]
	if !ok {
		return false
	}
	apply(h)

	return true
}

// SetStartState overwrites the whole holder. It is meant to be called once,
// before the machine is driven.
func (sm *StateMachine[S]) SetStartState(holder StateHolder[S]) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.states = holder
}

// GoTo requests a transition to state. The request is consumed by the next
// WorkerPre. A second request before that overwrites the first.
func (sm *StateMachine[S]) GoTo(state S) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.states.Next = state
}

// GetState returns the committed current state.
func (sm *StateMachine[S]) GetState() S {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.states.Current
}

// GetStates returns a snapshot of the holder.
func (sm *StateMachine[S]) GetStates() StateHolder[S] {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.states
}

// IsIn reports whether the committed current state equals state.
func (sm *StateMachine[S]) IsIn(state S) bool {
	return sm.GetState() == state
}

// IsNext reports whether the pending (or current, when nothing is pending) state equals state.
func (sm *StateMachine[S]) IsNext(state S) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.states.Next == state
}

// WorkerPre commits a pending transition or runs the preDo hook of the
// current state.
func (sm *StateMachine[S]) WorkerPre() {
	states := sm.GetStates()
	if !states.Pending() {
		sm.invoke(states.Current, func(h *hooks[S]) Action[S] { return h.preDo }, states)

		return
	}

	sm.invoke(states.Current, func(h *hooks[S]) Action[S] { return h.exit }, states)

	// The exit hook may have overwritten the request.
	sm.mu.Lock()
	if sm.states.Next == sm.states.Current {
		sm.mu.Unlock()

		return
	}
	sm.states.Previous = sm.states.Current
	sm.states.Current = sm.states.Next
	committed := sm.states
	sm.mu.Unlock()

	sm.invoke(committed.Current, func(h *hooks[S]) Action[S] { return h.entry }, committed)
}

// WorkerDo runs the do hook of the committed state.
func (sm *StateMachine[S]) WorkerDo() {
	states := sm.GetStates()
	sm.invoke(states.Current, func(h *hooks[S]) Action[S] { return h.do }, states)
}

// WorkerPost runs the postDo hook of the committed state.
func (sm *StateMachine[S]) WorkerPost() {
	states := sm.GetStates()
	sm.invoke(states.Current, func(h *hooks[S]) Action[S] { return h.postDo }, states)
}

// Worker runs WorkerPre, WorkerDo and WorkerPost in sequence.
func (sm *StateMachine[S]) Worker() {
	sm.WorkerPre()
	sm.WorkerDo()
	sm.WorkerPost()
}

func (sm *StateMachine[S]) invoke(state S, pick func(h *hooks[S]) Action[S], holder StateHolder[S]) {
	sm.mu.Lock()
	h, ok := sm.actions[state]
	var fn Action[S]
	if ok {
		fn = pick(h)
	}
	sm.mu.Unlock()

	if fn != nil {
		fn(holder)
	}
}
