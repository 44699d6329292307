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
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/backoff"
	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/latency"
	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// Run states and events of an execution context.
const (
	RunStateStopped = "stopped"
	RunStateRunning = "running"

	RunEventStart = "start"
	RunEventStop  = "stop"
)

var (
	errComponentUnbound = errors.New("component was unbound while waiting")
	errEnteredError     = errors.New("component entered ERROR")
)

// Hooks let a scheduling strategy plug its goroutines into the run-state
// changes of Base. Every hook is optional.
type Hooks struct {
	// OnStarted runs after the context became RUNNING and OnStartup was
	// delivered. Strategies spawn their goroutines here.
	OnStarted func()
	// OnStopping runs after the context became STOPPED and before OnShutdown
	// is delivered. It must not return before the strategy's goroutines quit.
	OnStopping func()
	// OnWaitingTransition runs on every poll of a synchronous lifecycle
	// operation. Externally clocked strategies drive their cycle from it.
	OnWaitingTransition func()
}

// SyncOptions select which lifecycle operations wait for their transition.
type SyncOptions struct {
	Activation   bool
	Deactivation bool
	Reset        bool
	Timeout      time.Duration
}

var _ ExecutionContext = (*Base)(nil)

// Base implements the parts of ExecutionContext that do not depend on the
// scheduling strategy. Strategies embed *Base and shadow what they change.
type Base struct {
	worker      *Worker
	runState    *fsm.FSM
	logger      *zap.SugaredLogger
	latency     *latency.Window
	stopCh      chan struct{}
	hooks       Hooks
	profile     Profile
	cpuAffinity []int
	sync        SyncOptions
	mu          sync.RWMutex
	runMu       sync.Mutex
}

// NewBase parses the common properties and creates a stopped context.
func NewBase(cfg Config, typeName string, kind rtc.ExecutionKind) (*Base, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	props := cfg.Properties
	if props == nil {
		props = rtc.Properties{}
	}

	rate, err := props.GetFloat(constants.PropRate, constants.DefaultRate)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("property %s must be positive, got %v", constants.PropRate, rate)
	}

	if props.Has(constants.PropKind) {
		kind, err = rtc.ParseExecutionKind(props.Get(constants.PropKind, ""))
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", constants.PropKind, err)
		}
	}

	syncOpts, err := parseSyncOptions(props)
	if err != nil {
		return nil, err
	}

	affinity, err := parseCPUList(props.GetList(constants.PropCPUAffinity, ","))
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", constants.PropCPUAffinity, err)
	}

	b := &Base{
		worker:      NewWorker(cfg.Name, cfg.Handle, log),
		logger:      log,
		latency:     latency.NewWindow(constants.LatencyWindow, constants.LatencyCullInterval),
		stopCh:      make(chan struct{}),
		cpuAffinity: affinity,
		sync:        syncOpts,
		profile: Profile{
			ID:         uuid.New(),
			Name:       cfg.Name,
			TypeName:   typeName,
			Kind:       kind,
			KindName:   kind.String(),
			Rate:       rate,
			Properties: props.Merge(nil),
		},
	}
	close(b.stopCh)

	b.runState = fsm.NewFSM(
		RunStateStopped,
		fsm.Events{
			{Name: RunEventStart, Src: []string{RunStateStopped}, Dst: RunStateRunning},
			{Name: RunEventStop, Src: []string{RunStateRunning}, Dst: RunStateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				b.logger.Debugf("Run state changed from %s to %s on event %s", e.Src, e.Dst, e.Event)
			},
		},
	)

	metrics.SetContextRunning(cfg.Name, kind, false)

	return b, nil
}

func parseSyncOptions(props rtc.Properties) (SyncOptions, error) {
	all, err := props.GetBool(constants.PropSyncTransition, false)
	if err != nil {
		return SyncOptions{}, fmt.Errorf("property %s: %w", constants.PropSyncTransition, err)
	}

	opts := SyncOptions{}
	for key, target := range map[string]*bool{
		constants.PropSyncActivation:   &opts.Activation,
		constants.PropSyncDeactivation: &opts.Deactivation,
		constants.PropSyncReset:        &opts.Reset,
	} {
		*target, err = props.GetBool(key, all)
		if err != nil {
			return SyncOptions{}, fmt.Errorf("property %s: %w", key, err)
		}
	}

	opts.Timeout, err = props.GetDuration(constants.PropTransitionTimeout, constants.DefaultTransitionTimeout)
	if err != nil {
		return SyncOptions{}, fmt.Errorf("property %s: %w", constants.PropTransitionTimeout, err)
	}
	if opts.Timeout <= 0 {
		return SyncOptions{}, fmt.Errorf("property %s must be positive", constants.PropTransitionTimeout)
	}

	return opts, nil
}

func parseCPUList(items []string) ([]int, error) {
	cpus := make([]int, 0, len(items))
	for _, item := range items {
		cpu, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil || cpu < 0 {
			return nil, fmt.Errorf("invalid cpu id %q", item)
		}
		cpus = append(cpus, cpu)
	}

	return cpus, nil
}

// SetHooks installs the strategy hooks. It must be called before Start.
func (b *Base) SetHooks(h Hooks) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = h
}

func (b *Base) getHooks() Hooks {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.hooks
}

// Worker exposes the component core to strategies.
func (b *Base) Worker() *Worker {
	return b.worker
}

// Logger returns the context's logger.
func (b *Base) Logger() *zap.SugaredLogger {
	return b.logger
}

func (b *Base) Name() string {
	return b.profile.Name
}

func (b *Base) TypeName() string {
	return b.profile.TypeName
}

func (b *Base) Handle() rtc.ExecutionContextHandle {
	return b.worker.Handle()
}

func (b *Base) GetKind() rtc.ExecutionKind {
	return b.profile.Kind
}

// SyncOptions returns the synchronous transition configuration.
func (b *Base) SyncOptions() SyncOptions {
	return b.sync
}

// Start moves the context from STOPPED to RUNNING.
func (b *Base) Start() rtc.ReturnCode {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if err := b.runState.Event(context.Background(), RunEventStart); err != nil {
		b.logger.Debugf("Start rejected: %v", err)

		return rtc.PreconditionNotMet
	}

	b.mu.Lock()
	b.stopCh = make(chan struct{})
	b.mu.Unlock()

	b.worker.Start()
	metrics.SetContextRunning(b.Name(), b.GetKind(), true)

	if hook := b.getHooks().OnStarted; hook != nil {
		hook()
	}
	b.logger.Infof("Execution context %s started at %.2f Hz", b.Name(), b.GetRate())

	return rtc.OK
}

// Stop moves the context from RUNNING to STOPPED. An in-flight cycle is
// completed first.
func (b *Base) Stop() rtc.ReturnCode {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if err := b.runState.Event(context.Background(), RunEventStop); err != nil {
		b.logger.Debugf("Stop rejected: %v", err)

		return rtc.PreconditionNotMet
	}

	b.mu.Lock()
	close(b.stopCh)
	b.mu.Unlock()

	if hook := b.getHooks().OnStopping; hook != nil {
		hook()
	}

	b.worker.Stop()
	metrics.SetContextRunning(b.Name(), b.GetKind(), false)
	b.logger.Infof("Execution context %s stopped", b.Name())

	return rtc.OK
}

// IsRunning reports whether the context is RUNNING.
func (b *Base) IsRunning() bool {
	return b.runState.Current() == RunStateRunning
}

// StopChannel is closed when the context leaves RUNNING.
func (b *Base) StopChannel() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.stopCh
}

// Sleep waits for d or until the context is stopped. It returns false when
// the context was stopped.
func (b *Base) Sleep(d time.Duration) bool {
	stop := b.StopChannel()
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

// Tick is not offered by self-driven contexts.
func (b *Base) Tick() rtc.ReturnCode {
	return rtc.Unsupported
}

func (b *Base) GetRate() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.profile.Rate
}

// SetRate changes the execution rate and notifies every bound component.
func (b *Base) SetRate(rate float64) rtc.ReturnCode {
	if rate <= 0 {
		return rtc.BadParameter
	}

	b.mu.Lock()
	b.profile.Rate = rate
	b.mu.Unlock()

	b.worker.RateChanged()

	return rtc.OK
}

// Period is the time budget of one cycle.
func (b *Base) Period() time.Duration {
	return time.Duration(float64(time.Second) / b.GetRate())
}

// GetProfile returns a deep copy of the profile with the current participants.
func (b *Base) GetProfile() Profile {
	b.mu.RLock()
	var out Profile
	err := deepcopy.Copy(&out, b.profile)
	b.mu.RUnlock()

	if err != nil {
		b.logger.Warnf("Failed to copy profile: %v", err)
		b.mu.RLock()
		out = b.profile
		out.Properties = b.profile.Properties.Merge(nil)
		b.mu.RUnlock()
	}

	comps := b.worker.Components()
	out.Participants = make([]string, 0, len(comps))
	for _, c := range comps {
		out.Participants = append(out.Participants, c.InstanceName())
	}

	return out
}

// SetOwner records the name of the component or process that owns the context.
func (b *Base) SetOwner(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profile.Owner = owner
}

// RecordCycle feeds the duration of one cycle into the latency window and
// metrics and reports an overrun when it exceeded the period.
func (b *Base) RecordCycle(d time.Duration) {
	b.latency.Record(d)
	metrics.ObserveCycleTime(b.Name(), d)

	if period := b.Period(); d > period {
		metrics.IncCycleOverrun(b.Name())
		b.logger.Debugf("Cycle took %s, exceeding the period of %s", d, period)
	}
}

// CycleLatency summarizes recent cycle durations.
func (b *Base) CycleLatency() latency.Summary {
	return b.latency.Summary()
}

// PinThread applies the cpu_affinity property to the calling goroutine.
func (b *Base) PinThread() {
	if len(b.cpuAffinity) == 0 {
		return
	}
	if err := pinCurrentThread(b.cpuAffinity); err != nil {
		b.logger.Warnf("Failed to apply cpu affinity: %v", err)

		return
	}
	b.logger.Debugf("Pinned execution thread to cpus %v", b.cpuAffinity)
}

func (b *Base) AddComponent(comp rtc.Component) rtc.ReturnCode {
	return b.worker.AddComponent(comp)
}

func (b *Base) RemoveComponent(comp rtc.Component) rtc.ReturnCode {
	return b.worker.RemoveComponent(comp)
}

func (b *Base) GetComponentState(comp rtc.Component) rtc.LifeCycleState {
	return b.worker.GetComponentState(comp)
}

func (b *Base) Components() []rtc.Component {
	return b.worker.Components()
}

// ActivateComponent requests ACTIVE and, with sync_activation, waits for it.
func (b *Base) ActivateComponent(comp rtc.Component) rtc.ReturnCode {
	if ret := b.worker.ActivateComponent(comp); ret != rtc.OK {
		return ret
	}
	if !b.sync.Activation {
		return rtc.OK
	}

	return b.WaitForState(comp, rtc.ActiveState)
}

// DeactivateComponent requests INACTIVE and, with sync_deactivation, waits for it.
func (b *Base) DeactivateComponent(comp rtc.Component) rtc.ReturnCode {
	if ret := b.worker.DeactivateComponent(comp); ret != rtc.OK {
		return ret
	}
	if !b.sync.Deactivation {
		return rtc.OK
	}

	return b.WaitForState(comp, rtc.InactiveState)
}

// ResetComponent requests INACTIVE from ERROR and, with sync_reset, waits for it.
func (b *Base) ResetComponent(comp rtc.Component) rtc.ReturnCode {
	if ret := b.worker.ResetComponent(comp); ret != rtc.OK {
		return ret
	}
	if !b.sync.Reset {
		return rtc.OK
	}

	return b.WaitForState(comp, rtc.InactiveState)
}

// WaitForState polls until comp has committed target. It fails when comp
// settles in ERROR instead or the transition timeout elapses. A stopped
// context runs no cycles, so the wait is skipped.
func (b *Base) WaitForState(comp rtc.Component, target rtc.LifeCycleState) rtc.ReturnCode {
	if !b.IsRunning() {
		return rtc.OK
	}

	waiting := b.getHooks().OnWaitingTransition

	err := backoff.Poll(context.Background(), backoff.PollConfig{
		InitialInterval: constants.MinTransitionPollInterval,
		MaxInterval:     constants.MaxTransitionPollInterval,
		Timeout:         b.sync.Timeout,
	}, func() (bool, error) {
		if waiting != nil {
			waiting()
		}

		adapter := b.worker.Adapter(comp)
		if adapter == nil {
			return false, errComponentUnbound
		}

		states := adapter.GetStates()
		if states.Current == target && !states.Pending() {
			return true, nil
		}
		if target != rtc.ErrorState && states.Current == rtc.ErrorState && !states.Pending() {
			return false, errEnteredError
		}

		return false, nil
	})
	if errors.Is(err, errComponentUnbound) {
		b.logger.Warnf("Component %s was unbound before it reached %s", comp.InstanceName(), target)

		return rtc.Error
	}
	if err != nil {
		b.logger.Debugf("Waiting for %s to reach %s failed: %v", comp.InstanceName(), target, err)

		return rtc.Error
	}

	return rtc.OK
}
