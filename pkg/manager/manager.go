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

package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/united-manufacturing-hub/component-runtime/pkg/components"
	"github.com/united-manufacturing-hub/component-runtime/pkg/config"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

var (
	// ErrUnknownContext is returned for execution context names that were never created.
	ErrUnknownContext = errors.New("unknown execution context")
	// ErrDuplicateContext is returned when two execution contexts share a name.
	ErrDuplicateContext = errors.New("execution context name already in use")
)

type owned interface {
	SetOwner(owner string)
}

// Manager owns the execution contexts and components of the process. It
// builds them from the configuration and gives the admin API a single place
// to look them up.
type Manager struct {
	registry  *executioncontext.Registry
	catalog   *components.Catalog
	logger    *zap.SugaredLogger
	contexts  map[string]executioncontext.ExecutionContext
	autoStart map[string]bool
	order     []string
	mu        sync.RWMutex
}

// New creates an empty manager.
func New(registry *executioncontext.Registry, catalog *components.Catalog, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Manager{
		registry:  registry,
		catalog:   catalog,
		logger:    log,
		contexts:  make(map[string]executioncontext.ExecutionContext),
		autoStart: make(map[string]bool),
	}
}

// Load creates the components and execution contexts of cfg, binds the
// configured components and requests activation where asked for. Contexts
// are not started.
func (m *Manager) Load(cfg config.FullConfig) error {
	activate := make(map[string]bool, len(cfg.Components))
	for _, c := range cfg.Components {
		if _, err := m.catalog.Create(c.Kind, c.Name, c.Members); err != nil {
			return fmt.Errorf("loading components: %w", err)
		}
		activate[c.Name] = c.Activate
	}

	for _, ecCfg := range cfg.ExecutionContexts {
		ec, err := m.Create(ecCfg.Type, ecCfg.Name, rtc.Properties(ecCfg.Properties).Merge(nil))
		if err != nil {
			return err
		}
		if ecCfg.Owner != "" {
			if o, ok := ec.(owned); ok {
				o.SetOwner(ecCfg.Owner)
			}
		}

		m.mu.Lock()
		m.autoStart[ecCfg.Name] = ecCfg.ShouldAutoStart()
		m.mu.Unlock()

		for _, compName := range ecCfg.Components {
			if err := m.Bind(ecCfg.Name, compName); err != nil {
				return err
			}
		}

		for _, comp := range ec.Components() {
			if !activate[comp.InstanceName()] {
				continue
			}
			if ret := ec.ActivateComponent(comp); ret != rtc.OK {
				return fmt.Errorf("activating %s on %s: %w", comp.InstanceName(), ecCfg.Name, ret.Err("activate"))
			}
		}

		m.logger.Infow("Execution context loaded",
			"ec", ecCfg.Name,
			"type", ecCfg.Type,
			"components", len(ec.Components()))
	}

	return nil
}

// Create builds an execution context through the registry and tracks it.
func (m *Manager) Create(typeName, name string, props rtc.Properties) (executioncontext.ExecutionContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contexts[name]; ok {
		return nil, fmt.Errorf("creating %q: %w", name, ErrDuplicateContext)
	}

	ec, err := m.registry.Create(typeName, name, props)
	if err != nil {
		return nil, err
	}

	m.contexts[name] = ec
	m.order = append(m.order, name)

	return ec, nil
}

// StartAll starts every stopped execution context marked for auto start.
func (m *Manager) StartAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, ec := range m.Contexts() {
		m.mu.RLock()
		start, ok := m.autoStart[ec.Name()]
		m.mu.RUnlock()
		if ok && !start {
			continue
		}
		if ec.IsRunning() {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if ret := ec.Start(); ret != rtc.OK {
				metrics.IncErrorCountAndLog(metrics.ComponentManager, ec.Name(), ret.Err("start"), m.logger)

				return fmt.Errorf("starting %s: %w", ec.Name(), ret.Err("start"))
			}
			m.logger.Infof("Started execution context %s (%s, %.0f Hz)", ec.Name(), ec.TypeName(), ec.GetRate())

			return nil
		})
	}

	return g.Wait()
}

// StopAll stops every running execution context. All contexts are asked to
// stop even if one of them fails.
func (m *Manager) StopAll(ctx context.Context) error {
	var g errgroup.Group

	for _, ec := range m.Contexts() {
		if !ec.IsRunning() {
			continue
		}

		g.Go(func() error {
			if ret := ec.Stop(); ret != rtc.OK {
				return fmt.Errorf("stopping %s: %w", ec.Name(), ret.Err("stop"))
			}
			m.logger.Infof("Stopped execution context %s", ec.Name())

			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("stopping execution contexts: %w", ctx.Err())
	}
}

// Context returns the execution context called name.
func (m *Manager) Context(name string) (executioncontext.ExecutionContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ec, ok := m.contexts[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownContext)
	}

	return ec, nil
}

// Contexts returns the execution contexts in creation order.
func (m *Manager) Contexts() []executioncontext.ExecutionContext {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]executioncontext.ExecutionContext, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.contexts[name])
	}

	return out
}

// Component returns the catalog component called name.
func (m *Manager) Component(name string) (rtc.Component, error) {
	return m.catalog.Get(name)
}

// Bind attaches the catalog component compName to the execution context ecName.
func (m *Manager) Bind(ecName, compName string) error {
	ec, comp, err := m.lookup(ecName, compName)
	if err != nil {
		return err
	}

	if ret := ec.AddComponent(comp); ret != rtc.OK {
		return fmt.Errorf("binding %s to %s: %w", compName, ecName, ret.Err("add"))
	}

	return nil
}

// Unbind detaches compName from ecName.
func (m *Manager) Unbind(ecName, compName string) error {
	ec, comp, err := m.lookup(ecName, compName)
	if err != nil {
		return err
	}

	if ret := ec.RemoveComponent(comp); ret != rtc.OK {
		return fmt.Errorf("unbinding %s from %s: %w", compName, ecName, ret.Err("remove"))
	}

	return nil
}

func (m *Manager) lookup(ecName, compName string) (executioncontext.ExecutionContext, rtc.Component, error) {
	ec, err := m.Context(ecName)
	if err != nil {
		return nil, nil, err
	}

	comp, err := m.catalog.Get(compName)
	if err != nil {
		return nil, nil, err
	}

	return ec, comp, nil
}
