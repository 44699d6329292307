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
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/logger"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

var (
	// ErrDuplicateType is returned when a type name is registered twice.
	ErrDuplicateType = errors.New("execution context type already registered")
	// ErrUnknownType is returned when no factory exists for a type name.
	ErrUnknownType = errors.New("unknown execution context type")
)

// Config is handed to a factory when an execution context is created.
type Config struct {
	Logger     *zap.SugaredLogger
	Properties rtc.Properties
	Name       string
	Handle     rtc.ExecutionContextHandle
}

// Factory builds one execution context instance.
type Factory func(cfg Config) (ExecutionContext, error)

// Registry maps execution context type names to factories. Each strategy
// package offers a Register function that adds its factory.
type Registry struct {
	factories  map[string]Factory
	nextHandle atomic.Int64
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for typeName.
func (r *Registry) Register(typeName string, factory Factory) error {
	if typeName == "" || factory == nil {
		return fmt.Errorf("registering %q: type name and factory are required", typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[typeName]; ok {
		return fmt.Errorf("registering %q: %w", typeName, ErrDuplicateType)
	}
	r.factories[typeName] = factory

	return nil
}

// Create builds a new instance of typeName. Every instance gets a handle that
// is unique within the registry.
func (r *Registry) Create(typeName, name string, props rtc.Properties) (ExecutionContext, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("creating %q of type %q: %w", name, typeName, ErrUnknownType)
	}

	if props == nil {
		props = rtc.Properties{}
	}

	ec, err := factory(Config{
		Name:       name,
		Handle:     rtc.ExecutionContextHandle(r.nextHandle.Add(1)),
		Properties: props,
		Logger:     logger.For(logger.ComponentExecutionContext).With("ec", name, "type", typeName),
	})
	if err != nil {
		return nil, fmt.Errorf("creating %q of type %q: %w", name, typeName, err)
	}

	return ec, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}
