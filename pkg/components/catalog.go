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

package components

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// Component kinds known to the catalog.
const (
	KindCounter   = "counter"
	KindComposite = "composite"
)

var (
	// ErrUnknownComponent is returned for names that were never created.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrDuplicateComponent is returned when a name is used twice.
	ErrDuplicateComponent = errors.New("component name already in use")
	// ErrUnknownKind is returned for unsupported component kinds.
	ErrUnknownKind = errors.New("unknown component kind")
)

// Catalog creates components by kind and keeps them addressable by instance name.
type Catalog struct {
	items map[string]rtc.Component
	mu    sync.RWMutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]rtc.Component)}
}

// Create builds a component of kind called name. Composite members must
// already exist in the catalog.
func (c *Catalog) Create(kind, name string, memberNames []string) (rtc.Component, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[name]; ok {
		return nil, fmt.Errorf("creating %q: %w", name, ErrDuplicateComponent)
	}

	var comp rtc.Component

	switch kind {
	case KindCounter, "":
		if len(memberNames) > 0 {
			return nil, fmt.Errorf("creating %q: kind %s takes no members", name, KindCounter)
		}
		comp = NewCounter(name)
	case KindComposite:
		members := make([]rtc.Component, 0, len(memberNames))
		for _, m := range memberNames {
			member, ok := c.items[m]
			if !ok {
				return nil, fmt.Errorf("creating %q: member %q: %w", name, m, ErrUnknownComponent)
			}
			members = append(members, member)
		}
		comp = NewComposite(name, members...)
	default:
		return nil, fmt.Errorf("creating %q: %w %q", name, ErrUnknownKind, kind)
	}

	c.items[name] = comp

	return comp, nil
}

// Add registers an externally built component.
func (c *Catalog) Add(comp rtc.Component) error {
	if comp == nil {
		return fmt.Errorf("adding component: %w", ErrUnknownComponent)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[comp.InstanceName()]; ok {
		return fmt.Errorf("adding %q: %w", comp.InstanceName(), ErrDuplicateComponent)
	}
	c.items[comp.InstanceName()] = comp

	return nil
}

// Get returns the component called name.
func (c *Catalog) Get(name string) (rtc.Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	comp, ok := c.items[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownComponent)
	}

	return comp, nil
}

// Names returns the instance names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.items))
	for name := range c.items {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}
