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
	"sync"

	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// Composite is a Counter that owns other components. Schedulers that spread
// work over goroutines keep its members on the composite's goroutine.
type Composite struct {
	*Counter

	members []rtc.Component
	mu      sync.RWMutex
}

var _ rtc.CompositeComponent = (*Composite)(nil)

// NewComposite creates a composite called name owning members.
func NewComposite(name string, members ...rtc.Component) *Composite {
	return &Composite{
		Counter: NewCounter(name),
		members: members,
	}
}

// Members returns the directly owned components.
func (c *Composite) Members() []rtc.Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]rtc.Component, len(c.members))
	copy(out, c.members)

	return out
}

// AddMember appends a member. Members added after the composite was bound are
// not picked up by that binding.
func (c *Composite) AddMember(m rtc.Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members = append(c.members, m)
}
