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
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext/exttrigger"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext/multilayer"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext/periodic"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext/synctick"
)

// RegisterBuiltins registers the periodic, externally triggered, simulator and
// multilayer composite execution context types.
func RegisterBuiltins(r *executioncontext.Registry) error {
	for _, register := range []func(*executioncontext.Registry) error{
		periodic.Register,
		exttrigger.Register,
		synctick.Register,
		multilayer.Register,
	} {
		if err := register(r); err != nil {
			return err
		}
	}

	return nil
}
