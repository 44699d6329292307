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
	"github.com/google/uuid"

	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

// Profile describes an execution context to outside observers.
type Profile struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	TypeName     string            `json:"type"`
	KindName     string            `json:"kind"`
	Owner        string            `json:"owner,omitempty"`
	Participants []string          `json:"participants"`
	Properties   rtc.Properties    `json:"properties"`
	Rate         float64           `json:"rate"`
	Kind         rtc.ExecutionKind `json:"-"`
}
