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

package rtc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Properties is the opaque key-value configuration handed to an execution
// context at construction time.
type Properties map[string]string

// Get returns the value for key or def when the key is absent or blank.
func (p Properties) Get(key, def string) string {
	if p == nil {
		return def
	}
	v, ok := p[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}

	return strings.TrimSpace(v)
}

// Has reports whether key carries a non-blank value.
func (p Properties) Has(key string) bool {
	return p.Get(key, "") != ""
}

// GetFloat parses key as a float64.
func (p Properties) GetFloat(key string, def float64) (float64, error) {
	raw := p.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, fmt.Errorf("property %s=%q is not a number: %w", key, raw, err)
	}

	return v, nil
}

// GetInt parses key as an int.
func (p Properties) GetInt(key string, def int) (int, error) {
	raw := p.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("property %s=%q is not an integer: %w", key, raw, err)
	}

	return v, nil
}

// GetBool accepts YES/NO style values as well as the strconv forms.
func (p Properties) GetBool(key string, def bool) (bool, error) {
	raw := p.Get(key, "")
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(raw) {
	case "yes", "y", "on", "true", "1":
		return true, nil
	case "no", "n", "off", "false", "0":
		return false, nil
	}

	return def, fmt.Errorf("property %s=%q is not a boolean", key, raw)
}

// GetDuration accepts either a Go duration ("500ms") or a plain number of seconds ("0.5").
func (p Properties) GetDuration(key string, def time.Duration) (time.Duration, error) {
	raw := p.Get(key, "")
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return def, fmt.Errorf("property %s=%q must not be negative", key, raw)
		}

		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("property %s=%q is not a duration: %w", key, raw, err)
	}
	if d < 0 {
		return def, fmt.Errorf("property %s=%q must not be negative", key, raw)
	}

	return d, nil
}

// GetList splits key on sep and drops blank entries.
func (p Properties) GetList(key, sep string) []string {
	raw := p.Get(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// Merge returns a copy of p overlaid with other. Keys in other win.
func (p Properties) Merge(other Properties) Properties {
	out := make(Properties, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}

	return out
}

// Keys returns the property keys in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
