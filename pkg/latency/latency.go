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

// Package latency keeps a rolling window of cycle durations.
package latency

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
)

// Summary condenses the samples currently held by a Window.
type Summary struct {
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Avg     time.Duration `json:"avg"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
	Samples int           `json:"samples"`
}

// Window stores durations keyed by the time they were recorded; entries older
// than the retention are culled by the underlying expiremap.
type Window struct {
	samples *expiremap.ExpireMap[int64, time.Duration]
	seq     atomic.Int64
}

// NewWindow creates a window that keeps samples for retention and culls
// expired ones every cullInterval.
func NewWindow(retention, cullInterval time.Duration) *Window {
	return &Window{
		samples: expiremap.NewEx[int64, time.Duration](cullInterval, retention),
	}
}

// Record adds one sample.
func (w *Window) Record(d time.Duration) {
	// sequence keys keep samples recorded within the same clock tick apart
	w.samples.Set(w.seq.Add(1), d)
}

// Summary computes min, max, average and the 95th/99th percentiles.
func (w *Window) Summary() Summary {
	durations := make([]time.Duration, 0, w.samples.Length())
	w.samples.Range(func(_ int64, value time.Duration) bool {
		durations = append(durations, value)

		return true
	})

	return summarize(durations)
}

func summarize(durations []time.Duration) Summary {
	if len(durations) == 0 {
		return Summary{}
	}

	sort.Slice(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	})

	var total int64
	for _, d := range durations {
		total += d.Nanoseconds()
	}

	count := len(durations)

	return Summary{
		Min:     durations[0],
		Max:     durations[count-1],
		Avg:     time.Duration(total / int64(count)),
		P95:     durations[percentileIndex(count, 0.95)],
		P99:     durations[percentileIndex(count, 0.99)],
		Samples: count,
	}
}

func percentileIndex(count int, quantile float64) int {
	idx := int(float64(count) * quantile)
	if idx >= count {
		idx = count - 1
	}
	if idx < 0 {
		idx = 0
	}

	return idx
}
