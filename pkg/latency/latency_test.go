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

package latency_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/component-runtime/pkg/latency"
)

var _ = Describe("Window", func() {
	It("should report an empty summary without samples", func() {
		w := latency.NewWindow(time.Minute, time.Minute)
		Expect(w.Summary()).To(Equal(latency.Summary{}))
	})

	It("should summarize recorded samples", func() {
		w := latency.NewWindow(time.Minute, time.Minute)
		for i := 1; i <= 100; i++ {
			w.Record(time.Duration(i) * time.Millisecond)
		}

		s := w.Summary()
		Expect(s.Samples).To(Equal(100))
		Expect(s.Min).To(Equal(time.Millisecond))
		Expect(s.Max).To(Equal(100 * time.Millisecond))
		Expect(s.Avg).To(Equal(50500 * time.Microsecond))
		Expect(s.P95).To(Equal(96 * time.Millisecond))
		Expect(s.P99).To(Equal(100 * time.Millisecond))
	})

	It("should keep identical samples recorded back to back", func() {
		w := latency.NewWindow(time.Minute, time.Minute)
		w.Record(time.Millisecond)
		w.Record(time.Millisecond)
		Expect(w.Summary().Samples).To(Equal(2))
	})
})
