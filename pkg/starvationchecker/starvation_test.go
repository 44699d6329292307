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

package starvationchecker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/united-manufacturing-hub/component-runtime/pkg/starvationchecker"
)

var _ = Describe("StarvationChecker", func() {
	var checker *starvationchecker.StarvationChecker

	BeforeEach(func() {
		checker = starvationchecker.NewStarvationChecker("test-loop", 50*time.Millisecond, zaptest.NewLogger(GinkgoT()).Sugar())
	})

	AfterEach(func() {
		checker.Stop()
	})

	It("should detect starvation when no beats arrive", func() {
		Eventually(checker.StarvedChecks, time.Second, 10*time.Millisecond).Should(BeNumerically(">", 0))
		Expect(time.Since(checker.GetLastBeat())).To(BeNumerically(">=", 50*time.Millisecond))
	})

	It("should not report a loop that beats regularly", func() {
		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			ticker := time.NewTicker(5 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					checker.Beat()
				}
			}
		}()
		defer close(done)

		Consistently(checker.StarvedChecks, 200*time.Millisecond, 10*time.Millisecond).Should(BeZero())
	})

	It("should update the last beat", func() {
		initial := checker.GetLastBeat()
		time.Sleep(5 * time.Millisecond)
		checker.Beat()
		Expect(checker.GetLastBeat()).To(BeTemporally(">", initial))
	})

	It("should stop checking after Stop", func() {
		checker.Stop()
		count := checker.StarvedChecks()
		Consistently(checker.StarvedChecks, 150*time.Millisecond, 10*time.Millisecond).Should(Equal(count))
	})
})
