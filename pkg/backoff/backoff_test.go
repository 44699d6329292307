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

package backoff_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/component-runtime/pkg/backoff"
)

var _ = Describe("Error categories", func() {
	It("should classify wrapped errors", func() {
		base := errors.New("file missing") //nolint:err113 // Test needs dynamic error
		transient := fmt.Errorf("loading config: %w", backoff.NewTransientError(base))

		Expect(backoff.IsTransientError(transient)).To(BeTrue())
		Expect(backoff.IsPermanentError(transient)).To(BeFalse())
		Expect(errors.Is(transient, base)).To(BeTrue())

		permanent := backoff.NewPermanentError(base)
		Expect(backoff.IsPermanentError(permanent)).To(BeTrue())
		Expect(backoff.IsTransientError(permanent)).To(BeFalse())
	})

	It("should leave nil and plain errors uncategorized", func() {
		Expect(backoff.NewTransientError(nil)).To(BeNil())
		Expect(backoff.NewPermanentError(nil)).To(BeNil())
		Expect(backoff.IsTransientError(errors.New("plain"))).To(BeFalse()) //nolint:err113 // Test needs dynamic error
		Expect(backoff.IsPermanentError(nil)).To(BeFalse())
	})
})

var _ = Describe("Poll", func() {
	var cfg backoff.PollConfig

	BeforeEach(func() {
		cfg = backoff.PollConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Timeout:         200 * time.Millisecond,
		}
	})

	It("should return once the condition holds", func() {
		var calls atomic.Int32
		err := backoff.Poll(context.Background(), cfg, func() (bool, error) {
			return calls.Add(1) >= 3, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls.Load()).To(BeNumerically(">=", 3))
	})

	It("should stop at the first condition error", func() {
		failure := errors.New("component in error") //nolint:err113 // Test needs dynamic error
		var calls atomic.Int32
		err := backoff.Poll(context.Background(), cfg, func() (bool, error) {
			calls.Add(1)

			return false, failure
		})
		Expect(err).To(MatchError(failure))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("should time out when the condition never holds", func() {
		cfg.Timeout = 20 * time.Millisecond
		start := time.Now()
		err := backoff.Poll(context.Background(), cfg, func() (bool, error) {
			return false, nil
		})
		Expect(err).To(MatchError(backoff.ErrPollTimeout))
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})

	It("should check exactly once without a timeout", func() {
		cfg.Timeout = 0
		var calls atomic.Int32
		err := backoff.Poll(context.Background(), cfg, func() (bool, error) {
			calls.Add(1)

			return false, nil
		})
		Expect(err).To(MatchError(backoff.ErrPollTimeout))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("should honour context cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := backoff.Poll(ctx, cfg, func() (bool, error) {
			return false, nil
		})
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
