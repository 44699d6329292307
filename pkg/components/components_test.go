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

package components_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/component-runtime/pkg/components"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

var _ = Describe("Counter", func() {
	var counter *components.Counter

	BeforeEach(func() {
		counter = components.NewCounter("counter")
	})

	It("should record callbacks in order", func() {
		Expect(counter.OnStartup(1)).To(Equal(rtc.OK))
		Expect(counter.OnActivated(1)).To(Equal(rtc.OK))
		Expect(counter.OnExecute(1)).To(Equal(rtc.OK))
		Expect(counter.OnExecute(1)).To(Equal(rtc.OK))

		Expect(counter.Executions()).To(Equal(2))
		Expect(counter.Events()).To(Equal([]string{
			executioncontext.CallbackOnStartup,
			executioncontext.CallbackOnActivated,
			executioncontext.CallbackOnExecute,
			executioncontext.CallbackOnExecute,
		}))

		counter.ResetCounts()
		Expect(counter.Events()).To(BeEmpty())
		Expect(counter.Executions()).To(BeZero())
	})

	It("should return injected results", func() {
		counter.SetResult(executioncontext.CallbackOnReset, rtc.Error)
		Expect(counter.OnReset(1)).To(Equal(rtc.Error))
		Expect(counter.Count(executioncontext.CallbackOnReset)).To(Equal(1))
	})

	It("should panic when asked to", func() {
		counter.SetPanic(executioncontext.CallbackOnError, true)
		Expect(func() { counter.OnError(1) }).To(Panic())

		counter.SetPanic(executioncontext.CallbackOnError, false)
		Expect(counter.OnError(1)).To(Equal(rtc.OK))
	})

	It("should run the execute hook with the calling handle", func() {
		var seen rtc.ExecutionContextHandle
		counter.SetExecuteHook(func(ec rtc.ExecutionContextHandle) { seen = ec })

		counter.OnExecute(7)
		Expect(seen).To(Equal(rtc.ExecutionContextHandle(7)))
	})
})

var _ = Describe("Counter hold", func() {
	It("should block exactly one OnExecute until released", func() {
		counter := components.NewCounter("held")
		entered, release := counter.HoldNextExecute()
		DeferCleanup(release)

		done := make(chan rtc.ReturnCode, 1)
		go func() { done <- counter.OnExecute(1) }()

		Eventually(entered).Should(BeClosed())
		Consistently(done, 20*time.Millisecond).ShouldNot(Receive())
		Expect(counter.Executions()).To(BeZero())

		release()
		Eventually(done).Should(Receive(Equal(rtc.OK)))
		Expect(counter.OnExecute(1)).To(Equal(rtc.OK))
		Expect(counter.Executions()).To(Equal(2))
	})
})

var _ = Describe("Catalog", func() {
	var catalog *components.Catalog

	BeforeEach(func() {
		catalog = components.NewCatalog()
	})

	It("should create counters by default", func() {
		comp, err := catalog.Create("", "motor", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(comp).To(BeAssignableToTypeOf(&components.Counter{}))
		Expect(comp.InstanceName()).To(Equal("motor"))

		got, err := catalog.Get("motor")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(comp))
	})

	It("should build composites from existing members", func() {
		motor, err := catalog.Create(components.KindCounter, "motor", nil)
		Expect(err).NotTo(HaveOccurred())
		sensor, err := catalog.Create(components.KindCounter, "sensor", nil)
		Expect(err).NotTo(HaveOccurred())

		arm, err := catalog.Create(components.KindComposite, "arm", []string{"motor", "sensor"})
		Expect(err).NotTo(HaveOccurred())

		composite, ok := arm.(rtc.CompositeComponent)
		Expect(ok).To(BeTrue())
		Expect(composite.Members()).To(Equal([]rtc.Component{motor, sensor}))
		Expect(rtc.FlattenMembers(arm)).To(HaveLen(3))
	})

	It("should reject unknown members and kinds", func() {
		_, err := catalog.Create(components.KindComposite, "arm", []string{"motor"})
		Expect(err).To(MatchError(components.ErrUnknownComponent))

		_, err = catalog.Create("gripper", "g", nil)
		Expect(err).To(MatchError(components.ErrUnknownKind))

		_, err = catalog.Create(components.KindCounter, "c", []string{"x"})
		Expect(err).To(HaveOccurred())
	})

	It("should reject duplicate names", func() {
		_, err := catalog.Create(components.KindCounter, "motor", nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = catalog.Create(components.KindCounter, "motor", nil)
		Expect(err).To(MatchError(components.ErrDuplicateComponent))
		Expect(catalog.Add(components.NewCounter("motor"))).To(MatchError(components.ErrDuplicateComponent))
	})

	It("should list names sorted", func() {
		Expect(catalog.Add(components.NewCounter("b"))).To(Succeed())
		Expect(catalog.Add(components.NewCounter("a"))).To(Succeed())
		Expect(catalog.Names()).To(Equal([]string{"a", "b"}))

		_, err := catalog.Get("c")
		Expect(err).To(MatchError(components.ErrUnknownComponent))
	})
})
