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

package executioncontext_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ec "github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

func baseFactory(cfg ec.Config) (ec.ExecutionContext, error) {
	return ec.NewBase(cfg, "BaseExecutionContext", rtc.Other)
}

var _ = Describe("Registry", func() {
	var registry *ec.Registry

	BeforeEach(func() {
		registry = ec.NewRegistry()
		Expect(registry.Register("BaseExecutionContext", baseFactory)).To(Succeed())
	})

	It("should reject duplicate and incomplete registrations", func() {
		err := registry.Register("BaseExecutionContext", baseFactory)
		Expect(errors.Is(err, ec.ErrDuplicateType)).To(BeTrue())
		Expect(registry.Register("", baseFactory)).NotTo(Succeed())
		Expect(registry.Register("Nil", nil)).NotTo(Succeed())
	})

	It("should list registered types in order", func() {
		Expect(registry.Register("AnotherExecutionContext", baseFactory)).To(Succeed())
		Expect(registry.Types()).To(Equal([]string{"AnotherExecutionContext", "BaseExecutionContext"}))
	})

	It("should create instances with unique handles", func() {
		first, err := registry.Create("BaseExecutionContext", "first", nil)
		Expect(err).NotTo(HaveOccurred())
		second, err := registry.Create("BaseExecutionContext", "second", rtc.Properties{"rate": "50"})
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Name()).To(Equal("first"))
		Expect(first.TypeName()).To(Equal("BaseExecutionContext"))
		Expect(second.GetRate()).To(Equal(50.0))
		Expect(first.Handle()).NotTo(Equal(second.Handle()))
	})

	It("should report unknown types", func() {
		_, err := registry.Create("Missing", "x", nil)
		Expect(errors.Is(err, ec.ErrUnknownType)).To(BeTrue())
	})

	It("should wrap factory errors", func() {
		_, err := registry.Create("BaseExecutionContext", "broken", rtc.Properties{"rate": "-1"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("broken"))
	})
})
