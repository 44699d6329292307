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

package env_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/component-runtime/pkg/env"
)

var _ = Describe("Env", func() {
	const key = "EC_ENV_TEST_VALUE"

	AfterEach(func() {
		Expect(os.Unsetenv(key)).To(Succeed())
	})

	It("should fall back when the variable is unset or blank", func() {
		Expect(env.String(key, "fallback")).To(Equal("fallback"))

		Expect(os.Setenv(key, "   ")).To(Succeed())
		v, err := env.Int(key, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(7))
	})

	It("should parse typed values", func() {
		Expect(os.Setenv(key, "42")).To(Succeed())
		i, err := env.Int(key, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(42))

		f, err := env.Float(key, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(42.0))

		Expect(os.Setenv(key, "YES")).To(Succeed())
		b, err := env.Bool(key, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeTrue())

		Expect(os.Setenv(key, "250ms")).To(Succeed())
		d, err := env.Duration(key, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(250 * time.Millisecond))
	})

	It("should report malformed values and keep the fallback", func() {
		Expect(os.Setenv(key, "fast")).To(Succeed())

		i, err := env.Int(key, 3)
		Expect(err).To(HaveOccurred())
		Expect(i).To(Equal(3))

		_, err = env.Float(key, 1)
		Expect(err).To(HaveOccurred())

		b, err := env.Bool(key, true)
		Expect(err).To(HaveOccurred())
		Expect(b).To(BeTrue())
	})
})
