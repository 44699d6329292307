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

package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/component-runtime/pkg/backoff"
	"github.com/united-manufacturing-hub/component-runtime/pkg/config"
	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
)

const sampleConfig = `
agent:
  metricsPort: 9100
  apiPort: 9101
  defaultRate: 500
components:
  - name: motor
  - name: sensor
  - name: arm
    kind: composite
    members: [motor, sensor]
executionContexts:
  - name: control
    type: PeriodicExecutionContext
    components: [motor]
  - name: composite
    type: MultilayerCompositeExecutionContext
    owner: arm
    properties:
      rate: "100"
      members: "motor|sensor"
    components: [arm]
    autoStart: false
`

var _ = Describe("Config", func() {
	BeforeEach(func() {
		for _, key := range []string{constants.EnvMetricsPort, constants.EnvAPIPort, constants.EnvDefaultRate} {
			Expect(os.Unsetenv(key)).To(Succeed())
		}
	})

	Describe("Parse", func() {
		It("should decode a full document", func() {
			cfg, err := config.Parse([]byte(sampleConfig))
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.Agent.MetricsPort).To(Equal(9100))
			Expect(cfg.Agent.APIPort).To(Equal(9101))
			Expect(cfg.Components).To(HaveLen(3))
			Expect(cfg.Components[2].Members).To(Equal([]string{"motor", "sensor"}))
			Expect(cfg.ExecutionContexts).To(HaveLen(2))
			Expect(cfg.ExecutionContexts[0].ShouldAutoStart()).To(BeTrue())
			Expect(cfg.ExecutionContexts[1].ShouldAutoStart()).To(BeFalse())
			Expect(cfg.ExecutionContexts[1].Owner).To(Equal("arm"))
		})

		It("should fill the default rate into contexts without one", func() {
			cfg, err := config.Parse([]byte(sampleConfig))
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.ExecutionContexts[0].Properties).To(HaveKeyWithValue(constants.PropRate, "500"))
			Expect(cfg.ExecutionContexts[1].Properties).To(HaveKeyWithValue(constants.PropRate, "100"))
		})

		It("should apply defaults to an empty document", func() {
			cfg, err := config.Parse(nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.Agent.MetricsPort).To(Equal(constants.DefaultMetricsPort))
			Expect(cfg.Agent.APIPort).To(Equal(constants.DefaultAPIPort))
			Expect(cfg.Agent.DefaultRate).To(Equal(constants.DefaultRate))
		})

		It("should let the environment override the agent section", func() {
			Expect(os.Setenv(constants.EnvMetricsPort, "7000")).To(Succeed())
			Expect(os.Setenv(constants.EnvDefaultRate, "250")).To(Succeed())
			DeferCleanup(func() {
				_ = os.Unsetenv(constants.EnvMetricsPort)
				_ = os.Unsetenv(constants.EnvDefaultRate)
			})

			cfg, err := config.Parse([]byte(sampleConfig))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Agent.MetricsPort).To(Equal(7000))
			Expect(cfg.Agent.APIPort).To(Equal(9101))
			Expect(cfg.ExecutionContexts[0].Properties).To(HaveKeyWithValue(constants.PropRate, "250"))
		})

		It("should reject malformed yaml as a permanent error", func() {
			_, err := config.Parse([]byte("agent: [\n"))
			Expect(err).To(HaveOccurred())
			Expect(backoff.IsPermanentError(err)).To(BeTrue())
		})

		It("should reject unknown fields", func() {
			_, err := config.Parse([]byte("agent:\n  metricPort: 1\n"))
			Expect(err).To(HaveOccurred())
			Expect(backoff.IsPermanentError(err)).To(BeTrue())
		})
	})

	Describe("Validate", func() {
		It("should reject duplicate component names", func() {
			_, err := config.Parse([]byte("components:\n  - name: a\n  - name: a\n"))
			Expect(err).To(MatchError(ContainSubstring("duplicate name \"a\"")))
		})

		It("should reject members declared after the composite", func() {
			doc := "components:\n  - name: arm\n    kind: composite\n    members: [motor]\n  - name: motor\n"
			_, err := config.Parse([]byte(doc))
			Expect(err).To(MatchError(ContainSubstring("must be declared before it")))
		})

		It("should reject unknown component references", func() {
			doc := "executionContexts:\n  - name: ec\n    type: PeriodicExecutionContext\n    components: [ghost]\n"
			_, err := config.Parse([]byte(doc))
			Expect(err).To(MatchError(ContainSubstring("unknown component \"ghost\"")))
		})

		It("should require a context type", func() {
			_, err := config.Parse([]byte("executionContexts:\n  - name: ec\n"))
			Expect(err).To(MatchError(ContainSubstring("type is required")))
		})

		It("should report every problem at once", func() {
			cfg := config.FullConfig{
				Agent:             config.AgentConfig{DefaultRate: -1},
				ExecutionContexts: []config.ExecutionContextConfig{{Name: "ec"}},
			}
			err := cfg.Validate()
			Expect(err).To(MatchError(ContainSubstring("defaultRate")))
			Expect(err).To(MatchError(ContainSubstring("type is required")))
		})
	})

	Describe("Load", func() {
		It("should treat a missing file as transient", func() {
			_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(HaveOccurred())
			Expect(backoff.IsTransientError(err)).To(BeTrue())
		})

		It("should load a file from disk", func() {
			path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
			Expect(os.WriteFile(path, []byte(sampleConfig), 0o600)).To(Succeed())

			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ExecutionContexts[0].Name).To(Equal("control"))
		})
	})

	Describe("Clone", func() {
		It("should not share maps or slices with its source", func() {
			cfg, err := config.Parse([]byte(sampleConfig))
			Expect(err).NotTo(HaveOccurred())

			clone := cfg.Clone()
			clone.ExecutionContexts[0].Properties[constants.PropRate] = "1"
			clone.Components[2].Members[0] = "changed"

			Expect(cfg.ExecutionContexts[0].Properties).To(HaveKeyWithValue(constants.PropRate, "500"))
			Expect(cfg.Components[2].Members[0]).To(Equal("motor"))

			out, err := config.Marshal(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("metricsPort: 9100"))
		})
	})
})
