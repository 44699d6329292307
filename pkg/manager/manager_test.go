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

package manager_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/united-manufacturing-hub/component-runtime/pkg/components"
	"github.com/united-manufacturing-hub/component-runtime/pkg/config"
	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/manager"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

const managerConfig = `
components:
  - name: motor
    activate: true
  - name: sensor
  - name: arm
    kind: composite
    members: [motor, sensor]
executionContexts:
  - name: sim
    type: SimulatorExecutionContext
    owner: arm
    components: [motor, sensor]
  - name: control
    type: PeriodicExecutionContext
    properties:
      rate: "200"
    autoStart: false
`

var _ = Describe("Manager", func() {
	var (
		mgr     *manager.Manager
		catalog *components.Catalog
	)

	BeforeEach(func() {
		registry := executioncontext.NewRegistry()
		Expect(manager.RegisterBuiltins(registry)).To(Succeed())
		Expect(registry.Types()).To(ConsistOf(
			constants.PeriodicExecutionContextType,
			constants.ExtTrigExecutionContextType,
			constants.SimulatorExecutionContextType,
			constants.MultilayerExecutionContextType,
		))

		catalog = components.NewCatalog()
		mgr = manager.New(registry, catalog, zaptest.NewLogger(GinkgoT()).Sugar())

		cfg, err := config.Parse([]byte(managerConfig))
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.Load(cfg)).To(Succeed())

		DeferCleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			Expect(mgr.StopAll(ctx)).To(Succeed())
		})
	})

	It("should create contexts in configuration order", func() {
		names := []string{}
		for _, ec := range mgr.Contexts() {
			names = append(names, ec.Name())
		}
		Expect(names).To(Equal([]string{"sim", "control"}))

		ec, err := mgr.Context("control")
		Expect(err).NotTo(HaveOccurred())
		Expect(ec.GetRate()).To(Equal(200.0))
		Expect(ec.TypeName()).To(Equal(constants.PeriodicExecutionContextType))
	})

	It("should record the owner in the profile", func() {
		ec, err := mgr.Context("sim")
		Expect(err).NotTo(HaveOccurred())
		profile := ec.GetProfile()
		Expect(profile.Owner).To(Equal("arm"))
		Expect(profile.Participants).To(ConsistOf("motor", "sensor"))
	})

	It("should bind and activate configured components", func() {
		ec, err := mgr.Context("sim")
		Expect(err).NotTo(HaveOccurred())
		motor, err := mgr.Component("motor")
		Expect(err).NotTo(HaveOccurred())
		sensor, err := mgr.Component("sensor")
		Expect(err).NotTo(HaveOccurred())

		Expect(mgr.StartAll(context.Background())).To(Succeed())
		Expect(ec.IsRunning()).To(BeTrue())
		Expect(ec.Tick()).To(Equal(rtc.OK))

		Expect(ec.GetComponentState(motor)).To(Equal(rtc.ActiveState))
		Expect(ec.GetComponentState(sensor)).To(Equal(rtc.InactiveState))
	})

	It("should leave contexts without auto start stopped", func() {
		Expect(mgr.StartAll(context.Background())).To(Succeed())

		ec, err := mgr.Context("control")
		Expect(err).NotTo(HaveOccurred())
		Expect(ec.IsRunning()).To(BeFalse())
	})

	It("should stop every running context", func() {
		Expect(mgr.StartAll(context.Background())).To(Succeed())
		Expect(mgr.StopAll(context.Background())).To(Succeed())

		for _, ec := range mgr.Contexts() {
			Expect(ec.IsRunning()).To(BeFalse())
		}
	})

	It("should bind and unbind components by name", func() {
		Expect(mgr.Bind("control", "arm")).To(Succeed())
		ec, err := mgr.Context("control")
		Expect(err).NotTo(HaveOccurred())
		Expect(ec.Components()).To(HaveLen(1))

		err = mgr.Bind("control", "arm")
		var codeErr *rtc.CodeError
		Expect(errors.As(err, &codeErr)).To(BeTrue())
		Expect(codeErr.Code).To(Equal(rtc.BadParameter))

		Expect(mgr.Unbind("control", "arm")).To(Succeed())
		Expect(ec.Components()).To(BeEmpty())
	})

	It("should report unknown names", func() {
		Expect(mgr.Bind("nope", "motor")).To(MatchError(manager.ErrUnknownContext))
		Expect(mgr.Bind("sim", "ghost")).To(MatchError(components.ErrUnknownComponent))

		_, err := mgr.Context("nope")
		Expect(err).To(MatchError(manager.ErrUnknownContext))
	})

	It("should reject a second context with the same name", func() {
		_, err := mgr.Create(constants.PeriodicExecutionContextType, "sim", nil)
		Expect(err).To(MatchError(manager.ErrDuplicateContext))
	})

	It("should refuse to load the same components twice", func() {
		cfg, err := config.Parse([]byte(managerConfig))
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.Load(cfg)).To(MatchError(components.ErrDuplicateComponent))
	})
})
