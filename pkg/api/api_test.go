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

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/united-manufacturing-hub/component-runtime/pkg/api"
	"github.com/united-manufacturing-hub/component-runtime/pkg/components"
	"github.com/united-manufacturing-hub/component-runtime/pkg/config"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/manager"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

const apiConfig = `
components:
  - name: motor
  - name: sensor
executionContexts:
  - name: sim
    type: SimulatorExecutionContext
    components: [motor]
  - name: loop
    type: PeriodicExecutionContext
    properties:
      rate: "100"
    autoStart: false
`

type codeResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

var _ = Describe("Admin API", func() {
	var (
		handler http.Handler
		mgr     *manager.Manager
		catalog *components.Catalog
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	code := func(rec *httptest.ResponseRecorder) string {
		var resp codeResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())

		return resp.Code
	}

	BeforeEach(func() {
		log := zaptest.NewLogger(GinkgoT()).Sugar()

		registry := executioncontext.NewRegistry()
		Expect(manager.RegisterBuiltins(registry)).To(Succeed())
		catalog = components.NewCatalog()
		mgr = manager.New(registry, catalog, log)

		cfg, err := config.Parse([]byte(apiConfig))
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.Load(cfg)).To(Succeed())

		handler = api.NewServer(mgr, log, false).Handler()

		DeferCleanup(func() {
			Expect(mgr.StopAll(context.Background())).To(Succeed())
		})
	})

	It("should answer the health check", func() {
		rec := do(http.MethodGet, "/", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("online"))
	})

	It("should list every context", func() {
		rec := do(http.MethodGet, "/v1/contexts", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var out []struct {
			Profile struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"profile"`
			Running bool `json:"running"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		Expect(out).To(HaveLen(2))
		Expect(out[0].Profile.Name).To(Equal("sim"))
		Expect(out[1].Profile.Type).To(Equal("PeriodicExecutionContext"))
	})

	It("should return 404 for unknown contexts and components", func() {
		Expect(do(http.MethodGet, "/v1/contexts/nope", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/v1/contexts/sim/components/ghost", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/v1/contexts/sim/components/sensor", "").Code).To(Equal(http.StatusNotFound))
	})

	It("should drive a component through its lifecycle", func() {
		rec := do(http.MethodPost, "/v1/contexts/sim/start", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(code(rec)).To(Equal(rtc.OK.String()))

		rec = do(http.MethodPost, "/v1/contexts/sim/components/motor/activate", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = do(http.MethodGet, "/v1/contexts/sim/components/motor", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"state":"ACTIVE"`))

		rec = do(http.MethodPost, "/v1/contexts/sim/components/motor/activate", "")
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(code(rec)).To(Equal(rtc.PreconditionNotMet.String()))

		rec = do(http.MethodPost, "/v1/contexts/sim/components/motor/reset", "")
		Expect(rec.Code).To(Equal(http.StatusConflict))

		rec = do(http.MethodPost, "/v1/contexts/sim/components/motor/deactivate", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/v1/contexts/sim/components/motor", "").Body.String()).
			To(ContainSubstring(`"state":"INACTIVE"`))
	})

	It("should map a failed callback to 500", func() {
		comp, err := mgr.Component("motor")
		Expect(err).NotTo(HaveOccurred())
		comp.(*components.Counter).SetResult(executioncontext.CallbackOnActivated, rtc.Error)

		Expect(do(http.MethodPost, "/v1/contexts/sim/start", "").Code).To(Equal(http.StatusOK))
		rec := do(http.MethodPost, "/v1/contexts/sim/components/motor/activate", "")
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(do(http.MethodPost, "/v1/contexts/sim/tick", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/v1/contexts/sim/components/motor", "").Body.String()).
			To(ContainSubstring(`"state":"ERROR"`))

		comp.(*components.Counter).SetResult(executioncontext.CallbackOnActivated, rtc.OK)
		Expect(do(http.MethodPost, "/v1/contexts/sim/components/motor/reset", "").Code).To(Equal(http.StatusOK))
	})

	It("should tick only while running", func() {
		Expect(do(http.MethodPost, "/v1/contexts/sim/tick", "").Code).To(Equal(http.StatusConflict))
		Expect(do(http.MethodPost, "/v1/contexts/sim/start", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, "/v1/contexts/sim/tick", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, "/v1/contexts/sim/stop", "").Code).To(Equal(http.StatusOK))
	})

	It("should report Tick as unsupported on self-driven contexts", func() {
		rec := do(http.MethodPost, "/v1/contexts/loop/tick", "")
		Expect(rec.Code).To(Equal(http.StatusNotImplemented))
		Expect(code(rec)).To(Equal(rtc.Unsupported.String()))
	})

	It("should read and change the rate", func() {
		rec := do(http.MethodGet, "/v1/contexts/loop/rate", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"rate":100}`))

		Expect(do(http.MethodPut, "/v1/contexts/loop/rate", `{"rate":250}`).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/v1/contexts/loop/rate", "").Body.String()).To(MatchJSON(`{"rate":250}`))

		Expect(do(http.MethodPut, "/v1/contexts/loop/rate", `{"rate":-1}`).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPut, "/v1/contexts/loop/rate", `{}`).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPut, "/v1/contexts/loop/rate", `not json`).Code).To(Equal(http.StatusBadRequest))
	})

	It("should bind and unbind components", func() {
		rec := do(http.MethodPost, "/v1/contexts/loop/components", `{"name":"sensor"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/v1/contexts/loop/components/sensor", "").Code).To(Equal(http.StatusOK))

		rec = do(http.MethodPost, "/v1/contexts/loop/components", `{"name":"sensor"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		Expect(do(http.MethodPost, "/v1/contexts/loop/components", `{"name":"ghost"}`).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodPost, "/v1/contexts/loop/components", `{}`).Code).To(Equal(http.StatusBadRequest))

		Expect(do(http.MethodDelete, "/v1/contexts/loop/components/sensor", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/v1/contexts/loop/components/sensor", "").Code).To(Equal(http.StatusNotFound))
	})

	It("should expose the profile of one context", func() {
		rec := do(http.MethodGet, "/v1/contexts/sim", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"participants":["motor"]`))
		Expect(rec.Body.String()).To(ContainSubstring(`"components":[{"name":"motor","state":"INACTIVE"}]`))
	})
})
