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

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"github.com/united-manufacturing-hub/component-runtime/pkg/components"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/latency"
	"github.com/united-manufacturing-hub/component-runtime/pkg/manager"
	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
)

type codeResponse struct {
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
}

type componentView struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type contextView struct {
	Profile    executioncontext.Profile `json:"profile"`
	Running    bool                     `json:"running"`
	Components []componentView          `json:"components"`
	Latency    latency.Summary          `json:"latency"`
}

type rateBody struct {
	Rate *float64 `json:"rate"`
}

type bindBody struct {
	Name string `json:"name"`
}

// statusFor maps a return code to the HTTP status of the response.
func statusFor(code rtc.ReturnCode) int {
	switch code {
	case rtc.OK:
		return http.StatusOK
	case rtc.BadParameter:
		return http.StatusBadRequest
	case rtc.PreconditionNotMet:
		return http.StatusConflict
	case rtc.Unsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes body with go-json.
func (s *Server) writeJSON(c *gin.Context, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentAPI, c.FullPath(), err, s.logger)
		c.String(http.StatusInternalServerError, "encoding response failed")

		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func (s *Server) writeCode(c *gin.Context, code rtc.ReturnCode) {
	s.writeJSON(c, statusFor(code), codeResponse{Code: code.String()})
}

// writeError answers with 404 for unknown names, with the status of the
// return code for rejected operations and with 500 otherwise.
func (s *Server) writeError(c *gin.Context, err error) {
	var codeErr *rtc.CodeError

	switch {
	case errors.Is(err, manager.ErrUnknownContext), errors.Is(err, components.ErrUnknownComponent):
		s.writeJSON(c, http.StatusNotFound, codeResponse{Code: rtc.BadParameter.String(), Error: err.Error()})
	case errors.As(err, &codeErr):
		s.writeJSON(c, statusFor(codeErr.Code), codeResponse{Code: codeErr.Code.String(), Error: err.Error()})
	default:
		metrics.IncErrorCountAndLog(metrics.ComponentAPI, c.FullPath(), err, s.logger)
		s.writeJSON(c, http.StatusInternalServerError, codeResponse{Code: rtc.Error.String(), Error: err.Error()})
	}
}

func (s *Server) context(c *gin.Context) (executioncontext.ExecutionContext, bool) {
	ec, err := s.manager.Context(c.Param("ec"))
	if err != nil {
		s.writeError(c, err)

		return nil, false
	}

	return ec, true
}

// boundComponent resolves :comp and checks that it is bound to ec.
func (s *Server) boundComponent(c *gin.Context, ec executioncontext.ExecutionContext) (rtc.Component, bool) {
	comp, err := s.manager.Component(c.Param("comp"))
	if err != nil {
		s.writeError(c, err)

		return nil, false
	}

	for _, bound := range ec.Components() {
		if bound == comp {
			return comp, true
		}
	}

	s.writeError(c, fmt.Errorf("%q is not bound to %q: %w", comp.InstanceName(), ec.Name(), components.ErrUnknownComponent))

	return nil, false
}

func describe(ec executioncontext.ExecutionContext) contextView {
	view := contextView{
		Profile:    ec.GetProfile(),
		Running:    ec.IsRunning(),
		Latency:    ec.CycleLatency(),
		Components: []componentView{},
	}
	for _, comp := range ec.Components() {
		view.Components = append(view.Components, componentView{
			Name:  comp.InstanceName(),
			State: ec.GetComponentState(comp).String(),
		})
	}

	return view
}

func (s *Server) listContexts(c *gin.Context) {
	contexts := s.manager.Contexts()
	out := make([]contextView, 0, len(contexts))
	for _, ec := range contexts {
		out = append(out, describe(ec))
	}
	s.writeJSON(c, http.StatusOK, out)
}

func (s *Server) getContext(c *gin.Context) {
	ec, ok := s.context(c)
	if !ok {
		return
	}
	s.writeJSON(c, http.StatusOK, describe(ec))
}

func (s *Server) startContext(c *gin.Context) {
	if ec, ok := s.context(c); ok {
		s.writeCode(c, ec.Start())
	}
}

func (s *Server) stopContext(c *gin.Context) {
	if ec, ok := s.context(c); ok {
		s.writeCode(c, ec.Stop())
	}
}

func (s *Server) tickContext(c *gin.Context) {
	if ec, ok := s.context(c); ok {
		s.writeCode(c, ec.Tick())
	}
}

func (s *Server) getRate(c *gin.Context) {
	ec, ok := s.context(c)
	if !ok {
		return
	}
	rate := ec.GetRate()
	s.writeJSON(c, http.StatusOK, rateBody{Rate: &rate})
}

func (s *Server) setRate(c *gin.Context) {
	ec, ok := s.context(c)
	if !ok {
		return
	}

	var body rateBody
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil || body.Rate == nil {
		s.writeJSON(c, http.StatusBadRequest, codeResponse{Code: rtc.BadParameter.String(), Error: "body must be {\"rate\": <number>}"})

		return
	}

	s.writeCode(c, ec.SetRate(*body.Rate))
}

func (s *Server) bindComponent(c *gin.Context) {
	if _, ok := s.context(c); !ok {
		return
	}

	var body bindBody
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil || body.Name == "" {
		s.writeJSON(c, http.StatusBadRequest, codeResponse{Code: rtc.BadParameter.String(), Error: "body must be {\"name\": <component>}"})

		return
	}

	if err := s.manager.Bind(c.Param("ec"), body.Name); err != nil {
		s.writeError(c, err)

		return
	}
	s.writeCode(c, rtc.OK)
}

func (s *Server) unbindComponent(c *gin.Context) {
	if err := s.manager.Unbind(c.Param("ec"), c.Param("comp")); err != nil {
		s.writeError(c, err)

		return
	}
	s.writeCode(c, rtc.OK)
}

func (s *Server) getComponent(c *gin.Context) {
	ec, ok := s.context(c)
	if !ok {
		return
	}
	comp, ok := s.boundComponent(c, ec)
	if !ok {
		return
	}
	s.writeJSON(c, http.StatusOK, componentView{
		Name:  comp.InstanceName(),
		State: ec.GetComponentState(comp).String(),
	})
}

func (s *Server) activateComponent(c *gin.Context) {
	s.lifecycle(c, executioncontext.ExecutionContext.ActivateComponent)
}

func (s *Server) deactivateComponent(c *gin.Context) {
	s.lifecycle(c, executioncontext.ExecutionContext.DeactivateComponent)
}

func (s *Server) resetComponent(c *gin.Context) {
	s.lifecycle(c, executioncontext.ExecutionContext.ResetComponent)
}

func (s *Server) lifecycle(c *gin.Context, op func(executioncontext.ExecutionContext, rtc.Component) rtc.ReturnCode) {
	ec, ok := s.context(c)
	if !ok {
		return
	}
	comp, ok := s.boundComponent(c, ec)
	if !ok {
		return
	}
	s.writeCode(c, op(ec, comp))
}
