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

// Package api exposes the execution contexts of a manager over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/manager"
	"github.com/united-manufacturing-hub/component-runtime/pkg/sentry"
)

// Server serves the admin API.
type Server struct {
	manager *manager.Manager
	logger  *zap.SugaredLogger
	router  *gin.Engine
}

// NewServer builds the router for mgr. Debug mode enables gin's route dump.
func NewServer(mgr *manager.Manager, log *zap.SugaredLogger, debug bool) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(log.Desugar(), time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(log.Desugar(), true))

	s := &Server{
		manager: mgr,
		logger:  log,
		router:  router,
	}
	s.routes()

	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the API on addr in the background. The returned
// server is used for shutdown.
func (s *Server) ListenAndServe(addr string) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Infof("Starting admin API on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssue(fmt.Errorf("admin API stopped: %w", err), sentry.IssueTypeError, s.logger)
		}
	}()

	return server
}

func (s *Server) routes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})

	v1 := s.router.Group("/v1")
	{
		v1.GET("/contexts", s.listContexts)

		ec := v1.Group("/contexts/:ec")
		ec.GET("", s.getContext)
		ec.POST("/start", s.startContext)
		ec.POST("/stop", s.stopContext)
		ec.POST("/tick", s.tickContext)
		ec.GET("/rate", s.getRate)
		ec.PUT("/rate", s.setRate)

		ec.POST("/components", s.bindComponent)
		ec.GET("/components/:comp", s.getComponent)
		ec.DELETE("/components/:comp", s.unbindComponent)
		ec.POST("/components/:comp/activate", s.activateComponent)
		ec.POST("/components/:comp/deactivate", s.deactivateComponent)
		ec.POST("/components/:comp/reset", s.resetComponent)
	}
}
