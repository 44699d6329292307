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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/api"
	"github.com/united-manufacturing-hub/component-runtime/pkg/backoff"
	"github.com/united-manufacturing-hub/component-runtime/pkg/components"
	"github.com/united-manufacturing-hub/component-runtime/pkg/config"
	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
	"github.com/united-manufacturing-hub/component-runtime/pkg/env"
	"github.com/united-manufacturing-hub/component-runtime/pkg/executioncontext"
	"github.com/united-manufacturing-hub/component-runtime/pkg/logger"
	"github.com/united-manufacturing-hub/component-runtime/pkg/manager"
	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/sentry"
	"github.com/united-manufacturing-hub/component-runtime/pkg/version"
)

func main() {
	// Initialize the global logger first thing
	logger.Initialize()

	sentry.InitSentry(version.GetAppVersion(), env.String(constants.EnvSentryDSN, ""), true)

	log := logger.For(logger.ComponentCore)
	log.Infof("Starting component runtime %s...", version.GetAppVersion())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := env.String(constants.EnvConfigPath, constants.DefaultConfigPath)
	cfg, err := loadConfig(ctx, configPath, logger.For(logger.ComponentConfig))
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to load config: %w", err)
		os.Exit(1)
	}

	metricsServer := metrics.SetupMetricsEndpoint(fmt.Sprintf(":%d", cfg.Agent.MetricsPort))
	defer shutdownServer(metricsServer.Shutdown, "metrics", log)

	registry := executioncontext.NewRegistry()
	if err := manager.RegisterBuiltins(registry); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to register execution contexts: %w", err)
		os.Exit(1)
	}

	mgr := manager.New(registry, components.NewCatalog(), logger.For(logger.ComponentManager))
	if err := mgr.Load(cfg); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeFatal, log, "Failed to build execution contexts: %w", err)
		os.Exit(1)
	}

	debug, err := env.Bool(constants.EnvAPIDebug, false)
	if err != nil {
		log.Warnf("Ignoring %s: %s", constants.EnvAPIDebug, err)
	}
	apiServer := api.NewServer(mgr, logger.For(logger.ComponentAPI), debug).
		ListenAndServe(fmt.Sprintf(":%d", cfg.Agent.APIPort))
	defer shutdownServer(apiServer.Shutdown, "admin API", log)

	if err := mgr.StartAll(ctx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Not every execution context started: %w", err)
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := mgr.StopAll(stopCtx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to stop execution contexts: %w", err)
	}

	_ = logger.Sync()
}

// loadConfig waits for the configuration file while it is missing and gives
// up immediately on a file that cannot be used.
func loadConfig(ctx context.Context, path string, log *zap.SugaredLogger) (config.FullConfig, error) {
	var cfg config.FullConfig

	err := backoff.Poll(ctx, backoff.PollConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Timeout:         constants.ConfigLoadTimeout,
	}, func() (bool, error) {
		loaded, err := config.Load(path)
		if err == nil {
			cfg = loaded

			return true, nil
		}
		if backoff.IsTransientError(err) {
			log.Warnf("Config not ready, retrying: %s", err)

			return false, nil
		}

		return false, err
	})
	if err != nil {
		return config.FullConfig{}, err
	}

	log.Infof("Loaded %d components and %d execution contexts from %s",
		len(cfg.Components), len(cfg.ExecutionContexts), path)

	return cfg, nil
}

func shutdownServer(shutdown func(context.Context) error, name string, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown %s server: %w", name, err)
	}
}
