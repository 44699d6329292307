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

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/logger"
	"github.com/united-manufacturing-hub/component-runtime/pkg/rtc"
	"github.com/united-manufacturing-hub/component-runtime/pkg/sentry"
)

const (
	// Component labels.
	ComponentExecutionContext = "execution_context"
	ComponentStateMachine     = "component_state_machine"
	ComponentManager          = "manager"
	ComponentAPI              = "api"
	ComponentConfig           = "config"
)

var (
	namespace = "rtc"
	subsystem = "runtime"

	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	cycleTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_duration_milliseconds",
			Help:      "Time taken by one execution cycle (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.01,
			},
		},
		[]string{"context"},
	)

	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "Total number of execution cycles run by an execution context",
		},
		[]string{"context"},
	)

	cycleOverruns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_overruns_total",
			Help:      "Total number of cycles that took longer than the configured period",
		},
		[]string{"context"},
	)

	callbackFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "callback_failures_total",
			Help:      "Total number of component callbacks that returned an error code or panicked",
		},
		[]string{"context", "component", "callback"},
	)

	componentState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "component_state",
			Help:      "Current lifecycle state of a component (0=Created, 1=Inactive, 2=Active, 3=Error)",
		},
		[]string{"context", "component"},
	)

	childCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "child_cycles_total",
			Help:      "Total number of cycles run by a child task of a composite execution context",
		},
		[]string{"context", "child"},
	)

	starvationSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "starved_total_seconds",
			Help:      "Total seconds an execution loop was starved",
		},
		[]string{"loop"},
	)

	contextRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "context_running",
			Help:      "Whether an execution context is running (1) or stopped (0)",
		},
		[]string{"context", "kind"},
	)
)

// SetupMetricsEndpoint starts an HTTP server exposing /metrics.
// It should be called once at application startup.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssue(err, sentry.IssueTypeError, logger.For(logger.ComponentMetrics))
		}
	}()

	return server
}

// IncErrorCountAndLog increments the error counter and logs err at debug level if a logger is given.
func IncErrorCountAndLog(component, instance string, err error, log *zap.SugaredLogger) {
	IncErrorCount(component, instance)

	if log != nil {
		log.Debugf("%s %s failed: %v", component, instance, err)
	}
}

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// ObserveCycleTime records the duration of one execution cycle.
func ObserveCycleTime(context string, duration time.Duration) {
	cycleTime.WithLabelValues(context).Observe(float64(duration.Microseconds()) / 1000.0)
	cyclesTotal.WithLabelValues(context).Inc()
}

// IncCycleOverrun counts a cycle that exceeded its period.
func IncCycleOverrun(context string) {
	cycleOverruns.WithLabelValues(context).Inc()
}

// IncCallbackFailure counts a failed or panicking component callback.
func IncCallbackFailure(context, component, callback string) {
	callbackFailures.WithLabelValues(context, component, callback).Inc()
}

// SetComponentState publishes the committed lifecycle state of a component.
func SetComponentState(context, component string, state rtc.LifeCycleState) {
	componentState.WithLabelValues(context, component).Set(float64(state))
}

// DeleteComponentState drops the state series of an unbound component.
func DeleteComponentState(context, component string) {
	componentState.DeleteLabelValues(context, component)
}

// IncChildCycle counts one cycle of a child task.
func IncChildCycle(context, child string) {
	childCycles.WithLabelValues(context, child).Inc()
}

// AddStarvationTime adds starved seconds for the named loop.
func AddStarvationTime(loop string, seconds float64) {
	starvationSeconds.WithLabelValues(loop).Add(seconds)
}

// SetContextRunning publishes the run state of an execution context.
func SetContextRunning(context string, kind rtc.ExecutionKind, running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	contextRunning.WithLabelValues(context, kind.String()).Set(value)
}
