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

package sentry

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/constants"
)

var (
	// debounce suppresses repeated reports of the same issue title.
	debounce atomic.Bool
	// enabled is true once a client was initialised.
	enabled atomic.Bool
)

func init() {
	debounce.Store(true)
}

// EnableTestMode disables debouncing for testing.
func EnableTestMode() {
	debounce.Store(false)
}

// DisableTestMode restores normal debouncing behavior.
func DisableTestMode() {
	debounce.Store(true)
}

// InitSentry initializes the sentry client. Development builds and builds
// without a DSN only log locally.
func InitSentry(appVersion, dsn string, debounceErrors bool) {
	debounce.Store(debounceErrors)

	if appVersion == "" || appVersion == constants.DefaultAppVersion || dsn == "" {
		zap.S().Debug("Sentry disabled for local development build")

		return
	}

	environment := constants.DefaultDevelopmentEnvironment
	version, err := semver.NewVersion(appVersion)
	if err != nil {
		zap.S().Errorf("Failed to parse app version, using default environment (development): %s", err)
	} else if version.Prerelease() == "" {
		environment = constants.DefaultProductionEnvironment
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     "component-runtime@" + appVersion,
	})
	if err != nil {
		zap.S().Errorf("Failed to initialize Sentry: %s", err)

		return
	}
	enabled.Store(true)
}

// issueTitle keeps the first phrase of the message so similar errors group together.
func issueTitle(err error) string {
	message := err.Error()
	if idx := strings.IndexAny(message, ".,:"); idx > 0 {
		message = message[:idx]
	}
	if len(message) > 100 {
		message = message[:97] + "..."
	}

	return message
}

func newEvent(level sentry.Level, err error, extra map[string]interface{}) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = level
	event.Message = err.Error()
	event.Exception = []sentry.Exception{{
		Type:       issueTitle(err),
		Value:      err.Error(),
		Stacktrace: sentry.ExtractStacktrace(err),
	}}

	if level == sentry.LevelFatal || level == sentry.LevelError {
		threads, stack := goroutinesAsThreads()
		event.Threads = threads
		event.Attachments = append(event.Attachments, &sentry.Attachment{
			Filename:    "stacktrace.txt",
			ContentType: "text/plain",
			Payload:     stack,
		})
	}

	if len(extra) > 0 {
		event.Extra = make(map[string]interface{}, len(extra))
		event.Tags = make(map[string]string, len(extra))
		for k, v := range extra {
			event.Extra[k] = v
			event.Tags[k] = fmt.Sprintf("%v", v)
		}
	}

	event.Fingerprint = []string{"{{ default }}", "level: " + string(level)}

	return event
}

func capture(event *sentry.Event) {
	if !enabled.Load() {
		return
	}
	sentry.CurrentHub().Clone().CaptureEvent(event)
}
