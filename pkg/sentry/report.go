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
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type IssueType string

const (
	IssueTypeWarning IssueType = "warning"
	IssueTypeError   IssueType = "error"
	IssueTypeFatal   IssueType = "fatal"
)

// debounceWindow is the minimum time between two reports with the same title.
const debounceWindow = 2 * time.Hour

var (
	lastSent   = make(map[string]time.Time)
	lastSentMu sync.Mutex
)

// shouldSend records the report and tells whether the debounce window allows it.
func shouldSend(issueType IssueType, err error) bool {
	if !debounce.Load() {
		return true
	}
	key := string(issueType) + "|" + issueTitle(err)

	lastSentMu.Lock()
	defer lastSentMu.Unlock()

	if at, ok := lastSent[key]; ok && time.Since(at) < debounceWindow {
		return false
	}
	lastSent[key] = time.Now()

	return true
}

// ReportIssue logs err and forwards it to sentry. Fatal issues panic after
// the event was flushed.
func ReportIssue(err error, issueType IssueType, log *zap.SugaredLogger) {
	ReportIssueWithContext(err, issueType, log, nil)
}

// ReportIssuef formats an error message and reports it.
func ReportIssuef(issueType IssueType, log *zap.SugaredLogger, template string, args ...interface{}) {
	ReportIssue(fmt.Errorf(template, args...), issueType, log)
}

// ReportIssueWithContext reports an issue with additional context data that will be included in Sentry.
func ReportIssueWithContext(err error, issueType IssueType, log *zap.SugaredLogger, extra map[string]interface{}) {
	if err == nil {
		return
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	switch issueType {
	case IssueTypeFatal:
		log.Errorf("The component runtime has encountered a fatal error and will now terminate: %s", err)
		log.Errorf("Stack trace: %s", string(debug.Stack()))
		if enabled.Load() {
			capture(newEvent(sentry.LevelFatal, err, extra))
			sentry.Flush(5 * time.Second)
		}
		log.Panic("Fatal error")
	case IssueTypeError:
		log.Error(err)
		if enabled.Load() && shouldSend(issueType, err) {
			capture(newEvent(sentry.LevelError, err, extra))
		}
	default:
		log.Warn(err)
		if enabled.Load() && shouldSend(issueType, err) {
			capture(newEvent(sentry.LevelWarning, err, extra))
		}
	}
}

// ReportComponentPanic reports a panic recovered from a component callback.
func ReportComponentPanic(log *zap.SugaredLogger, ecName, componentName, callback string, recovered interface{}) {
	err := fmt.Errorf("component %s panicked in %s on execution context %s: %v", componentName, callback, ecName, recovered)
	ReportIssueWithContext(err, IssueTypeError, log, map[string]interface{}{
		"execution_context": ecName,
		"component":         componentName,
		"callback":          callback,
	})
}

// ReportExecutionContextErrorf reports a scheduler-level fault of an execution context.
func ReportExecutionContextErrorf(log *zap.SugaredLogger, ecName, operation, template string, args ...interface{}) {
	ReportIssueWithContext(fmt.Errorf(template, args...), IssueTypeError, log, map[string]interface{}{
		"execution_context": ecName,
		"operation":         operation,
	})
}
