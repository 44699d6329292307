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

package starvationchecker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/component-runtime/pkg/metrics"
	"github.com/united-manufacturing-hub/component-runtime/pkg/sentry"
)

// StarvationChecker watches an execution loop from the outside. The loop calls
// Beat once per cycle; a background goroutine reports the loop as starved
// whenever no beat arrived within the threshold, even if the loop itself is
// completely blocked inside a component callback.
type StarvationChecker struct {
	lastBeat  time.Time
	ctx       context.Context //nolint:containedctx // background service lifecycle
	logger    *zap.SugaredLogger
	cancel    context.CancelFunc
	name      string
	wg        sync.WaitGroup
	threshold time.Duration
	interval  time.Duration
	starved   atomic.Int64
	stopOnce  sync.Once
	mutex     sync.RWMutex
}

// NewStarvationChecker creates and starts a checker for the loop called name.
// It must be stopped with Stop.
func NewStarvationChecker(name string, threshold time.Duration, log *zap.SugaredLogger) *StarvationChecker {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &StarvationChecker{
		name:      name,
		threshold: threshold,
		interval:  checkInterval(threshold),
		lastBeat:  time.Now(),
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}

	checker.wg.Add(1)

	go checker.checkStarvationLoop()

	checker.logger.Debugf("Starvation checker for %s created with threshold %s", name, threshold)

	return checker
}

// checkInterval polls four times per threshold, between 10ms and one second.
func checkInterval(threshold time.Duration) time.Duration {
	interval := threshold / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > time.Second {
		interval = time.Second
	}

	return interval
}

func (s *StarvationChecker) checkStarvationLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			sinceLastBeat := time.Since(s.GetLastBeat())
			if sinceLastBeat <= s.threshold {
				continue
			}

			s.starved.Add(1)
			metrics.AddStarvationTime(s.name, s.interval.Seconds())
			sentry.ReportIssuef(sentry.IssueTypeWarning, s.logger,
				"[StarvationChecker] execution loop %s starved: %.2f seconds since last cycle", s.name, sinceLastBeat.Seconds())
		}
	}
}

// Stop terminates the background goroutine. Safe to call more than once.
func (s *StarvationChecker) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.logger.Debugf("Starvation checker for %s stopped", s.name)
	})
}

// Beat marks the current time as the end of the most recent cycle.
func (s *StarvationChecker) Beat() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastBeat = time.Now()
}

// GetLastBeat returns the time of the most recent Beat.
func (s *StarvationChecker) GetLastBeat() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.lastBeat
}

// StarvedChecks returns how many checks found the loop starved.
func (s *StarvationChecker) StarvedChecks() int64 {
	return s.starved.Load()
}
