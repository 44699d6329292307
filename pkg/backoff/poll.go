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

package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
)

// ErrPollTimeout is returned by Poll when the condition did not hold in time.
var ErrPollTimeout = errors.New("condition not met before timeout")

// PollConfig bounds a Poll call.
type PollConfig struct {
	// InitialInterval is the first wait between two checks.
	InitialInterval time.Duration
	// MaxInterval caps the wait between two checks.
	MaxInterval time.Duration
	// Timeout is the overall budget. Zero means a single check.
	Timeout time.Duration
}

// ConditionFunc reports whether the awaited condition holds. A non-nil error
// aborts the poll immediately and is returned unchanged.
type ConditionFunc func() (bool, error)

// Poll re-evaluates cond with exponentially growing pauses until it holds,
// it fails, ctx is done or the timeout elapses.
func Poll(ctx context.Context, cfg PollConfig, cond ConditionFunc) error {
	if cfg.Timeout <= 0 {
		done, err := cond()
		if err != nil {
			return err
		}
		if !done {
			return ErrPollTimeout
		}

		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval
	policy.MaxElapsedTime = cfg.Timeout
	policy.RandomizationFactor = 0
	policy.Reset()

	var condErr error
	operation := func() error {
		done, err := cond()
		if err != nil {
			condErr = err

			return backoff.Permanent(err)
		}
		if !done {
			return ErrPollTimeout
		}

		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	if err == nil {
		return nil
	}
	if condErr != nil {
		return condErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("poll aborted: %w", ctxErr)
	}

	return ErrPollTimeout
}
