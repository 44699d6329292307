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

import "errors"

// ErrorCategory classifies an infrastructure failure so callers can decide
// whether retrying makes sense.
type ErrorCategory int

const (
	// CategoryTransient marks a failure that may resolve on its own, e.g. a
	// configuration file that is not mounted yet.
	CategoryTransient ErrorCategory = iota

	// CategoryPermanent marks a failure that will not resolve without
	// operator intervention, e.g. a malformed configuration file.
	CategoryPermanent
)

func (c ErrorCategory) String() string {
	if c == CategoryPermanent {
		return "permanent"
	}

	return "transient"
}

// CategorizedError wraps an error together with its category.
type CategorizedError struct {
	Err      error
	Category ErrorCategory
}

func (ce *CategorizedError) Error() string {
	return ce.Err.Error()
}

func (ce *CategorizedError) Unwrap() error {
	return ce.Err
}

// NewTransientError wraps err as CategoryTransient.
func NewTransientError(err error) error {
	if err == nil {
		return nil
	}

	return &CategorizedError{Err: err, Category: CategoryTransient}
}

// NewPermanentError wraps err as CategoryPermanent.
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}

	return &CategorizedError{Err: err, Category: CategoryPermanent}
}

// IsTransientError reports whether err carries CategoryTransient.
// Uncategorized errors are not transient.
func IsTransientError(err error) bool {
	var ce *CategorizedError

	return errors.As(err, &ce) && ce.Category == CategoryTransient
}

// IsPermanentError reports whether err carries CategoryPermanent.
func IsPermanentError(err error) bool {
	var ce *CategorizedError

	return errors.As(err, &ce) && ce.Category == CategoryPermanent
}
