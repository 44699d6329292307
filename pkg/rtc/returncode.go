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

package rtc

import "fmt"

// ReturnCode is the success/failure discriminant returned by component callbacks
// and by every execution context operation.
type ReturnCode int

const (
	// OK indicates success.
	OK ReturnCode = iota
	// Error is a generic failure.
	Error
	// BadParameter indicates an invalid argument, e.g. an unknown component.
	BadParameter
	// Unsupported indicates the operation is not offered by this execution context kind.
	Unsupported
	// OutOfResources indicates a resource could not be acquired.
	OutOfResources
	// PreconditionNotMet indicates the target was in the wrong state for the operation.
	PreconditionNotMet
)

// String returns the wire name of the return code.
func (r ReturnCode) String() string {
	switch r {
	case OK:
		return "RTC_OK"
	case Error:
		return "RTC_ERROR"
	case BadParameter:
		return "BAD_PARAMETER"
	case Unsupported:
		return "UNSUPPORTED"
	case OutOfResources:
		return "OUT_OF_RESOURCES"
	case PreconditionNotMet:
		return "PRECONDITION_NOT_MET"
	default:
		return fmt.Sprintf("RETURN_CODE(%d)", int(r))
	}
}

// IsOK reports whether r is OK.
func (r ReturnCode) IsOK() bool {
	return r == OK
}

// CodeError adapts a non-OK ReturnCode to the error interface so it can travel
// through code paths that speak Go errors.
type CodeError struct {
	Code ReturnCode
	Op   string
}

func (e *CodeError) Error() string {
	if e.Op == "" {
		return e.Code.String()
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Err returns nil for OK and a *CodeError otherwise.
func (r ReturnCode) Err(op string) error {
	if r == OK {
		return nil
	}

	return &CodeError{Code: r, Op: op}
}
