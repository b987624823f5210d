// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xerr defines the sentinel error kinds shared across the judge
// orchestration core, each a small exported struct type with unexported
// fields, so that errors.As can distinguish kinds without string matching.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidSchemaError is fatal for a register or judge call: duplicate
// DepId, dangling dependency, cycle, missing runtime-text label, or an
// unknown ResourceId at judge time.
type InvalidSchemaError struct{ reason string }

func (e InvalidSchemaError) Error() string { return "invalid schema: " + e.reason }

func ErrInvalidSchema(format string, args ...any) error {
	return InvalidSchemaError{reason: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a lookup that found nothing: an absent ResourceId,
// an unregistered namespace of work, etc.
type NotFoundError struct{ what string }

func (e NotFoundError) Error() string { return "not found: " + e.what }

func ErrNotFound(what string) error {
	return NotFoundError{what: what}
}

// FetchFailedError marks a registry-client transport failure (as opposed
// to the resource simply being absent).
type FetchFailedError struct{ msg string }

func (e FetchFailedError) Error() string { return "fetch failed: " + e.msg }

func ErrFetchFailed(msg string) error {
	return FetchFailedError{msg: msg}
}

// ReserveFailedError marks a failure to reserve worker execution slots.
type ReserveFailedError struct{ msg string }

func (e ReserveFailedError) Error() string { return "reserve failed: " + e.msg }

func ErrReserveFailed(msg string) error {
	return ReserveFailedError{msg: msg}
}

// PlaceFailedError marks a failure to place a file or directory on a
// worker.
type PlaceFailedError struct{ msg string }

func (e PlaceFailedError) Error() string { return "place failed: " + e.msg }

func ErrPlaceFailed(msg string) error {
	return PlaceFailedError{msg: msg}
}

// InvalidResourceIdError marks a place_file(Text(rid)) call against a rid
// the backend cannot resolve.
type InvalidResourceIdError struct{ id string }

func (e InvalidResourceIdError) Error() string { return "invalid resource id: " + e.id }

func ErrInvalidResourceId(id string) error {
	return InvalidResourceIdError{id: id}
}

// ExecutionFailedError marks a per-execution judge failure (the backend
// could not run the script or produce a usable result, e.g. the output
// directory or process could not be created or the remote call failed, as
// distinct from a non-zero exit or unparsable output, which are recorded
// as OutputParseError instead).
type ExecutionFailedError struct{ msg string }

func (e ExecutionFailedError) Error() string { return "execution failed: " + e.msg }

func ErrExecutionFailed(msg string) error {
	return ExecutionFailedError{msg: msg}
}

// InternalError marks a backend bug, distinct from a user-script failure.
// It is always fatal for the judge.
type InternalError struct{ msg string }

func (e InternalError) Error() string { return "internal error: " + e.msg }

func ErrInternal(msg string) error {
	return InternalError{msg: msg}
}

// OutputParseError marks a failure to interpret a successful execution's
// stdout as a well-formed ExecutionResult. It never fails the judge; it is
// recorded as that execution's own result.
type OutputParseError struct {
	Kind   string // "non_zero_exit" | "invalid_json" (invalid UTF-8 is reported as invalid_json)
	Detail string
	Code   int
	Stdout string
	Stderr string
}

func (e OutputParseError) Error() string {
	if e.Kind == "non_zero_exit" {
		return fmt.Sprintf("non-zero exit code %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("invalid json: %s", e.Detail)
}

func ErrNonZeroExitCode(code int, stdout, stderr string) error {
	return OutputParseError{Kind: "non_zero_exit", Code: code, Stdout: stdout, Stderr: stderr}
}

func ErrInvalidJSON(msg string) error {
	return OutputParseError{Kind: "invalid_json", Detail: msg}
}

// Wrap annotates err with a message using github.com/pkg/errors rather
// than fmt.Errorf, so every propagated error keeps a stack trace.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf is the formatted form of Wrap.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}
