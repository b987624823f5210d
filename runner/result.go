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

package runner

import "github.com/traojudge/core/output"

// ResultKind discriminates the three shapes one execution's entry in a
// JudgeResponse can take.
type ResultKind int

const (
	// Succeeded means execute returned without error and stdout parsed as
	// a well-formed ExecutionResult.
	Succeeded ResultKind = iota
	// Failed means either execute itself returned an error (a per-
	// execution JudgeFailed, not an InternalError, which is fatal
	// instead) or this execution was never run because a predecessor
	// failed (the skip policy, FailureReason == skippedReason).
	Failed
	// OutputParseFailed means execute succeeded but stdout could not be
	// interpreted as an ExecutionResult (non-zero exit, invalid UTF-8, or
	// invalid JSON).
	OutputParseFailed
)

// skippedReason is the synthetic failure reason recorded for an execution
// never run because one of its dependencies failed.
const skippedReason = "skipped: predecessor failed"

// ExecutionJobResult is one execution node's entry in a JudgeResponse.
type ExecutionJobResult struct {
	Kind ResultKind

	// Result is populated when Kind == Succeeded.
	Result output.ExecutionResult
	// FailureReason is populated when Kind == Failed.
	FailureReason string
	// ParseError is populated when Kind == OutputParseFailed.
	ParseError error
}
