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

// Package jobapi defines the abstract worker-backend contract the judge
// runner drives: reserve execution slots, place files, and run scripts
// against the placed dependencies. jobapi/local and jobapi/remote provide
// two concrete backends; any other implementation satisfying JobAPI works
// with the runner unmodified.
package jobapi

import (
	"context"

	"github.com/traojudge/core/ids"
)

// ReservationToken proves one reserved worker execution slot. It is
// single-use: exactly one Execute call consumes it. A backend must release
// the slot if the token is dropped without being used.
type ReservationToken interface {
	// Release gives up the slot without executing anything. Safe to call
	// at most once; Execute consumes the token instead.
	Release()
}

// OutcomeToken is a cloneable handle to one placed file or one execution's
// output artifact on a worker. The backend must defer cleanup of the
// underlying artifact until the last clone is released.
type OutcomeToken interface {
	// Clone returns a new handle to the same artifact, incrementing its
	// reference count.
	Clone() OutcomeToken
	// Release decrements the reference count; the artifact is removed
	// when it reaches zero. Safe to call exactly once per token value
	// (including each value returned by Clone).
	Release()
}

// FileConfKind discriminates the three shapes place_file accepts.
type FileConfKind int

const (
	FileConfEmptyDirectory FileConfKind = iota
	FileConfText
	FileConfRuntimeText
)

// FileConf describes what place_file should materialize on a worker.
type FileConf struct {
	Kind FileConfKind
	// ResourceId is set when Kind == FileConfText.
	ResourceId ids.ResourceId
	// Content is the text to write: the runtime text when Kind ==
	// FileConfRuntimeText, and the content fetched for ResourceId when
	// Kind == FileConfText.
	Content string
}

// Dependency names one placed or executed node an execution depends on,
// along with the envvar its on-worker path must be exposed under.
type Dependency struct {
	Envvar  string
	Outcome OutcomeToken
}

// Output is the captured result of running a process to completion.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// JobAPI is the worker-backend contract. Implementations must be safe to
// call concurrently from the same runner.
type JobAPI interface {
	// ReserveExecution blocks until count worker slots are available and
	// returns one token per slot. Order is not significant.
	ReserveExecution(ctx context.Context, count int) ([]ReservationToken, error)

	// PlaceFile materializes conf on some worker and returns a handle to
	// it. For remote backends this may be any worker in the pool; for
	// local backends, a fresh path under the working root.
	PlaceFile(ctx context.Context, conf FileConf) (OutcomeToken, error)

	// Execute consumes reservation, stages every dependency on the chosen
	// worker (setting each Dependency.Envvar to its on-worker path), and
	// runs the process named by the TRAOJUDGE_EXEC_SCRIPT dependency with
	// the combined environment. It returns the captured Output and a
	// fresh OutcomeToken for the execution's own scratch output directory
	// (exposed to the script as TRAOJUDGE_EXEC_OUTPUT and to downstream
	// executions that depend on this one).
	Execute(ctx context.Context, reservation ReservationToken, env map[string]string, dependencies []Dependency) (OutcomeToken, Output, error)
}
