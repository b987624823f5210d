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

// Package local implements jobapi.JobAPI against the machine the runner
// itself is running on: files are placed under a working root directory,
// reservation slots are counted with a weighted semaphore, and executions
// run as subprocesses of this process.
package local

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/xerr"
)

// execScriptEnvvar must match schema/registered.TraojudgeExecScriptEnvvar.
// Duplicated here rather than imported to keep jobapi/local (a low-level
// worker backend) from depending on the schema layer above it; the two are
// tied together by the stable process ABI, not by a Go import.
const execScriptEnvvar = "TRAOJUDGE_EXEC_SCRIPT"

// Backend is a local-filesystem, local-subprocess jobapi.JobAPI.
type Backend struct {
	root string
	sem  *semaphore.Weighted
}

// New builds a Backend rooted at root, which must already exist and be
// writable. capacity bounds how many executions may run concurrently.
func New(root string, capacity int64) *Backend {
	return &Backend{root: root, sem: semaphore.NewWeighted(capacity)}
}

var _ jobapi.JobAPI = (*Backend)(nil)

// ReserveExecution acquires count slots from the backend's weighted
// semaphore, one token per slot, so a caller can release unused slots
// independently. The runner reserves one slot per execution, just before
// running it.
func (b *Backend) ReserveExecution(ctx context.Context, count int) ([]jobapi.ReservationToken, error) {
	tokens := make([]jobapi.ReservationToken, 0, count)
	for i := 0; i < count; i++ {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			for _, t := range tokens {
				t.Release()
			}
			return nil, xerr.ErrReserveFailed(err.Error())
		}
		tokens = append(tokens, &reservationToken{sem: b.sem})
	}
	return tokens, nil
}

// PlaceFile materializes conf under a fresh directory beneath the working
// root and returns a refcounted handle to it.
func (b *Backend) PlaceFile(_ context.Context, conf jobapi.FileConf) (jobapi.OutcomeToken, error) {
	dir := filepath.Join(b.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerr.ErrPlaceFailed(err.Error())
	}

	switch conf.Kind {
	case jobapi.FileConfEmptyDirectory:
		return newOutcomeToken(dir), nil
	case jobapi.FileConfText, jobapi.FileConfRuntimeText:
		path := filepath.Join(dir, "content")
		if err := os.WriteFile(path, []byte(conf.Content), 0o644); err != nil {
			_ = os.RemoveAll(dir)
			return nil, xerr.ErrPlaceFailed(err.Error())
		}
		return newOutcomeToken(path), nil
	default:
		_ = os.RemoveAll(dir)
		return nil, xerr.ErrPlaceFailed("unrecognized file conf kind")
	}
}
