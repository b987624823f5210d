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

// Package runner drives a procedure to completion against a jobapi.JobAPI:
// place every file node concurrently, then run every execution node as soon
// as its dependencies are satisfied, never serializing independent
// executions. Executions blocked by a failed predecessor are recorded
// rather than run (the skip policy).
package runner

import (
	"context"
	"sync"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/schema/registered"
	"github.com/traojudge/core/schema/runtime"
	"github.com/traojudge/core/transpile"
)

// StaticEnv is carried straight through to every execute call as the env
// parameter jobapi.JobAPI.Execute takes beyond its literal dependency
// list: TRAOJUDGE_EXEC_LANGUAGE, the limit envvars and
// TRAOJUDGE_LANGUAGES_JSON, none of which are tied to any one dependency's
// outcome token. The runner adds nothing to it; in particular it does not
// set TRAOJUDGE_EXEC_SOURCE, which an execution receives only as the
// envvar name of one of its own dependency edges.
type StaticEnv = map[string]string

// ResourceFetcher resolves a Text node's ResourceId to its stored content.
// Re-exported from transpile so callers of Run need not import that
// package directly.
type ResourceFetcher = transpile.ResourceFetcher

// Run instantiates reg for one judge request (substituting runtimeTexts and
// fetching every registered Text's content via fetch) and executes the
// result against api, returning a JudgeResponse keyed by DepId. Fails fast
// (before any reservation or placement) on InvalidSchema or a fetch error,
// in which case the returned map is nil. A per-execution execute() failure
// or an output parse failure is instead recorded in the returned map and
// does not fail the judge, except ExecutionFailed(InternalError), which is
// fatal, as is any placement or reservation failure.
func Run(ctx context.Context, reg registered.Procedure, runtimeTexts map[string]string, fetch ResourceFetcher, api jobapi.JobAPI, env StaticEnv) (map[ids.DepId]ExecutionJobResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	proc, err := transpile.Instantiate(ctx, reg, runtimeTexts, fetch)
	if err != nil {
		return nil, err
	}

	return RunInstantiated(ctx, proc, api, env)
}

// RunInstantiated executes an already-instantiated runtime.Procedure
// against api, for a caller that already holds the resolved runtime form;
// Run (which judgeservice calls) is a wrapper around transpile.Instantiate
// plus this function. Every runtime node still carries the DepId it
// originated from, so the result map returned here is keyed by DepId, never
// by RuntimeId: RuntimeId is purely an execution-time identity scoped to
// this one call.
func RunInstantiated(ctx context.Context, proc runtime.Procedure, api jobapi.JobAPI, env StaticEnv) (map[ids.DepId]ExecutionJobResult, error) {
	tokens, err := placeAll(ctx, proc, api)
	if err != nil {
		for _, t := range tokens {
			t.Release()
		}
		return nil, err
	}

	run := newExecutionRun(proc, tokens, api, env)
	results, err := run.schedule(ctx)

	for _, t := range tokens {
		t.Release()
	}
	return results, err
}

// placeAll concurrently places every resolved file node of proc and returns
// the resulting outcome tokens keyed by RuntimeId. On the first placement
// failure it cancels the remaining placements and returns the error
// alongside whatever tokens had already landed, so the caller can release
// them.
func placeAll(ctx context.Context, proc runtime.Procedure, api jobapi.JobAPI) (map[ids.RuntimeId]jobapi.OutcomeToken, error) {
	placeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		tokens   = make(map[ids.RuntimeId]jobapi.OutcomeToken, len(proc.Files))
		firstErr error
		wg       sync.WaitGroup
	)

	for _, f := range proc.Files {
		wg.Add(1)
		go func(f runtime.ResolvedFile) {
			defer wg.Done()
			outcome, err := api.PlaceFile(placeCtx, f.Conf)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			tokens[f.Id] = outcome
		}(f)
	}

	wg.Wait()
	if firstErr != nil {
		return tokens, firstErr
	}
	return tokens, nil
}
