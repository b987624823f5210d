package runner

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/output"
	"github.com/traojudge/core/schema/runtime"
	"github.com/traojudge/core/xerr"
)

// completion is one execution's finished attempt, reported back to the
// single coordinator goroutine so the tokens/results maps never need a
// lock held across a suspend point.
type completion struct {
	id      ids.RuntimeId
	outcome jobapi.OutcomeToken // nil if execute itself errored
	result  ExecutionJobResult
	fatal   error // non-nil only for a failed reservation or ExecutionFailed(InternalError)
}

// executionRun holds the state one Run call's execution phase needs: the
// dependency bookkeeping and the shared token map (file tokens plus
// execution outcomes as they complete). Each execution acquires its own
// reservation token from api just before it runs rather than the run
// acquiring all of them up front, for two reasons: it lets a backend whose
// capacity is smaller than the total execution count make progress instead
// of deadlocking waiting for slots nothing will free until something runs,
// and it gives the priority field real effect — golang.org/x/sync/semaphore
// grants blocked acquirers in the order they called Acquire, so launching a
// ready batch highest-priority-first makes that the order slots are handed
// out under contention.
type executionRun struct {
	api jobapi.JobAPI
	env StaticEnv

	execByID map[ids.RuntimeId]runtime.ResolvedExecution

	mu         sync.Mutex
	tokens     map[ids.RuntimeId]jobapi.OutcomeToken
	pending    map[ids.RuntimeId]int
	dependents map[ids.RuntimeId][]ids.RuntimeId
	settled    map[ids.RuntimeId]bool
	results    map[ids.RuntimeId]ExecutionJobResult
}

func newExecutionRun(proc runtime.Procedure, tokens map[ids.RuntimeId]jobapi.OutcomeToken, api jobapi.JobAPI, env StaticEnv) *executionRun {
	r := &executionRun{
		api:        api,
		env:        env,
		execByID:   make(map[ids.RuntimeId]runtime.ResolvedExecution, len(proc.Executions)),
		tokens:     tokens,
		pending:    make(map[ids.RuntimeId]int, len(proc.Executions)),
		dependents: make(map[ids.RuntimeId][]ids.RuntimeId, len(proc.Executions)),
		settled:    make(map[ids.RuntimeId]bool, len(proc.Executions)),
		results:    make(map[ids.RuntimeId]ExecutionJobResult, len(proc.Executions)),
	}

	for _, exec := range proc.Executions {
		r.execByID[exec.Id] = exec
		count := 0
		for _, dep := range exec.Dependency {
			if _, ok := tokens[dep.Id]; ok {
				continue
			}
			count++
			r.dependents[dep.Id] = append(r.dependents[dep.Id], exec.Id)
		}
		r.pending[exec.Id] = count
	}
	return r
}

// byPriorityDesc stable-sorts ids highest-priority-first, preserving
// registration order among ties so same-priority executions stay FIFO.
func (r *executionRun) byPriorityDesc(list []ids.RuntimeId) {
	sort.SliceStable(list, func(i, j int) bool {
		return r.execByID[list[i]].Priority > r.execByID[list[j]].Priority
	})
}

// schedule runs every execution node to completion (or skip), respecting
// depends_on edges and never serializing independent executions. It
// returns the full result map keyed by DepId, or an error if a reservation
// failed or an execute() call reported an InternalError (a backend bug,
// fatal for the whole judge as opposed to a per-execution JudgeFailed).
func (r *executionRun) schedule(ctx context.Context) (map[ids.DepId]ExecutionJobResult, error) {
	n := len(r.execByID)
	if n == 0 {
		return map[ids.DepId]ExecutionJobResult{}, nil
	}

	completions := make(chan completion, n)

	var toSchedule []ids.RuntimeId
	for id, count := range r.pending {
		if count == 0 {
			toSchedule = append(toSchedule, id)
		}
	}
	r.byPriorityDesc(toSchedule)
	launched := 0
	for _, id := range toSchedule {
		r.markScheduled(id)
		launched++
		go r.runOne(ctx, id, completions)
	}

	done := 0
	received := 0
	var fatalErr error
	for done < n {
		c := <-completions
		done++
		received++

		if c.fatal != nil {
			fatalErr = c.fatal
			r.results[c.id] = c.result
			r.drainRemaining(completions, launched-received)
			break
		}

		r.results[c.id] = c.result
		if c.outcome != nil {
			r.mu.Lock()
			r.tokens[c.id] = c.outcome
			r.mu.Unlock()
		}

		if c.result.Kind == Failed {
			done += r.cascadeSkip(c.id)
			continue
		}

		ready := r.advance(c.id)
		r.byPriorityDesc(ready)
		for _, id := range ready {
			launched++
			go r.runOne(ctx, id, completions)
		}
	}

	if fatalErr != nil {
		return nil, fatalErr
	}

	return r.byOriginDepId(), nil
}

// drainRemaining absorbs the completions still in flight after a fatal
// break so their goroutines never block sending on the channel, and
// releases any outcome token they carried: nothing downstream will ever
// consume it once the judge has failed, and the backend is only obliged to
// clean it up once every clone (including this one, never otherwise
// dropped) is released. remaining is the number of launched runOne calls
// whose completion has not been received yet; executions that were never
// launched send nothing and are not waited for.
func (r *executionRun) drainRemaining(completions <-chan completion, remaining int) {
	for i := 0; i < remaining; i++ {
		c := <-completions
		if c.outcome != nil {
			c.outcome.Release()
		}
	}
}

// byOriginDepId translates the RuntimeId-keyed results into the DepId-keyed
// map callers of Run/RunInstantiated actually see.
func (r *executionRun) byOriginDepId() map[ids.DepId]ExecutionJobResult {
	out := make(map[ids.DepId]ExecutionJobResult, len(r.results))
	for id, res := range r.results {
		out[r.execByID[id].OriginDepId] = res
	}
	return out
}

func (r *executionRun) markScheduled(id ids.RuntimeId) {
	r.mu.Lock()
	r.settled[id] = true
	r.mu.Unlock()
}

// advance decrements the pending count of every dependent of id and
// returns the ones that just became ready to run (and marks them
// scheduled so cascadeSkip won't also try to settle them).
func (r *executionRun) advance(id ids.RuntimeId) []ids.RuntimeId {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ready []ids.RuntimeId
	for _, depId := range r.dependents[id] {
		if r.settled[depId] {
			continue
		}
		r.pending[depId]--
		if r.pending[depId] == 0 {
			r.settled[depId] = true
			ready = append(ready, depId)
		}
	}
	return ready
}

// cascadeSkip marks every not-yet-settled transitive dependent of a failed
// execution as skipped, without running it, and returns how many entries
// it added to the results map (so the caller's completion counter stays
// accurate).
func (r *executionRun) cascadeSkip(failedID ids.RuntimeId) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	queue := append([]ids.RuntimeId(nil), r.dependents[failedID]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if r.settled[cur] {
			continue
		}
		r.settled[cur] = true
		r.results[cur] = ExecutionJobResult{Kind: Failed, FailureReason: skippedReason}
		count++
		queue = append(queue, r.dependents[cur]...)
	}
	return count
}

// runOne reserves one execution slot, assembles the execution's
// dependencies from already-resolved tokens, runs it, parses its output,
// and reports the outcome on completions. It reads the token map only
// while holding r.mu and writes no map itself, so it can run concurrently
// with other in-flight executions. A failed reservation is reported as
// fatal for the judge.
func (r *executionRun) runOne(ctx context.Context, id ids.RuntimeId, completions chan<- completion) {
	exec := r.execByID[id]

	reservation, err := r.api.ReserveExecution(ctx, 1)
	if err != nil {
		completions <- completion{id: id, result: ExecutionJobResult{Kind: Failed, FailureReason: err.Error()}, fatal: err}
		return
	}

	r.mu.Lock()
	deps := make([]jobapi.Dependency, len(exec.Dependency))
	for i, d := range exec.Dependency {
		deps[i] = jobapi.Dependency{Envvar: d.EnvvarName, Outcome: r.tokens[d.Id].Clone()}
	}
	r.mu.Unlock()

	outcome, out, execErr := r.api.Execute(ctx, reservation[0], r.env, deps)
	for _, d := range deps {
		d.Outcome.Release()
	}

	if execErr != nil {
		var internal xerr.InternalError
		fatal := error(nil)
		if asInternalError(execErr, &internal) {
			fatal = execErr
		}
		completions <- completion{
			id:     id,
			result: ExecutionJobResult{Kind: Failed, FailureReason: execErr.Error()},
			fatal:  fatal,
		}
		return
	}

	result, perr := output.Parse(out)
	if perr != nil {
		completions <- completion{id: id, outcome: outcome, result: ExecutionJobResult{Kind: OutputParseFailed, ParseError: perr}}
		return
	}
	completions <- completion{id: id, outcome: outcome, result: ExecutionJobResult{Kind: Succeeded, Result: result}}
}

func asInternalError(err error, target *xerr.InternalError) bool {
	return errors.As(err, target)
}
