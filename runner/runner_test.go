package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/jobapi/local"
	"github.com/traojudge/core/schema/registered"
	"github.com/traojudge/core/xerr"
)

func noopFetch(_ context.Context, _ ids.ResourceId) (string, error) {
	return "", xerr.ErrNotFound("unused in this test")
}

// okFetch resolves any resource id to empty content, for tests whose
// backend never inspects placed file content.
func okFetch(_ context.Context, _ ids.ResourceId) (string, error) {
	return "", nil
}

// --- S1: echo, against the real local backend ---

func TestRunEchoAgainstLocalBackend(t *testing.T) {
	ctx := context.Background()
	backend := local.New(t.TempDir(), 4)

	textId := ids.NewDepId()
	scriptId := ids.NewDepId()
	execId := ids.NewDepId()

	reg := registered.Procedure{
		Texts: []registered.Text{{ResourceId: ids.NewResourceId(), Id: textId}},
		Executions: []registered.Execution{
			{
				Id: execId,
				Dependency: []registered.Dependency{
					{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar},
					{Id: textId, EnvvarName: "X"},
				},
			},
		},
	}
	// scriptId resolved as a Text node too, stored directly below via fetch stub.
	reg.Texts = append(reg.Texts, registered.Text{ResourceId: ids.NewResourceId(), Id: scriptId})

	script := `#!/bin/sh
echo '{"status":"Accepted","score":100,"exec_time_ms":1,"memory_kib":1024}'
`
	fetch := func(_ context.Context, id ids.ResourceId) (string, error) {
		for _, n := range reg.Texts {
			if n.ResourceId == id && n.Id == scriptId {
				return script, nil
			}
		}
		return "hello\n", nil
	}

	results, err := Run(ctx, reg, nil, fetch, backend, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[execId]
	require.Equal(t, Succeeded, res.Kind)
	assert.Equal(t, float64(100), res.Result.Displayable.Score)
}

// --- S4: missing runtime text fails before any placement ---

func TestRunFailsFastOnMissingRuntimeText(t *testing.T) {
	reg := registered.Procedure{
		RuntimeTexts: []registered.RuntimeText{{Label: "src", Id: ids.NewDepId()}},
	}

	_, err := Run(context.Background(), reg, map[string]string{}, noopFetch, &countingBackend{}, nil)
	assert.Error(t, err)
}

// --- fake backend used for deterministic scheduling tests ---

type fakeOutcome struct{ path string }

func (fakeOutcome) Clone() jobapi.OutcomeToken { return fakeOutcome{} }
func (fakeOutcome) Release()                   {}

type fakeReservation struct{}

func (fakeReservation) Release() {}

// scriptedBackend runs a caller-supplied function per execution instead of
// a real subprocess, keyed by which dependency envvars it received, so
// tests can control exactly which executions fail.
type scriptedBackend struct {
	behavior       func(env map[string]string, deps []jobapi.Dependency) (jobapi.Output, error)
	concurrentPeak int32
	concurrentNow  int32
}

func (b *scriptedBackend) ReserveExecution(_ context.Context, count int) ([]jobapi.ReservationToken, error) {
	toks := make([]jobapi.ReservationToken, count)
	for i := range toks {
		toks[i] = fakeReservation{}
	}
	return toks, nil
}

func (b *scriptedBackend) PlaceFile(_ context.Context, _ jobapi.FileConf) (jobapi.OutcomeToken, error) {
	return fakeOutcome{}, nil
}

func (b *scriptedBackend) Execute(_ context.Context, _ jobapi.ReservationToken, env map[string]string, deps []jobapi.Dependency) (jobapi.OutcomeToken, jobapi.Output, error) {
	now := atomic.AddInt32(&b.concurrentNow, 1)
	for {
		peak := atomic.LoadInt32(&b.concurrentPeak)
		if now <= peak || atomic.CompareAndSwapInt32(&b.concurrentPeak, peak, now) {
			break
		}
	}
	defer atomic.AddInt32(&b.concurrentNow, -1)

	out, err := b.behavior(env, deps)
	return fakeOutcome{}, out, err
}

func okOutput() jobapi.Output {
	return jobapi.Output{ExitStatus: 0, Stdout: `{"status":"Accepted","score":1,"exec_time_ms":1,"memory_kib":1}`}
}

// --- S5: non-zero exit is recorded, not fatal ---

func TestRunRecordsOutputParseErrorWithoutFailingJudge(t *testing.T) {
	execId := ids.NewDepId()
	scriptId := ids.NewDepId()
	reg := registered.Procedure{
		Texts: []registered.Text{{ResourceId: ids.NewResourceId(), Id: scriptId}},
		Executions: []registered.Execution{{
			Id:         execId,
			Dependency: []registered.Dependency{{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar}},
		}},
	}

	backend := &scriptedBackend{
		behavior: func(map[string]string, []jobapi.Dependency) (jobapi.Output, error) {
			return jobapi.Output{ExitStatus: 2, Stdout: ""}, nil
		},
	}

	results, err := Run(context.Background(), reg, nil, okFetch, backend, nil)
	require.NoError(t, err)
	assert.Equal(t, OutputParseFailed, results[execId].Kind)
}

// --- skip policy: a predecessor's execute() failure skips dependents ---

func TestRunSkipsDependentsOfFailedExecution(t *testing.T) {
	a := ids.NewDepId()
	b := ids.NewDepId()
	scriptId := ids.NewDepId()

	reg := registered.Procedure{
		Texts: []registered.Text{{ResourceId: ids.NewResourceId(), Id: scriptId}},
		Executions: []registered.Execution{
			{Id: a, Dependency: []registered.Dependency{{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar}}},
			{Id: b, Dependency: []registered.Dependency{
				{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar},
				{Id: a, EnvvarName: "PREV"},
			}},
		},
	}

	// Every execution shares one behavior func; tell "a" (no PREV dep) from
	// "b" (has one) by dependency shape and only fail the former.
	backend := &scriptedBackend{
		behavior: func(_ map[string]string, deps []jobapi.Dependency) (jobapi.Output, error) {
			for _, d := range deps {
				if d.Envvar == "PREV" {
					return okOutput(), nil
				}
			}
			return jobapi.Output{}, fmt.Errorf("boom")
		},
	}

	results, err := Run(context.Background(), reg, nil, okFetch, backend, nil)
	require.NoError(t, err)

	require.Equal(t, Failed, results[a].Kind)
	assert.NotEqual(t, skippedReason, results[a].FailureReason)

	require.Equal(t, Failed, results[b].Kind)
	assert.Equal(t, skippedReason, results[b].FailureReason)
}

// --- S6-style: independent executions actually run concurrently ---

func TestRunDoesNotSerializeIndependentExecutions(t *testing.T) {
	const k = 6
	reg := registered.Procedure{}
	scriptId := ids.NewDepId()
	reg.Texts = []registered.Text{{ResourceId: ids.NewResourceId(), Id: scriptId}}
	for i := 0; i < k; i++ {
		reg.Executions = append(reg.Executions, registered.Execution{
			Id:         ids.NewDepId(),
			Dependency: []registered.Dependency{{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar}},
		})
	}

	backend := &scriptedBackend{
		behavior: func(map[string]string, []jobapi.Dependency) (jobapi.Output, error) {
			time.Sleep(80 * time.Millisecond)
			return okOutput(), nil
		},
	}

	start := time.Now()
	results, err := Run(context.Background(), reg, nil, okFetch, backend, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, results, k)
	assert.Less(t, elapsed, 200*time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&backend.concurrentPeak), int32(2))
}

// countingBackend is a minimal jobapi.JobAPI used only to exercise the
// fail-fast path, where no method should ever be called.
type countingBackend struct{}

func (countingBackend) ReserveExecution(context.Context, int) ([]jobapi.ReservationToken, error) {
	panic("should not be called")
}
func (countingBackend) PlaceFile(context.Context, jobapi.FileConf) (jobapi.OutcomeToken, error) {
	panic("should not be called")
}
func (countingBackend) Execute(context.Context, jobapi.ReservationToken, map[string]string, []jobapi.Dependency) (jobapi.OutcomeToken, jobapi.Output, error) {
	panic("should not be called")
}
