package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traojudge/core/jobapi"
)

func TestReserveExecutionBoundsConcurrency(t *testing.T) {
	b := New(t.TempDir(), 2)
	ctx := context.Background()

	tokens, err := b.ReserveExecution(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	ctx2, cancel := context.WithTimeout(ctx, 0)
	defer cancel()
	_, err = b.ReserveExecution(ctx2, 1)
	assert.Error(t, err)

	for _, tok := range tokens {
		tok.Release()
	}
}

func TestPlaceFileText(t *testing.T) {
	b := New(t.TempDir(), 4)
	ctx := context.Background()

	outcome, err := b.PlaceFile(ctx, jobapi.FileConf{Kind: jobapi.FileConfText, Content: "hello"})
	require.NoError(t, err)
	defer outcome.Release()
}

func TestExecuteRunsScriptAndCapturesOutput(t *testing.T) {
	b := New(t.TempDir(), 1)
	ctx := context.Background()

	script, err := b.PlaceFile(ctx, jobapi.FileConf{Kind: jobapi.FileConfText, Content: "#!/bin/sh\necho hi\n"})
	require.NoError(t, err)
	defer script.Release()

	tokens, err := b.ReserveExecution(ctx, 1)
	require.NoError(t, err)

	outcome, out, err := b.Execute(ctx, tokens[0], nil, []jobapi.Dependency{
		{Envvar: execScriptEnvvar, Outcome: script},
	})
	require.NoError(t, err)
	defer outcome.Release()

	assert.Equal(t, 0, out.ExitStatus)
	assert.Contains(t, out.Stdout, "hi")
}

func TestExecuteMissingScriptDependencyFails(t *testing.T) {
	b := New(t.TempDir(), 1)
	ctx := context.Background()

	tokens, err := b.ReserveExecution(ctx, 1)
	require.NoError(t, err)

	_, _, err = b.Execute(ctx, tokens[0], nil, nil)
	assert.Error(t, err)
}

func TestOutcomeTokenRefcounting(t *testing.T) {
	b := New(t.TempDir(), 1)
	ctx := context.Background()

	outcome, err := b.PlaceFile(ctx, jobapi.FileConf{Kind: jobapi.FileConfEmptyDirectory})
	require.NoError(t, err)

	clone := outcome.Clone()
	outcome.Release()
	clone.Release()
}
