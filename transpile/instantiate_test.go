package transpile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traojudge/core/ids"
)

func TestInstantiateResolvesAllNodes(t *testing.T) {
	reg, blobs, err := Register(sampleWriterProcedure())
	require.NoError(t, err)

	fetch := func(_ context.Context, id ids.ResourceId) (string, error) {
		return blobs[id], nil
	}

	runtimeTexts := map[string]string{"submission_source": "print(1)"}

	out, err := Instantiate(context.Background(), reg, runtimeTexts, fetch)
	require.NoError(t, err)

	assert.Len(t, out.Files, 5) // source.cpp, compile and run script texts, submission_source runtime text, scratch dir
	assert.Len(t, out.Executions, 2)

	foundRuntimeText := false
	for _, f := range out.Files {
		if f.Conf.Content == "print(1)" {
			foundRuntimeText = true
		}
	}
	assert.True(t, foundRuntimeText)
}

func TestInstantiateRejectsMissingRuntimeText(t *testing.T) {
	reg, _, err := Register(sampleWriterProcedure())
	require.NoError(t, err)

	_, err = Instantiate(context.Background(), reg, map[string]string{}, func(_ context.Context, _ ids.ResourceId) (string, error) {
		return "", nil
	})
	assert.Error(t, err)
}
