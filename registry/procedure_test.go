package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traojudge/core/schema/writer"
)

func sampleWriterProcedure() writer.Procedure {
	p := writer.New()
	p.Resources["source.cpp"] = writer.TextFile("int main(){}")
	p.Resources["submission_source"] = writer.RuntimeTextFile()
	p.Scripts["compile"] = writer.Script{Content: "g++ -o out source.cpp"}
	p.Executions["compile_step"] = writer.Execution{
		ScriptName: "compile",
		DependsOn: []writer.DependsOn{
			{RefTo: "source.cpp", EnvvarName: "SRC"},
			{RefTo: "submission_source", EnvvarName: "SUBMISSION"},
		},
	}
	return p
}

func TestRegisterProcedurePersistsEveryMintedBlob(t *testing.T) {
	ctx := context.Background()
	server := NewInMemory()

	reg, err := RegisterProcedure(ctx, server, sampleWriterProcedure())
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	client := NewClient(server)
	for _, text := range reg.Texts {
		got, err := client.Fetch(ctx, text.ResourceId)
		assert.NoError(t, err)
		assert.NotEmpty(t, got)
	}
}

func TestRegisterProcedureRejectsInvalidSchema(t *testing.T) {
	ctx := context.Background()
	server := NewInMemory()

	p := writer.New()
	p.Executions["only"] = writer.Execution{ScriptName: "missing"}

	_, err := RegisterProcedure(ctx, server, p)
	assert.Error(t, err)
}
