package transpile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traojudge/core/schema/writer"
)

func sampleWriterProcedure() writer.Procedure {
	p := writer.New()
	p.Resources["source.cpp"] = writer.TextFile("int main(){}")
	p.Resources["submission_source"] = writer.RuntimeTextFile()
	p.Resources["scratch"] = writer.EmptyDirectory()
	p.Scripts["compile"] = writer.Script{Content: "g++ -o out source.cpp"}
	p.Scripts["run"] = writer.Script{Content: "./out"}
	p.Executions["compile_step"] = writer.Execution{
		ScriptName: "compile",
		DependsOn: []writer.DependsOn{
			{RefTo: "source.cpp", EnvvarName: "SRC"},
			{RefTo: "submission_source", EnvvarName: "SUBMISSION"},
		},
	}
	p.Executions["run_step"] = writer.Execution{
		ScriptName: "run",
		DependsOn: []writer.DependsOn{
			{RefTo: "compile_step", EnvvarName: "BUILD"},
			{RefTo: "scratch", EnvvarName: "SCRATCH"},
		},
		Priority: 5,
	}
	return p
}

func TestRegisterProducesAcyclicRegisteredProcedure(t *testing.T) {
	reg, blobs, err := Register(sampleWriterProcedure())
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	assert.Len(t, reg.Texts, 3) // source.cpp, compile script, run script
	assert.Len(t, reg.RuntimeTexts, 1)
	assert.Len(t, reg.EmptyDirectories, 1)
	assert.Len(t, reg.Executions, 2)
	assert.Len(t, blobs, 3)

	var runStep *int
	for i, e := range reg.Executions {
		if len(e.Dependency) == 3 {
			runStep = &i
		}
	}
	require.NotNil(t, runStep)
	assert.Equal(t, int32(5), reg.Executions[*runStep].Priority)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	p := writer.New()
	p.Resources["x"] = writer.EmptyDirectory()
	p.Scripts["x"] = writer.Script{Content: "echo hi"}
	p.Executions["only"] = writer.Execution{ScriptName: "x"}

	_, _, err := Register(p)
	assert.Error(t, err)
}

func TestRegisterRejectsUnknownScript(t *testing.T) {
	p := writer.New()
	p.Executions["only"] = writer.Execution{ScriptName: "missing"}

	_, _, err := Register(p)
	assert.Error(t, err)
}

func TestRegisterRejectsDanglingDependency(t *testing.T) {
	p := writer.New()
	p.Scripts["s"] = writer.Script{Content: "echo hi"}
	p.Executions["only"] = writer.Execution{
		ScriptName: "s",
		DependsOn:  []writer.DependsOn{{RefTo: "nope", EnvvarName: "X"}},
	}

	_, _, err := Register(p)
	assert.Error(t, err)
}

func TestRegisterRejectsCycle(t *testing.T) {
	p := writer.New()
	p.Scripts["s"] = writer.Script{Content: "echo hi"}
	p.Executions["a"] = writer.Execution{
		ScriptName: "s",
		DependsOn:  []writer.DependsOn{{RefTo: "b", EnvvarName: "X"}},
	}
	p.Executions["b"] = writer.Execution{
		ScriptName: "s",
		DependsOn:  []writer.DependsOn{{RefTo: "a", EnvvarName: "X"}},
	}

	_, _, err := Register(p)
	assert.Error(t, err)
}
