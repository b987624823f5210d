package writer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceKindJSONRoundTrip(t *testing.T) {
	cases := []ResourceKind{
		EmptyDirectory(),
		RuntimeTextFile(),
		TextFile("hello\n"),
	}
	for _, rk := range cases {
		b, err := json.Marshal(rk)
		require.NoError(t, err)

		var got ResourceKind
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, rk, got)
	}
}

func TestResourceKindUnmarshalRejectsMultipleTags(t *testing.T) {
	var rk ResourceKind
	err := json.Unmarshal([]byte(`{"TextFile":{"content":"x"},"EmptyDirectory":{}}`), &rk)
	assert.Error(t, err)
}

func TestResourceKindUnmarshalRejectsUnknownTag(t *testing.T) {
	var rk ResourceKind
	err := json.Unmarshal([]byte(`{"Bogus":{}}`), &rk)
	assert.Error(t, err)
}

func TestProcedureJSONRoundTrip(t *testing.T) {
	p := New()
	p.Resources["source.cpp"] = TextFile("int main(){}")
	p.Resources["submission_source"] = RuntimeTextFile()
	p.Resources["scratch"] = EmptyDirectory()
	p.Scripts["compile"] = Script{Content: "g++ -o out source.cpp"}
	p.Executions["compile_step"] = Execution{
		ScriptName: "compile",
		DependsOn: []DependsOn{
			{RefTo: "source.cpp", EnvvarName: "SRC"},
		},
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var got Procedure
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, p, got)
}
