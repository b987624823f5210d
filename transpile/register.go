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

// Package transpile implements the two conversions between procedure
// forms: Register (writer -> registered, the Problem Registry's job) and
// Instantiate (registered -> runtime, the judge runner's job). Keeping
// both in one small package gives the writer-name -> DepId -> RuntimeId
// pipeline a single place with a documented input and output shape.
package transpile

import (
	"sort"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/schema/registered"
	"github.com/traojudge/core/schema/writer"
	"github.com/traojudge/core/xerr"
)

// Blobs maps a freshly minted ResourceId to the text it should be stored
// under in the registry. Register returns these alongside the registered
// procedure; the registry server is responsible for persisting them.
type Blobs map[ids.ResourceId]string

// Register transpiles a writer procedure into its registered form. It does
// not touch any registry state; the caller (registry.RegisterProcedure,
// which imports each blob under its minted id) is responsible for
// persisting the returned Blobs and for rejecting the overall call if that
// fails.
//
// Fails with an InvalidSchemaError on name collisions, dangling ref_to,
// cycles, or an unknown script_name.
func Register(w writer.Procedure) (registered.Procedure, Blobs, error) {
	blobs := Blobs{}
	nameToDepId := make(map[string]ids.DepId, len(w.Resources)+len(w.Executions))

	var reg registered.Procedure

	// Resources, in a stable order so repeated calls over the same input
	// are easy to compare in tests.
	for _, name := range sortedKeys(w.Resources) {
		kind := w.Resources[name]
		if _, dup := nameToDepId[name]; dup {
			return registered.Procedure{}, nil, xerr.ErrInvalidSchema("duplicate name: %s", name)
		}
		id := ids.NewDepId()
		nameToDepId[name] = id

		switch kind.Tag {
		case writer.KindEmptyDirectory:
			reg.EmptyDirectories = append(reg.EmptyDirectories, registered.EmptyDirectory{Id: id})
		case writer.KindRuntimeTextFile:
			reg.RuntimeTexts = append(reg.RuntimeTexts, registered.RuntimeText{Label: name, Id: id})
		case writer.KindTextFile:
			rid := ids.NewResourceId()
			blobs[rid] = kind.Content
			reg.Texts = append(reg.Texts, registered.Text{ResourceId: rid, Id: id})
		default:
			return registered.Procedure{}, nil, xerr.ErrInvalidSchema("resource %q has unknown kind", name)
		}
	}

	// Scripts are placed exactly like text resources: they occupy the
	// same name, blob and DepId space so an execution's mandatory script
	// dependency can reference them like any other node.
	scriptDepId := make(map[string]ids.DepId, len(w.Scripts))
	for _, name := range sortedKeys(w.Scripts) {
		script := w.Scripts[name]
		if _, dup := nameToDepId[name]; dup {
			return registered.Procedure{}, nil, xerr.ErrInvalidSchema("duplicate name: %s", name)
		}
		id := ids.NewDepId()
		nameToDepId[name] = id
		scriptDepId[name] = id

		rid := ids.NewResourceId()
		blobs[rid] = script.Content
		reg.Texts = append(reg.Texts, registered.Text{ResourceId: rid, Id: id})
	}

	// Executions, second pass so every name (including execution names
	// referenced by depends_on) is already known.
	execNames := sortedKeys(w.Executions)
	for _, name := range execNames {
		if _, dup := nameToDepId[name]; dup {
			return registered.Procedure{}, nil, xerr.ErrInvalidSchema("duplicate name: %s", name)
		}
		nameToDepId[name] = ids.NewDepId()
	}

	for _, name := range execNames {
		exec := w.Executions[name]
		id := nameToDepId[name]

		scriptId, ok := scriptDepId[exec.ScriptName]
		if !ok {
			return registered.Procedure{}, nil, xerr.ErrInvalidSchema("execution %q references unknown script %q", name, exec.ScriptName)
		}

		deps := make([]registered.Dependency, 0, len(exec.DependsOn)+1)
		deps = append(deps, registered.Dependency{
			Id:         scriptId,
			EnvvarName: registered.TraojudgeExecScriptEnvvar,
		})

		for _, d := range exec.DependsOn {
			refId, ok := nameToDepId[d.RefTo]
			if !ok {
				return registered.Procedure{}, nil, xerr.ErrInvalidSchema("execution %q depends on undeclared name %q", name, d.RefTo)
			}
			deps = append(deps, registered.Dependency{Id: refId, EnvvarName: d.EnvvarName})
		}

		reg.Executions = append(reg.Executions, registered.Execution{
			Id:         id,
			Priority:   exec.Priority,
			Dependency: deps,
		})
	}

	if err := reg.Validate(); err != nil {
		return registered.Procedure{}, nil, err
	}

	return reg, blobs, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
