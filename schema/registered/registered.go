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

// Package registered implements the post-registration form of a judge
// procedure: nodes addressed by ids.DepId, text blobs addressed by
// ids.ResourceId. This is the form the Problem Registry hands back from
// Register and the form a JudgeRequest carries.
package registered

import (
	"fmt"

	"github.com/traojudge/core/dag"
	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/xerr"
)

// TraojudgeExecScriptEnvvar is the envvar every execution's mandatory
// script dependency is attached under. Part of the stable process ABI.
const TraojudgeExecScriptEnvvar = "TRAOJUDGE_EXEC_SCRIPT"

// RuntimeText is a placeholder node whose content is supplied per judge
// request under key Label.
type RuntimeText struct {
	Label string
	Id    ids.DepId
}

// Text references an immutable blob stored in the registry.
type Text struct {
	ResourceId ids.ResourceId
	Id         ids.DepId
}

// EmptyDirectory is a scratch-directory node.
type EmptyDirectory struct {
	Id ids.DepId
}

// Dependency is one edge from an execution to a node it depends on.
type Dependency struct {
	Id         ids.DepId
	EnvvarName string
}

// Execution is a node that runs a script once all of its dependencies are
// satisfied. Scripts are placed like any other text resource and referenced
// via a mandatory dependency edge carrying TraojudgeExecScriptEnvvar.
type Execution struct {
	Id         ids.DepId
	Priority   int32
	Dependency []Dependency
}

// Procedure is the registered, content-addressed plan for judging one
// submission.
type Procedure struct {
	RuntimeTexts     []RuntimeText
	Texts            []Text
	EmptyDirectories []EmptyDirectory
	Executions       []Execution
}

// AllNodeIds returns every DepId declared as a node (runtime_text, text,
// empty_directory, or execution), in no particular order.
func (p Procedure) AllNodeIds() []ids.DepId {
	out := make([]ids.DepId, 0, len(p.RuntimeTexts)+len(p.Texts)+len(p.EmptyDirectories)+len(p.Executions))
	for _, n := range p.RuntimeTexts {
		out = append(out, n.Id)
	}
	for _, n := range p.Texts {
		out = append(out, n.Id)
	}
	for _, n := range p.EmptyDirectories {
		out = append(out, n.Id)
	}
	for _, n := range p.Executions {
		out = append(out, n.Id)
	}
	return out
}

// Validate checks invariants 1-3 of the registered form: every dependency
// DepId is declared exactly once as a node, all node DepIds are pairwise
// unique, and the dependency graph is acyclic. Invariants 4 (every
// ResourceId exists in the registry) and 5 (every runtime-text label is
// supplied) are judge-time concerns checked elsewhere, since they need
// collaborators (the registry, the request) this package does not have.
func (p Procedure) Validate() error {
	seen := map[ids.DepId]int{}
	for _, id := range p.AllNodeIds() {
		seen[id]++
	}
	for id, count := range seen {
		if count > 1 {
			return xerr.ErrInvalidSchema("duplicate DepId: %s", id)
		}
	}

	declared := make(map[ids.DepId]struct{}, len(seen))
	for id := range seen {
		declared[id] = struct{}{}
	}

	g := dag.New[depIdNode]()
	for _, id := range p.AllNodeIds() {
		g.AddNode(depIdNode(id))
	}

	for _, exec := range p.Executions {
		for _, dep := range exec.Dependency {
			if _, ok := declared[dep.Id]; !ok {
				return xerr.ErrInvalidSchema("dangling dependency: execution %s depends on undeclared node %s", exec.Id, dep.Id)
			}
			if err := g.AddEdge(depIdNode(dep.Id), depIdNode(exec.Id)); err != nil {
				return xerr.ErrInvalidSchema("self-dependency: execution %s depends on itself", exec.Id)
			}
		}
	}

	if cycle := g.DetectFirstCycle(); cycle != nil {
		return xerr.ErrInvalidSchema("cycle: %v", cycle)
	}

	return nil
}

// ExecutionByID finds the execution node with the given id.
func (p Procedure) ExecutionByID(id ids.DepId) (Execution, bool) {
	for _, e := range p.Executions {
		if e.Id == id {
			return e, true
		}
	}
	return Execution{}, false
}

type depIdNode ids.DepId

func (d depIdNode) String() string { return ids.DepId(d).String() }

var _ fmt.Stringer = depIdNode{}
