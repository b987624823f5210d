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

// Package runtime implements the per-submission runtime form of a judge
// procedure: the plan produced by instantiating a registered::Procedure
// against one judge request's runtime_texts, with every resource resolved
// to concrete content and every node addressed by a fresh ids.RuntimeId.
//
// Each runtime node records the ids.DepId of the registered node it was
// instantiated from, so the runner can execute over this form while still
// reporting results keyed by DepId as the external JudgeResponse contract
// requires.
package runtime

import (
	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/jobapi"
)

// ResolvedFile is a non-execution node with its resource fully resolved:
// Text content fetched from the registry, RuntimeText substituted from the
// request, or EmptyDirectory left empty.
type ResolvedFile struct {
	Id          ids.RuntimeId
	OriginDepId ids.DepId
	Conf        jobapi.FileConf
}

// ResolvedDependency is one edge from a runtime execution to a node it
// depends on.
type ResolvedDependency struct {
	Id         ids.RuntimeId
	EnvvarName string
}

// ResolvedExecution is an execution node ready to run against a JobAPI.
type ResolvedExecution struct {
	Id          ids.RuntimeId
	OriginDepId ids.DepId
	Priority    int32
	Dependency  []ResolvedDependency
}

// Procedure is the fully-resolved, per-submission plan the runner drives
// against a JobAPI backend.
type Procedure struct {
	Files      []ResolvedFile
	Executions []ResolvedExecution
}
