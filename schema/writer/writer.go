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

// Package writer implements the authoring form of a judge procedure: the
// serializable document a problem setter's authoring bindings produce.
// Names in this form are free-form strings scoped to the document; they
// never leak past registration into the registered or runtime forms.
package writer

import (
	"encoding/json"
	"fmt"
)

// ResourceKindTag discriminates the three shapes a declared resource can
// take.
type ResourceKindTag string

const (
	KindEmptyDirectory  ResourceKindTag = "EmptyDirectory"
	KindRuntimeTextFile ResourceKindTag = "RuntimeTextFile"
	KindTextFile        ResourceKindTag = "TextFile"
)

// ResourceKind is a tagged union over the three resource shapes a writer
// may declare under a name. Exactly one of the three forms is populated,
// selected by Tag.
type ResourceKind struct {
	Tag ResourceKindTag
	// Content holds the TextFile's literal content; empty for the other
	// two tags.
	Content string
}

// MarshalJSON renders the tag as the sole outer key, e.g.
// {"TextFile":{"content":"..."}}, matching the stable writer-schema wire
// format.
func (r ResourceKind) MarshalJSON() ([]byte, error) {
	switch r.Tag {
	case KindEmptyDirectory, KindRuntimeTextFile:
		return json.Marshal(map[string]struct{}{string(r.Tag): {}})
	case KindTextFile:
		body := struct {
			Content string `json:"content"`
		}{Content: r.Content}
		return json.Marshal(map[string]any{string(r.Tag): body})
	default:
		return nil, fmt.Errorf("writer: unknown resource kind tag %q", r.Tag)
	}
}

func (r *ResourceKind) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("writer: resource kind must have exactly one tag, got %d", len(raw))
	}
	for tag, body := range raw {
		switch ResourceKindTag(tag) {
		case KindEmptyDirectory:
			r.Tag = KindEmptyDirectory
			return nil
		case KindRuntimeTextFile:
			r.Tag = KindRuntimeTextFile
			return nil
		case KindTextFile:
			var inner struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(body, &inner); err != nil {
				return err
			}
			r.Tag = KindTextFile
			r.Content = inner.Content
			return nil
		default:
			return fmt.Errorf("writer: unrecognized resource kind tag %q", tag)
		}
	}
	return nil
}

// EmptyDirectory builds a ResourceKind for a fresh scratch directory.
func EmptyDirectory() ResourceKind { return ResourceKind{Tag: KindEmptyDirectory} }

// RuntimeTextFile builds a ResourceKind for a per-judge placeholder text.
func RuntimeTextFile() ResourceKind { return ResourceKind{Tag: KindRuntimeTextFile} }

// TextFile builds a ResourceKind for an immutable, writer-supplied blob.
func TextFile(content string) ResourceKind {
	return ResourceKind{Tag: KindTextFile, Content: content}
}

// Script is a named shell script body.
type Script struct {
	Content string `json:"content"`
}

// DependsOn names one dependency edge from an execution to a named node
// (a resource or another execution), carrying the envvar the dependency's
// on-worker path will be exposed under.
type DependsOn struct {
	RefTo      string `json:"ref_to"`
	EnvvarName string `json:"envvar_name"`
}

// Execution names the script to run and the resources/executions it
// depends on.
type Execution struct {
	ScriptName string      `json:"script_name"`
	DependsOn  []DependsOn `json:"depends_on"`
	// Priority orders executions that become ready simultaneously; higher
	// runs first. Zero if the writer does not care.
	Priority int32 `json:"priority,omitempty"`
}

// Procedure is the writer-authored, pre-registration plan for judging one
// submission.
type Procedure struct {
	Resources  map[string]ResourceKind `json:"resources"`
	Scripts    map[string]Script       `json:"scripts"`
	Executions map[string]Execution    `json:"executions"`
}

// New builds an empty Procedure ready for population.
func New() Procedure {
	return Procedure{
		Resources:  map[string]ResourceKind{},
		Scripts:    map[string]Script{},
		Executions: map[string]Execution{},
	}
}
