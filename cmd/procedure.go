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

package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/traojudge/core/schema/writer"
)

// loadWriterProcedure reads the writer-schema JSON document at path (§6's
// authoring interchange format: resources/scripts/executions, each keyed
// by free-form name) into a writer.Procedure.
func loadWriterProcedure(path string) (writer.Procedure, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return writer.Procedure{}, errors.Wrapf(err, "reading writer procedure %s", path)
	}
	p := writer.New()
	if err := json.Unmarshal(b, &p); err != nil {
		return writer.Procedure{}, errors.Wrapf(err, "parsing writer procedure %s", path)
	}
	return p, nil
}

// loadWriterProcedureDir loads every *.json file directly under dir as a
// writer-schema procedure, keyed by its base file name without extension -
// the same shape a problem-setter's storefront would hand this core a
// batch of problems in. Used by `serve --problems-dir` to preload the
// registry at startup before the judge service opens for traffic.
func loadWriterProcedureDir(dir string) (map[string]writer.Procedure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading problems directory %s", dir)
	}

	out := make(map[string]writer.Procedure, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := entry.Name()[:len(entry.Name())-len(filepath.Ext(entry.Name()))]
		p, err := loadWriterProcedure(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}
