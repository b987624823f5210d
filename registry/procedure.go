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

package registry

import (
	"context"

	"github.com/traojudge/core/schema/registered"
	"github.com/traojudge/core/schema/writer"
	"github.com/traojudge/core/transpile"
)

// RegisterProcedure is the Problem Registry's register operation: it
// transpiles w into its registered form and persists every blob
// transpile.Register minted a ResourceId for into server, under
// that same id. transpile.Register (not server) decides the ResourceId of
// every Text node, so server.Register (which always mints its own id)
// cannot be reused here; Import exists on InMemory for exactly this case.
//
// On failure (InvalidSchema from the transpiler, or an id collision on
// import) the procedure returned is meaningless; any blobs already
// imported for this call are orphaned content with no node referencing
// them, which is harmless since nothing can ever look them up without the
// DepId-to-ResourceId mapping the discarded registered.Procedure carried.
func RegisterProcedure(ctx context.Context, server *InMemory, w writer.Procedure) (registered.Procedure, error) {
	reg, blobs, err := transpile.Register(w)
	if err != nil {
		return registered.Procedure{}, err
	}

	for id, content := range blobs {
		if err := server.Import(ctx, id, content); err != nil {
			return registered.Procedure{}, err
		}
	}

	return reg, nil
}
