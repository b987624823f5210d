package transpile

import (
	"context"
	"errors"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/schema/registered"
	"github.com/traojudge/core/schema/runtime"
	"github.com/traojudge/core/xerr"
)

// ResourceFetcher resolves a Text node's ResourceId to its stored content.
// Satisfied by registry.Client.Fetch.
type ResourceFetcher func(ctx context.Context, id ids.ResourceId) (string, error)

// Instantiate transpiles a registered procedure into its runtime form for
// one judge request: every RuntimeText label is substituted from
// runtimeTexts, every Text's content is fetched via fetch, and every node
// is given a fresh RuntimeId while recording the DepId it came from so
// results can still be reported per-DepId.
//
// Fails with InvalidSchema if a RuntimeText label has no entry in
// runtimeTexts or fetch reports a Text node's ResourceId as not found, and
// propagates any other error fetch returns for a Text node.
func Instantiate(ctx context.Context, reg registered.Procedure, runtimeTexts map[string]string, fetch ResourceFetcher) (runtime.Procedure, error) {
	depToRuntime := make(map[ids.DepId]ids.RuntimeId, len(reg.AllNodeIds()))
	for _, id := range reg.AllNodeIds() {
		depToRuntime[id] = ids.NewRuntimeId()
	}

	var out runtime.Procedure

	for _, n := range reg.EmptyDirectories {
		out.Files = append(out.Files, runtime.ResolvedFile{
			Id:          depToRuntime[n.Id],
			OriginDepId: n.Id,
			Conf:        jobapi.FileConf{Kind: jobapi.FileConfEmptyDirectory},
		})
	}

	for _, n := range reg.RuntimeTexts {
		content, ok := runtimeTexts[n.Label]
		if !ok {
			return runtime.Procedure{}, xerr.ErrInvalidSchema("missing runtime text for label %q", n.Label)
		}
		out.Files = append(out.Files, runtime.ResolvedFile{
			Id:          depToRuntime[n.Id],
			OriginDepId: n.Id,
			Conf:        jobapi.FileConf{Kind: jobapi.FileConfRuntimeText, Content: content},
		})
	}

	for _, n := range reg.Texts {
		content, err := fetch(ctx, n.ResourceId)
		if err != nil {
			var notFound xerr.NotFoundError
			if errors.As(err, &notFound) {
				return runtime.Procedure{}, xerr.ErrInvalidSchema("unknown resource %s for node %s", n.ResourceId, n.Id)
			}
			return runtime.Procedure{}, xerr.Wrapf(err, "fetching resource for node %s", n.Id)
		}
		out.Files = append(out.Files, runtime.ResolvedFile{
			Id:          depToRuntime[n.Id],
			OriginDepId: n.Id,
			Conf:        jobapi.FileConf{Kind: jobapi.FileConfText, ResourceId: n.ResourceId, Content: content},
		})
	}

	for _, exec := range reg.Executions {
		deps := make([]runtime.ResolvedDependency, 0, len(exec.Dependency))
		for _, d := range exec.Dependency {
			rid, ok := depToRuntime[d.Id]
			if !ok {
				return runtime.Procedure{}, xerr.ErrInvalidSchema("execution %s depends on undeclared node %s", exec.Id, d.Id)
			}
			deps = append(deps, runtime.ResolvedDependency{Id: rid, EnvvarName: d.EnvvarName})
		}
		out.Executions = append(out.Executions, runtime.ResolvedExecution{
			Id:          depToRuntime[exec.Id],
			OriginDepId: exec.Id,
			Priority:    exec.Priority,
			Dependency:  deps,
		})
	}

	return out, nil
}
