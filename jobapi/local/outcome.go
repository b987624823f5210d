package local

import (
	"os"
	"sync/atomic"

	"github.com/traojudge/core/jobapi"
)

// outcomeToken is a refcounted handle to a path on the local filesystem.
// The underlying path is removed once every clone has been released, so an
// execution's output directory survives exactly as long as something still
// depends on it.
type outcomeToken struct {
	path string
	refs *int32
}

func newOutcomeToken(path string) *outcomeToken {
	refs := int32(1)
	return &outcomeToken{path: path, refs: &refs}
}

var _ jobapi.OutcomeToken = (*outcomeToken)(nil)

func (o *outcomeToken) Clone() jobapi.OutcomeToken {
	atomic.AddInt32(o.refs, 1)
	return &outcomeToken{path: o.path, refs: o.refs}
}

func (o *outcomeToken) Release() {
	if atomic.AddInt32(o.refs, -1) == 0 {
		_ = os.RemoveAll(o.path)
	}
}
