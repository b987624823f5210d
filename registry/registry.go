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

// Package registry implements the Problem Registry: a content-addressed
// store of immutable text blobs keyed by ids.ResourceId, refcounted so
// multiple registered procedures can share a resource and Remove only
// frees it once nothing references it anymore.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/binaek/perch"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/xerr"
)

// Server is the registry-owning side: Register stores a new blob and Remove
// drops one reference to an existing one.
type Server interface {
	// Register stores content under a fresh ResourceId and returns it.
	Register(ctx context.Context, content string) (ids.ResourceId, error)
	// Retain adds one more reference to an existing ResourceId, e.g. when a
	// second registered procedure reuses a blob another transpile.Register
	// call already minted. Fails with NotFoundError if id is unknown.
	Retain(ctx context.Context, id ids.ResourceId) error
	// Remove drops one reference to id; the blob is deleted once its
	// refcount reaches zero. Fails with NotFoundError if id is unknown.
	Remove(ctx context.Context, id ids.ResourceId) error
}

// Client is the consuming side: Fetch resolves a ResourceId to its content,
// read through a local cache so repeated fetches for the same submission's
// dependency graph don't round-trip to the registry server for every node.
type Client interface {
	Fetch(ctx context.Context, id ids.ResourceId) (string, error)
}

type record struct {
	content string
	refs    int
}

// InMemory is a Server and, via NewClient, backs a Client whose cache reads
// straight through to it without a transport hop. It's the only Server this
// module ships: the registry is a small trusted component that sits next to
// the judge runner, so an RPC-fronted Server is out of scope (see
// jobapi/remote for the RPC boundary that matters, the one to worker
// backends).
type InMemory struct {
	mu      sync.Mutex
	records map[ids.ResourceId]*record
}

// NewInMemory constructs an empty registry server.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[ids.ResourceId]*record)}
}

func (s *InMemory) Register(_ context.Context, content string) (ids.ResourceId, error) {
	id := ids.NewResourceId()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = &record{content: content, refs: 1}
	return id, nil
}

// Import stores content under a ResourceId minted elsewhere, rather than by
// this server. transpile.Register assigns a ResourceId to every TextFile
// and Script resource as it builds the registered::Procedure, so the blob
// it returns alongside that procedure must be persisted under the same id
// Register can't be reused for that: it always mints its own. Fails with
// InvalidSchemaError if id is already stored.
func (s *InMemory) Import(_ context.Context, id ids.ResourceId, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; exists {
		return xerr.ErrInvalidSchema("resource %s already registered", id)
	}
	s.records[id] = &record{content: content, refs: 1}
	return nil
}

func (s *InMemory) Retain(_ context.Context, id ids.ResourceId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return xerr.ErrNotFound("resource " + id.String())
	}
	r.refs++
	return nil
}

func (s *InMemory) Remove(_ context.Context, id ids.ResourceId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return xerr.ErrNotFound("resource " + id.String())
	}
	r.refs--
	if r.refs <= 0 {
		delete(s.records, id)
	}
	return nil
}

// fetch is the uncached lookup InMemory exposes to a cachingClient; it is
// deliberately unexported so a remote Client implementation can't reach
// behind the Server interface.
func (s *InMemory) fetch(id ids.ResourceId) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return "", xerr.ErrNotFound("resource " + id.String())
	}
	return r.content, nil
}

// DefaultCacheCapacity bounds how many distinct resources a cachingClient
// keeps warm at once. Sized for one judge's dependency graph plus headroom
// for a handful of concurrent submissions against the same small problem
// set, not for serving an entire registry's working set.
const DefaultCacheCapacity = 4096

// DefaultCacheTTL governs how long a fetched resource is trusted without
// re-checking the registry. Resources are immutable once registered, so
// this exists only to bound staleness after a Remove, not to track content
// changes.
const DefaultCacheTTL = 10 * time.Minute

type cachingClient struct {
	backend *InMemory
	cache   *perch.Perch[string]
	ttl     time.Duration
}

// NewClient builds a Client reading through an in-process cache in front
// of backend. perch.Perch collapses concurrent cache misses for the same
// key into a single loader call.
func NewClient(backend *InMemory) Client {
	return &cachingClient{
		backend: backend,
		cache:   perch.New[string](DefaultCacheCapacity),
		ttl:     DefaultCacheTTL,
	}
}

func (c *cachingClient) Fetch(ctx context.Context, id ids.ResourceId) (string, error) {
	return c.cache.Get(ctx, id.String(), c.ttl, func(_ context.Context, _ string) (string, error) {
		return c.backend.fetch(id)
	})
}
