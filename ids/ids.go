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

// Package ids defines the three disjoint UUID-typed handles used across a
// judge: ResourceId (content in the registry), DepId (a node in a
// registered procedure) and RuntimeId (a node in a per-submission runtime
// procedure). The three types never implicitly interconvert - a DepId
// cannot be passed where a ResourceId is expected without an explicit
// conversion function, which this package deliberately does not provide.
package ids

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ResourceId identifies an immutable text blob stored in the Problem
// Registry. Stable across judges; may be reused by many procedures.
type ResourceId struct{ u uuid.UUID }

// DepId identifies a node inside one registered procedure. Unique within
// that procedure; referenced by execution dependency edges.
type DepId struct{ u uuid.UUID }

// RuntimeId identifies a node inside one per-submission runtime procedure.
type RuntimeId struct{ u uuid.UUID }

// NewResourceId mints a fresh, random ResourceId.
func NewResourceId() ResourceId { return ResourceId{u: uuid.New()} }

// NewDepId mints a fresh, random DepId.
func NewDepId() DepId { return DepId{u: uuid.New()} }

// NewRuntimeId mints a fresh, random RuntimeId.
func NewRuntimeId() RuntimeId { return RuntimeId{u: uuid.New()} }

// ParseResourceId parses the canonical string form of a ResourceId.
func ParseResourceId(s string) (ResourceId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ResourceId{}, err
	}
	return ResourceId{u: u}, nil
}

// ParseDepId parses the canonical string form of a DepId.
func ParseDepId(s string) (DepId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DepId{}, err
	}
	return DepId{u: u}, nil
}

// ParseRuntimeId parses the canonical string form of a RuntimeId.
func ParseRuntimeId(s string) (RuntimeId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RuntimeId{}, err
	}
	return RuntimeId{u: u}, nil
}

func (r ResourceId) String() string { return r.u.String() }
func (d DepId) String() string      { return d.u.String() }
func (r RuntimeId) String() string  { return r.u.String() }

// IsZero reports whether the id is the zero value (never minted).
func (r ResourceId) IsZero() bool { return r.u == uuid.Nil }
func (d DepId) IsZero() bool      { return d.u == uuid.Nil }
func (r RuntimeId) IsZero() bool  { return r.u == uuid.Nil }

// MarshalText/UnmarshalText let these ids serve as map keys under
// encoding/json, which only supports string, integer, or
// encoding.TextMarshaler key types.
func (r ResourceId) MarshalText() ([]byte, error) { return []byte(r.u.String()), nil }
func (d DepId) MarshalText() ([]byte, error)       { return []byte(d.u.String()), nil }
func (r RuntimeId) MarshalText() ([]byte, error)   { return []byte(r.u.String()), nil }

func (r *ResourceId) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	r.u = u
	return nil
}

func (d *DepId) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	d.u = u
	return nil
}

func (r *RuntimeId) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	r.u = u
	return nil
}

func (r ResourceId) MarshalJSON() ([]byte, error) { return json.Marshal(r.u.String()) }
func (d DepId) MarshalJSON() ([]byte, error)       { return json.Marshal(d.u.String()) }
func (r RuntimeId) MarshalJSON() ([]byte, error)   { return json.Marshal(r.u.String()) }

func (r *ResourceId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	r.u = u
	return nil
}

func (d *DepId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	d.u = u
	return nil
}

func (r *RuntimeId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	r.u = u
	return nil
}
