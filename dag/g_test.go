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

package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strNode string

func (s strNode) String() string { return string(s) }

func TestTopoSortLinearChain(t *testing.T) {
	g := New[strNode]()
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	order, err := g.TopoSort()
	require.NoError(t, err)

	pos := map[strNode]int{}
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := New[strNode]()
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "a"))

	_, err := g.TopoSort()
	require.Error(t, err)
	var cycleErr ErrCycle
	assert.ErrorAs(t, err, &cycleErr)
}

func TestDetectFirstCycleOnAcyclicGraphReturnsNil(t *testing.T) {
	g := New[strNode]()
	require.NoError(t, g.AddEdge("a", "b"))
	assert.Nil(t, g.DetectFirstCycle())
}

func TestAddEdgeRejectsSelfLoop(t *testing.T) {
	g := New[strNode]()
	err := g.AddEdge("a", "a")
	assert.ErrorIs(t, err, ErrSelfLoop)
}

func TestPredecessorsAndSuccessors(t *testing.T) {
	g := New[strNode]()
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "d"))

	preds := g.Predecessors("c")
	assert.ElementsMatch(t, []strNode{"a", "b"}, preds)

	succs := g.Successors("c")
	assert.ElementsMatch(t, []strNode{"d"}, succs)
}

func TestRoots(t *testing.T) {
	g := New[strNode]()
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("x", "b"))
	g.AddNode("standalone")

	roots := g.Roots()
	assert.ElementsMatch(t, []strNode{"a", "x", "standalone"}, roots)
}

func TestLen(t *testing.T) {
	g := New[strNode]()
	require.NoError(t, g.AddEdge("a", "b"))
	assert.Equal(t, 2, g.Len())
}
