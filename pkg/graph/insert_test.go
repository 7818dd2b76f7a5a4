package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_ConnectsToTwoNearest(t *testing.T) {
	g := mustLoad(t, lineDataset())

	n := g.AddNode(0.001, 0.0025)
	assert.Equal(t, int64(4), n.ID)
	assert.Zero(t, n.StreetCount)
	assert.Equal(t, int64(5), g.NextID())
	assert.Equal(t, 4, g.NumNodes())

	require.Equal(t, 2, g.Degree(n.ID))
	nbs := g.Neighbors(n.ID)
	assert.Equal(t, int64(3), nbs[0].To)
	assert.Equal(t, int64(2), nbs[1].To)

	for _, a := range nbs {
		fwd, ok := g.Edge(n.ID, a.To)
		require.True(t, ok)
		back, ok := g.Edge(a.To, n.ID)
		require.True(t, ok)
		assert.Equal(t, fwd.Weight, back.Weight)

		other, _ := g.Node(a.To)
		assert.InDelta(t, g.CalculateDistance(n, other), a.Weight, 1e-9)
	}
	assert.Equal(t, 2, g.Degree(3), "the neighbor links back to the new node")
	assert.Equal(t, 3, g.Degree(2))
}

func TestAddNode_NeverSelfConnects(t *testing.T) {
	g := mustLoad(t, lineDataset())
	n := g.AddNode(0, 0) // exactly on node 1
	for _, a := range g.Neighbors(n.ID) {
		assert.NotEqual(t, n.ID, a.To)
	}
	assert.Equal(t, 2, g.Degree(n.ID))
}

func TestAddNode_DegreeBound(t *testing.T) {
	g := New()

	first := g.AddNode(50.85, 5.69)
	assert.Equal(t, int64(0), first.ID)
	assert.Equal(t, 0, g.Degree(first.ID), "empty graph: no neighbors")

	second := g.AddNode(50.851, 5.69)
	assert.Equal(t, 1, g.Degree(second.ID))

	for i := 0; i < 5; i++ {
		n := g.AddNode(50.852+float64(i)*0.001, 5.691)
		assert.Equal(t, 2, g.Degree(n.ID))
	}
	assert.Equal(t, 7, g.NumNodes())
}

func TestAddNode_IndependentGraphs(t *testing.T) {
	a := mustLoad(t, lineDataset())
	b := mustLoad(t, lineDataset())

	a.AddNode(1, 1)
	a.AddNode(1, 2)
	n := b.AddNode(1, 1)
	assert.Equal(t, int64(4), n.ID, "allocators are per graph")
}

func TestAddNode_FoundByIndex(t *testing.T) {
	g := mustLoad(t, lineDataset())
	n := g.AddNode(10, 10)
	got, ok := g.FindClosestNode(10, 10)
	require.True(t, ok)
	assert.Equal(t, n.ID, got.ID)
}
