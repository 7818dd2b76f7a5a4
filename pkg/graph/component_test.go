package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	// Initially all separate.
	for i := uint32(0); i < 5; i++ {
		assert.Equal(t, i, uf.Find(i))
	}

	assert.True(t, uf.Union(0, 1))
	assert.Equal(t, uf.Find(0), uf.Find(1))

	uf.Union(2, 3)
	assert.Equal(t, uf.Find(2), uf.Find(3))
	assert.NotEqual(t, uf.Find(0), uf.Find(2))

	// Union the two groups.
	uf.Union(1, 3)
	assert.Equal(t, uf.Find(0), uf.Find(3))
	assert.Equal(t, uint32(4), uf.Size(2))
	assert.False(t, uf.Union(0, 2), "already merged")
}

// twoComponents has 10–20–30 and 40–50.
func twoComponents() *Dataset {
	return &Dataset{
		Nodes: []NodeRecord{
			{ID: 10, Y: 1.0, X: 103.0},
			{ID: 20, Y: 1.1, X: 103.0},
			{ID: 30, Y: 1.2, X: 103.0},
			{ID: 40, Y: 2.0, X: 103.0},
			{ID: 50, Y: 2.1, X: 103.0},
		},
		Links: []LinkRecord{
			{Source: 10, Target: 20},
			{Source: 20, Target: 30},
			{Source: 40, Target: 50},
		},
	}
}

func TestComponents(t *testing.T) {
	g := mustLoad(t, twoComponents())

	comps := Components(g)
	require.Len(t, comps, 2)
	assert.Equal(t, []int64{10, 20, 30}, comps[0])
	assert.Equal(t, []int64{40, 50}, comps[1])

	assert.Nil(t, Components(New()))
}

func TestLargestComponent(t *testing.T) {
	out := LargestComponent(twoComponents())

	ids := make([]int64, len(out.Nodes))
	for i, n := range out.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []int64{10, 20, 30}, ids)
	assert.Equal(t, []LinkRecord{{Source: 10, Target: 20}, {Source: 20, Target: 30}}, out.Links)

	g, err := Load(out)
	require.NoError(t, err)
	assert.Len(t, Components(g), 1)
}

func TestLargestComponent_Empty(t *testing.T) {
	out := LargestComponent(&Dataset{})
	assert.Empty(t, out.Nodes)
	assert.NotNil(t, out.Links)
}
