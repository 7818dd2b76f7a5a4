package routing

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_router/pkg/graph"
)

// buildGridGraph creates a rows×cols grid of nodes 0.001° apart with links
// between horizontal and vertical neighbors. Node ids are row*cols+col+1.
func buildGridGraph(t testing.TB, rows, cols int) *graph.Graph {
	t.Helper()
	ds := &graph.Dataset{Links: []graph.LinkRecord{}}
	id := func(r, c int) int64 { return int64(r*cols + c + 1) }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ds.Nodes = append(ds.Nodes, graph.NodeRecord{
				ID: id(r, c),
				Y:  50.85 + float64(r)*0.001,
				X:  5.69 + float64(c)*0.001,
			})
			if c > 0 {
				ds.Links = append(ds.Links, graph.LinkRecord{Source: id(r, c-1), Target: id(r, c)})
			}
			if r > 0 {
				ds.Links = append(ds.Links, graph.LinkRecord{Source: id(r-1, c), Target: id(r, c)})
			}
		}
	}
	g, err := graph.Load(ds)
	require.NoError(t, err)
	return g
}

// buildRandomGraph scatters n nodes and adds m random links.
func buildRandomGraph(t testing.TB, n, m int, seed int64) *graph.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	ds := &graph.Dataset{Links: []graph.LinkRecord{}}
	for i := 0; i < n; i++ {
		ds.Nodes = append(ds.Nodes, graph.NodeRecord{
			ID: int64(i + 1),
			Y:  50.84 + rng.Float64()*0.03,
			X:  5.67 + rng.Float64()*0.05,
		})
	}
	for i := 0; i < m; i++ {
		ds.Links = append(ds.Links, graph.LinkRecord{
			Source: int64(rng.Intn(n) + 1),
			Target: int64(rng.Intn(n) + 1),
		})
	}
	g, err := graph.Load(ds)
	require.NoError(t, err)
	return g
}

// bellmanFord is the reference single-source solver.
func bellmanFord(g *graph.Graph, source int64) map[int64]float64 {
	dist := make(map[int64]float64)
	for _, id := range g.NodeIDs() {
		dist[id] = math.Inf(1)
	}
	dist[source] = 0
	for i := 0; i < g.NumNodes(); i++ {
		changed := false
		for _, u := range g.NodeIDs() {
			for _, a := range g.Neighbors(u) {
				if dist[u]+a.Weight < dist[a.To] {
					dist[a.To] = dist[u] + a.Weight
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return dist
}

func TestShortestPaths_MatchesBellmanFord(t *testing.T) {
	g := buildRandomGraph(t, 150, 300, 3)

	for _, src := range []int64{1, 17, 150} {
		tree, err := ShortestPaths(context.Background(), g, src, SearchOptions{})
		require.NoError(t, err)
		want := bellmanFord(g, src)
		for _, id := range g.NodeIDs() {
			got := tree.Dist[id]
			if math.IsInf(want[id], 1) {
				assert.True(t, math.IsInf(got, 1), "node %d should be unreachable", id)
				continue
			}
			assert.InDelta(t, want[id], got, 1e-6, "src=%d node=%d", src, id)
		}
	}
}

func TestShortestPaths_Invariants(t *testing.T) {
	g := buildRandomGraph(t, 200, 500, 11)
	tree, err := ShortestPaths(context.Background(), g, 1, SearchOptions{})
	require.NoError(t, err)

	assert.Zero(t, tree.Dist[1])
	assert.Len(t, tree.Dist, g.NumNodes(), "every node gets a distance entry")

	for _, u := range g.NodeIDs() {
		du := tree.Dist[u]
		assert.GreaterOrEqual(t, du, 0.0)
		if math.IsInf(du, 1) {
			continue
		}
		for _, a := range g.Neighbors(u) {
			assert.LessOrEqual(t, tree.Dist[a.To], du+a.Weight+1e-9,
				"triangle inequality on %s", graph.EdgeKey(u, a.To))
		}
	}
}

func TestShortestPaths_PathTo(t *testing.T) {
	g := buildGridGraph(t, 3, 3)
	tree, err := ShortestPaths(context.Background(), g, 1, SearchOptions{})
	require.NoError(t, err)

	path := tree.PathTo(9)
	require.Len(t, path, 5, "corner to corner in a 3×3 grid")
	assert.Equal(t, int64(1), path[0])
	assert.Equal(t, int64(9), path[4])

	// Summing edge weights along the path gives the reported distance.
	var sum float64
	for i := 1; i < len(path); i++ {
		e, ok := g.Edge(path[i-1], path[i])
		require.True(t, ok)
		sum += e.Weight
	}
	d, ok := tree.Distance(9)
	require.True(t, ok)
	assert.InDelta(t, d, sum, 1e-9)

	assert.Equal(t, []int64{1}, tree.PathTo(1))
	assert.Nil(t, tree.PathTo(404))
}

func TestShortestPaths_UnknownStart(t *testing.T) {
	g := buildGridGraph(t, 2, 2)
	tree, err := ShortestPaths(context.Background(), g, 404, SearchOptions{})
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
	require.NotNil(t, tree)
	assert.Empty(t, tree.Dist)
	assert.Zero(t, tree.Settled)
}

func TestShortestPaths_SearchLimit(t *testing.T) {
	g := buildGridGraph(t, 5, 5)
	tree, err := ShortestPaths(context.Background(), g, 1, SearchOptions{MaxSettled: 10})
	assert.ErrorIs(t, err, ErrSearchLimit)
	assert.Equal(t, 11, tree.Settled)
}

func TestShortestPaths_Canceled(t *testing.T) {
	g := buildGridGraph(t, 15, 15)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ShortestPaths(ctx, g, 1, SearchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeNetwork lets tests hand the search arcs the Graph would never produce.
type fakeNetwork map[int64][]graph.Arc

func (f fakeNetwork) NodeIDs() []int64 {
	ids := make([]int64, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	return ids
}

func (f fakeNetwork) Node(id int64) (graph.Node, bool) {
	_, ok := f[id]
	return graph.Node{ID: id}, ok
}

func (f fakeNetwork) Neighbors(id int64) []graph.Arc { return f[id] }

func TestShortestPaths_RejectsNegativeWeight(t *testing.T) {
	net := fakeNetwork{
		1: {{To: 2, Weight: 5}},
		2: {{To: 3, Weight: -1}},
		3: nil,
	}
	_, err := ShortestPaths(context.Background(), net, 1, SearchOptions{})
	assert.ErrorIs(t, err, ErrNegativeWeight)
}

func TestShortestPaths_StaleEntriesSkipped(t *testing.T) {
	// 1→3 directly costs 10, via 2 costs 2: node 3 is pushed twice.
	net := fakeNetwork{
		1: {{To: 3, Weight: 10}, {To: 2, Weight: 1}},
		2: {{To: 3, Weight: 1}},
		3: nil,
	}
	tree, err := ShortestPaths(context.Background(), net, 1, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Settled)
	assert.Equal(t, 2.0, tree.Dist[3])
	assert.Equal(t, []int64{1, 2, 3}, tree.PathTo(3))
}

func TestMinHeap(t *testing.T) {
	var h MinHeap

	h.Push(1, 30)
	h.Push(2, 10)
	h.Push(3, 20)

	assert.Equal(t, 10.0, h.PeekDist())

	assert.Equal(t, PQItem{Node: 2, Dist: 10}, h.Pop())
	assert.Equal(t, PQItem{Node: 3, Dist: 20}, h.Pop())
	assert.Equal(t, PQItem{Node: 1, Dist: 30}, h.Pop())

	assert.Zero(t, h.Len())
	assert.True(t, math.IsInf(h.PeekDist(), 1))

	h.Push(4, 1)
	h.Reset()
	assert.Zero(t, h.Len())
}

func BenchmarkShortestPaths(b *testing.B) {
	g := buildGridGraph(b, 60, 60)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ShortestPaths(ctx, g, 1, SearchOptions{})
	}
}
