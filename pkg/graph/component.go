package graph

import "sort"

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // ranks stay below ~30 for realistic graphs
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := uint32(0); i < n; i++ {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// Components groups the graph's nodes into connected components. Each
// component lists ids ascending; components are ordered by descending size,
// then by smallest id.
func Components(g *Graph) [][]int64 {
	ids := g.order
	if len(ids) == 0 {
		return nil
	}

	pos := make(map[int64]uint32, len(ids))
	for i, id := range ids {
		pos[id] = uint32(i)
	}

	uf := NewUnionFind(uint32(len(ids)))
	for _, id := range ids {
		for _, a := range g.adj[id] {
			uf.Union(pos[id], pos[a.To])
		}
	}
	return groupBy(uf, ids)
}

// LargestComponent returns a copy of ds restricted to its largest connected
// component. Links touching unknown node ids are dropped.
func LargestComponent(ds *Dataset) *Dataset {
	if len(ds.Nodes) == 0 {
		return &Dataset{Nodes: []NodeRecord{}, Links: []LinkRecord{}}
	}

	pos := make(map[int64]uint32, len(ds.Nodes))
	ids := make([]int64, 0, len(ds.Nodes))
	for _, n := range ds.Nodes {
		if _, dup := pos[n.ID]; dup {
			continue
		}
		pos[n.ID] = uint32(len(ids))
		ids = append(ids, n.ID)
	}

	uf := NewUnionFind(uint32(len(ids)))
	for _, l := range ds.Links {
		s, okS := pos[l.Source]
		t, okT := pos[l.Target]
		if okS && okT {
			uf.Union(s, t)
		}
	}

	// Find the representative with the largest size.
	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < uint32(len(ids)); i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	out := &Dataset{
		Nodes: make([]NodeRecord, 0, bestSize),
		Links: []LinkRecord{},
	}
	emitted := make(map[int64]struct{}, bestSize)
	for _, n := range ds.Nodes {
		if _, dup := emitted[n.ID]; dup {
			continue
		}
		if uf.Find(pos[n.ID]) == bestRoot {
			out.Nodes = append(out.Nodes, n)
			emitted[n.ID] = struct{}{}
		}
	}
	for _, l := range ds.Links {
		s, okS := pos[l.Source]
		if okS && uf.Find(s) == bestRoot {
			if _, okT := pos[l.Target]; okT {
				out.Links = append(out.Links, l)
			}
		}
	}
	return out
}

func groupBy(uf *UnionFind, ids []int64) [][]int64 {
	byRoot := make(map[uint32][]int64)
	for i, id := range ids {
		r := uf.Find(uint32(i))
		byRoot[r] = append(byRoot[r], id)
	}
	out := make([][]int64, 0, len(byRoot))
	for _, members := range byRoot {
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}
