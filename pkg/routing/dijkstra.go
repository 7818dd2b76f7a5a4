package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"road_router/pkg/graph"
)

var (
	// ErrSearchLimit is returned when a search settles more nodes than allowed.
	ErrSearchLimit = errors.New("search limit exceeded")
	// ErrNegativeWeight is returned when a traversed arc has a negative weight.
	ErrNegativeWeight = errors.New("negative arc weight")
)

// ctxCheckInterval is how many settled nodes pass between context checks.
const ctxCheckInterval = 100

// Network is the read-only view of a graph that a search needs.
type Network interface {
	NodeIDs() []int64
	Node(id int64) (graph.Node, bool)
	Neighbors(id int64) []graph.Arc
}

// SearchOptions bounds a single-source search.
type SearchOptions struct {
	MaxSettled int // 0 = unlimited
}

// Tree is the result of a single-source search: tentative-final distances
// for every node (+Inf when unreachable) and predecessor links.
type Tree struct {
	Source  int64
	Dist    map[int64]float64
	Pred    map[int64]int64
	Settled int
}

// Distance returns the shortest distance from the source to id.
// ok is false when id is unknown or unreachable.
func (t *Tree) Distance(id int64) (float64, bool) {
	d, ok := t.Dist[id]
	if !ok || math.IsInf(d, 1) {
		return 0, false
	}
	return d, true
}

// PathTo returns the node ids from the source to id, or nil if id is unreachable.
func (t *Tree) PathTo(id int64) []int64 {
	if _, ok := t.Distance(id); !ok {
		return nil
	}
	var path []int64
	for node := id; ; {
		path = append(path, node)
		if node == t.Source {
			break
		}
		pred, ok := t.Pred[node]
		if !ok {
			return nil
		}
		node = pred
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ShortestPaths runs Dijkstra from start over g.
//
// Every node starts at +Inf except start (0). The queue uses lazy deletion:
// improved distances are pushed again and already-settled pops are skipped.
// An unknown start yields an empty tree and ErrUnknownNode.
func ShortestPaths(ctx context.Context, g Network, start int64, opts SearchOptions) (*Tree, error) {
	tree := &Tree{
		Source: start,
		Dist:   make(map[int64]float64),
		Pred:   make(map[int64]int64),
	}
	if _, ok := g.Node(start); !ok {
		return tree, fmt.Errorf("start %d: %w", start, graph.ErrUnknownNode)
	}

	for _, id := range g.NodeIDs() {
		tree.Dist[id] = math.Inf(1)
	}
	tree.Dist[start] = 0

	visited := make(map[int64]struct{})
	var pq MinHeap
	pq.Push(start, 0)

	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.Node
		if _, done := visited[u]; done {
			continue // stale entry
		}
		visited[u] = struct{}{}
		tree.Settled++

		if tree.Settled%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return tree, err
			}
		}
		if opts.MaxSettled > 0 && tree.Settled > opts.MaxSettled {
			return tree, fmt.Errorf("%d settled: %w", tree.Settled, ErrSearchLimit)
		}

		du := tree.Dist[u]
		for _, a := range g.Neighbors(u) {
			if a.Weight < 0 {
				return tree, fmt.Errorf("arc %s: %w", graph.EdgeKey(u, a.To), ErrNegativeWeight)
			}
			if _, done := visited[a.To]; done {
				continue
			}
			nd := du + a.Weight
			cur, known := tree.Dist[a.To]
			if !known {
				cur = math.Inf(1)
			}
			if nd < cur {
				tree.Dist[a.To] = nd
				tree.Pred[a.To] = u
				pq.Push(a.To, nd)
			}
		}
	}

	return tree, nil
}
