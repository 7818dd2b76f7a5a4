package graph

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/rtree"

	"road_router/pkg/geo"
)

var (
	// ErrUnknownNode is returned when an operation references a node id the graph does not hold.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNegativeWeight is returned when an edge weight is negative or not finite.
	ErrNegativeWeight = errors.New("negative edge weight")
)

// Node is a road-network vertex. Identity is ID alone.
type Node struct {
	ID          int64
	Lat         float64
	Lon         float64
	StreetCount int // degree hint from the source dataset; 0 for synthesized nodes
}

// LatLng returns the node's coordinate.
func (n Node) LatLng() geo.LatLng {
	return geo.LatLng{Lat: n.Lat, Lng: n.Lon}
}

// Arc is one adjacency entry: a neighbor and the weight (meters) to reach it.
type Arc struct {
	To     int64
	Weight float64
}

// Edge is a directed edge record. Undirected roads are stored as two records.
type Edge struct {
	Source int64
	Target int64
	Weight float64
}

// EdgeKey returns the composite "source-target" key of a directed edge.
func EdgeKey(source, target int64) string {
	return strconv.FormatInt(source, 10) + "-" + strconv.FormatInt(target, 10)
}

// idAllocator hands out node ids for synthesized nodes.
type idAllocator struct {
	next int64
}

func (a *idAllocator) observe(id int64) {
	if id >= a.next {
		a.next = id + 1
	}
}

func (a *idAllocator) allocate() int64 {
	id := a.next
	a.next++
	return id
}

// Graph owns all nodes and edges of a road network.
//
// Adjacency is id-indexed: adj[id] lists (neighbor, weight) pairs in
// insertion order. order holds node ids ascending; it is the iteration
// order used for deterministic tie-breaking.
//
// Graph is not safe for concurrent use.
type Graph struct {
	nodes map[int64]Node
	adj   map[int64][]Arc
	edges map[string]Edge
	order []int64
	index rtree.RTreeG[int64]
	ids   idAllocator
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[int64]Node),
		adj:   make(map[int64][]Arc),
		edges: make(map[string]Edge),
	}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of directed edge records.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the node with the given id.
func (g *Graph) Node(id int64) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns the adjacency list of id. The slice must not be modified.
func (g *Graph) Neighbors(id int64) []Arc {
	return g.adj[id]
}

// Degree returns the number of distinct neighbors of id.
func (g *Graph) Degree(id int64) int {
	return len(g.adj[id])
}

// Edge returns the directed edge source→target.
func (g *Graph) Edge(source, target int64) (Edge, bool) {
	e, ok := g.edges[EdgeKey(source, target)]
	return e, ok
}

// Edges calls fn for every directed edge record until fn returns false.
// Iteration order is unspecified.
func (g *Graph) Edges(fn func(key string, e Edge) bool) {
	for k, e := range g.edges {
		if !fn(k, e) {
			return
		}
	}
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []int64 {
	out := make([]int64, len(g.order))
	copy(out, g.order)
	return out
}

// NextID returns the id the next synthesized node will receive.
func (g *Graph) NextID() int64 { return g.ids.next }

// CalculateDistance returns the haversine distance in meters between two nodes.
func (g *Graph) CalculateDistance(a, b Node) float64 {
	return geo.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// insertNode registers n in the node table, id order and spatial index.
// Callers guarantee n.ID is unused and not smaller than any existing id.
func (g *Graph) insertNode(n Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	pt := [2]float64{n.Lon, n.Lat}
	g.index.Insert(pt, pt, n.ID)
	g.ids.observe(n.ID)
}

// connect stores the undirected edge a–b as two directed records and
// registers each endpoint in the other's adjacency.
func (g *Graph) connect(a, b int64, weight float64) error {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("edge %s: %w", EdgeKey(a, b), ErrNegativeWeight)
	}
	if _, ok := g.nodes[a]; !ok {
		return fmt.Errorf("edge %s source: %w", EdgeKey(a, b), ErrUnknownNode)
	}
	if _, ok := g.nodes[b]; !ok {
		return fmt.Errorf("edge %s target: %w", EdgeKey(a, b), ErrUnknownNode)
	}

	g.edges[EdgeKey(a, b)] = Edge{Source: a, Target: b, Weight: weight}
	g.edges[EdgeKey(b, a)] = Edge{Source: b, Target: a, Weight: weight}
	g.addArc(a, b, weight)
	if a != b {
		g.addArc(b, a, weight)
	}
	return nil
}

// addArc sets the weight from→to, overwriting an existing entry.
func (g *Graph) addArc(from, to int64, weight float64) {
	arcs := g.adj[from]
	for i := range arcs {
		if arcs[i].To == to {
			arcs[i].Weight = weight
			return
		}
	}
	g.adj[from] = append(arcs, Arc{To: to, Weight: weight})
}
