package routing

import (
	"road_router/pkg/geo"
	"road_router/pkg/graph"
)

// DefaultSnapThresholdMeters is the distance beyond which a query point is
// treated as off-network and receives its own synthesized node.
const DefaultSnapThresholdMeters = 50.0

// SnapResult describes how a query coordinate was attached to the graph.
type SnapResult struct {
	Node        graph.Node
	Dist        float64 // meters from the query point to Node
	Synthesized bool    // true if Node was created for this query
}

// snap resolves q to a graph node: the nearest existing node when it lies
// within threshold meters, otherwise a node added at exactly q.
func snap(g *graph.Graph, q geo.LatLng, threshold float64) SnapResult {
	if n, ok := g.FindClosestNode(q.Lat, q.Lng); ok {
		if d := geo.Distance(q, n.LatLng()); d <= threshold {
			return SnapResult{Node: n, Dist: d}
		}
	}
	return SnapResult{Node: g.AddNode(q.Lat, q.Lng), Synthesized: true}
}
