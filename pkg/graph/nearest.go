package graph

import (
	"road_router/pkg/geo"
)

// Search radii for the indexed nearest-node lookup, in meters. A radius is
// only trusted when the k-th best candidate lies inside it; past the last
// radius the lookup degrades to a full scan.
var searchRadii = []float64{100, 400, 1_600, 6_400, 25_600, 102_400}

// candidate is a node with its distance to a query point.
type candidate struct {
	node Node
	dist float64
}

// less orders candidates by distance, then by ascending id.
func (c candidate) less(o candidate) bool {
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.node.ID < o.node.ID
}

// FindClosestNode returns the node nearest to (lat, lon) by haversine
// distance. Ties go to the smallest id. ok is false on an empty graph.
func (g *Graph) FindClosestNode(lat, lon float64) (Node, bool) {
	best := g.nearest(geo.LatLng{Lat: lat, Lng: lon}, 1)
	if len(best) == 0 {
		return Node{}, false
	}
	return best[0].node, true
}

// FindTwoClosestNodes returns up to two distinct nodes nearest to (lat, lon),
// ascending by distance then id.
func (g *Graph) FindTwoClosestNodes(lat, lon float64) []Node {
	best := g.nearest(geo.LatLng{Lat: lat, Lng: lon}, 2)
	out := make([]Node, len(best))
	for i, c := range best {
		out[i] = c.node
	}
	return out
}

// nearest returns the k best candidates for q.
func (g *Graph) nearest(q geo.LatLng, k int) []candidate {
	if len(g.nodes) == 0 || k <= 0 {
		return nil
	}
	if k > len(g.nodes) {
		k = len(g.nodes)
	}

	for _, radius := range searchRadii {
		lo, hi, ok := geo.SearchBox(q, radius)
		if !ok {
			break
		}
		var top []candidate
		g.index.Search(lo, hi, func(_, _ [2]float64, id int64) bool {
			top = pushCandidate(top, k, g.candidateFor(q, id))
			return true
		})
		// Every node within radius is inside the box, so once the k-th
		// candidate is within radius nothing outside the box can beat it.
		if len(top) == k && top[k-1].dist <= radius {
			return top
		}
	}
	return g.scanNearest(q, k)
}

// scanNearest is the linear reference lookup over all nodes in id order.
func (g *Graph) scanNearest(q geo.LatLng, k int) []candidate {
	var top []candidate
	for _, id := range g.order {
		top = pushCandidate(top, k, g.candidateFor(q, id))
	}
	return top
}

func (g *Graph) candidateFor(q geo.LatLng, id int64) candidate {
	n := g.nodes[id]
	return candidate{node: n, dist: geo.Haversine(q.Lat, q.Lng, n.Lat, n.Lon)}
}

// pushCandidate inserts c into the sorted slice top, keeping at most k entries.
func pushCandidate(top []candidate, k int, c candidate) []candidate {
	if len(top) == k && !c.less(top[k-1]) {
		return top
	}
	i := len(top)
	if len(top) < k {
		top = append(top, c)
	} else {
		i = k - 1
		top[i] = c
	}
	for ; i > 0 && top[i].less(top[i-1]); i-- {
		top[i], top[i-1] = top[i-1], top[i]
	}
	return top
}
