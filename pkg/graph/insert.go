package graph

import (
	"golang.org/x/exp/slog"
)

// AddNode synthesizes a node at (lat, lon) and wires it into the network.
//
// The two nearest existing nodes are chosen before the new node is
// inserted, and each is joined to it by a bidirectional edge weighted with
// the haversine distance. The new node therefore has degree
// min(2, NumNodes() before the call).
func (g *Graph) AddNode(lat, lon float64) Node {
	neighbors := g.FindTwoClosestNodes(lat, lon)

	n := Node{ID: g.ids.allocate(), Lat: lat, Lon: lon}
	g.insertNode(n)

	for _, nb := range neighbors {
		// Both endpoints exist and haversine is finite and non-negative.
		if err := g.connect(n.ID, nb.ID, g.CalculateDistance(n, nb)); err != nil {
			slog.Error("connect synthesized node", slog.Int64("id", n.ID), slog.String("error", err.Error()))
		}
	}

	slog.Debug("node synthesized",
		slog.Int64("id", n.ID),
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
		slog.Int("neighbors", len(neighbors)))
	return n
}
