package osm

import (
	"bytes"
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_router/pkg/graph"
)

func TestIsCarAccessible(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "motorway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: true,
		},
		{
			name: "footway (not car accessible)",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "cycleway",
			tags: osm.Tags{{Key: "highway", Value: "cycleway"}},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "no access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "no"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "oneway=reversible",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reversible"},
			},
			want: false,
		},
		{
			name: "oneway=yes is still a road",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "yes"},
			},
			want: true,
		},
		{
			name: "living_street",
			tags: osm.Tags{{Key: "highway", Value: "living_street"}},
			want: true,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Some Street"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCarAccessible(tt.tags))
		})
	}
}

func TestBuildDataset(t *testing.T) {
	coords := map[osm.NodeID]orb.Point{
		10: {5.690, 50.850},
		11: {5.691, 50.850},
		12: {5.692, 50.850},
		13: {5.691, 50.851},
	}
	ways := []wayInfo{
		{NodeIDs: []osm.NodeID{10, 11, 12}},
		{NodeIDs: []osm.NodeID{12, 11}},     // reverse duplicate of 11-12
		{NodeIDs: []osm.NodeID{11, 11, 13}}, // repeated node
		{NodeIDs: []osm.NodeID{13, 99}},     // 99 has no coordinate
	}

	ds := buildDataset(ways, coords, BBox{})

	assert.Equal(t, []graph.LinkRecord{
		{Source: 10, Target: 11},
		{Source: 11, Target: 12},
		{Source: 11, Target: 13},
	}, ds.Links)

	require.Len(t, ds.Nodes, 4)
	assert.Equal(t, graph.NodeRecord{ID: 10, Y: 50.850, X: 5.690, StreetCount: 1}, ds.Nodes[0])
	assert.Equal(t, int64(11), ds.Nodes[1].ID)
	assert.Equal(t, 3, ds.Nodes[1].StreetCount)
	assert.Equal(t, 1, ds.Nodes[2].StreetCount)
	assert.Equal(t, 1, ds.Nodes[3].StreetCount)

	g, err := graph.Load(ds)
	require.NoError(t, err)
	assert.Equal(t, 6, g.NumEdges())
}

func TestBuildDataset_BBox(t *testing.T) {
	coords := map[osm.NodeID]orb.Point{
		1: {103.80, 1.30},
		2: {103.81, 1.30},
		3: {104.50, 1.30}, // outside
	}
	ways := []wayInfo{{NodeIDs: []osm.NodeID{1, 2, 3}}}
	bbox := BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}

	ds := buildDataset(ways, coords, bbox)
	assert.Equal(t, []graph.LinkRecord{{Source: 1, Target: 2}}, ds.Links)
	assert.Len(t, ds.Nodes, 2)
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("1.15,103.6,1.48,104.1")
	require.NoError(t, err)
	assert.Equal(t, BBox{MinLat: 1.15, MinLng: 103.6, MaxLat: 1.48, MaxLng: 104.1}, b)
	assert.True(t, b.Contains(1.3, 103.8))
	assert.False(t, b.Contains(1.3, 104.5))

	_, err = ParseBBox("1,2,3")
	assert.Error(t, err)
	_, err = ParseBBox("2,2,1,3")
	assert.Error(t, err)
}

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="50.850" lon="5.690" version="1"/>
  <node id="2" lat="50.850" lon="5.691" version="1"/>
  <node id="3" lat="50.851" lon="5.691" version="1"/>
  <node id="4" lat="50.852" lon="5.692" version="1"/>
  <way id="100" version="1">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="101" version="1">
    <nd ref="3"/>
    <nd ref="4"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

func TestParse_XML(t *testing.T) {
	var passes []int
	opt := ParseOptions{
		Format:   FormatXML,
		Progress: func(pass, _ int) { passes = append(passes, pass) },
	}

	ds, err := Parse(context.Background(), bytes.NewReader([]byte(sampleXML)), opt)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, passes)
	assert.Equal(t, []graph.LinkRecord{{Source: 1, Target: 2}, {Source: 2, Target: 3}}, ds.Links)
	require.Len(t, ds.Nodes, 3, "footway-only node 4 is dropped")
	assert.InDelta(t, 50.851, ds.Nodes[2].Y, 1e-9)
	assert.InDelta(t, 5.691, ds.Nodes[2].X, 1e-9)
	assert.Equal(t, 2, ds.Nodes[1].StreetCount)
}
