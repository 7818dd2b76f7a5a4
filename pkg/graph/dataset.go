package graph

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformedDataset is returned when a dataset document cannot be interpreted.
var ErrMalformedDataset = errors.New("malformed dataset")

// NodeRecord is one entry of the dataset's "nodes" collection.
// X is longitude and Y is latitude, as emitted by osmnx node-link exports.
type NodeRecord struct {
	ID          int64   `json:"id"`
	Y           float64 `json:"y"`
	X           float64 `json:"x"`
	StreetCount int     `json:"street_count"`
}

// LinkRecord is one entry of the dataset's "links" collection.
// Weights are never read from the dataset.
type LinkRecord struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// Dataset is the ingestion document: nodes plus undirected links.
type Dataset struct {
	Nodes []NodeRecord `json:"nodes"`
	Links []LinkRecord `json:"links"`
}

// rawNode mirrors NodeRecord with pointers so missing fields are detectable.
type rawNode struct {
	ID          *int64   `json:"id"`
	Y           *float64 `json:"y"`
	X           *float64 `json:"x"`
	StreetCount int      `json:"street_count"`
}

type rawLink struct {
	Source *int64 `json:"source"`
	Target *int64 `json:"target"`
}

type rawDataset struct {
	Nodes []rawNode `json:"nodes"`
	Links []rawLink `json:"links"`
}

// ReadDataset decodes a node-link JSON document. Unknown fields are ignored.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var raw rawDataset
	if err := json.NewDecoder(bufio.NewReader(r)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMalformedDataset, err)
	}
	if raw.Nodes == nil {
		return nil, fmt.Errorf("%w: missing \"nodes\" collection", ErrMalformedDataset)
	}
	if raw.Links == nil {
		return nil, fmt.Errorf("%w: missing \"links\" collection", ErrMalformedDataset)
	}

	ds := &Dataset{
		Nodes: make([]NodeRecord, len(raw.Nodes)),
		Links: make([]LinkRecord, len(raw.Links)),
	}
	for i, n := range raw.Nodes {
		if n.ID == nil || n.X == nil || n.Y == nil {
			return nil, fmt.Errorf("%w: node record %d lacks id, x or y", ErrMalformedDataset, i)
		}
		ds.Nodes[i] = NodeRecord{ID: *n.ID, Y: *n.Y, X: *n.X, StreetCount: n.StreetCount}
	}
	for i, l := range raw.Links {
		if l.Source == nil || l.Target == nil {
			return nil, fmt.Errorf("%w: link record %d lacks source or target", ErrMalformedDataset, i)
		}
		ds.Links[i] = LinkRecord{Source: *l.Source, Target: *l.Target}
	}
	return ds, nil
}

// WriteDataset writes ds as JSON to path. The file is written to a
// temporary sibling first and renamed into place, so readers never observe
// a partial document.
func WriteDataset(path string, ds *Dataset) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	w := bufio.NewWriter(f)
	if err := json.NewEncoder(w).Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
