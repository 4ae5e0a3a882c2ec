package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonGraph is the wire representation produced by the scanner service.
// Some scanner versions emit "from"/"to" instead of "source"/"target".
type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// jsonNode defers metadata decoding so one malformed entry cannot reject
// the graph.
type jsonNode struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Type     NodeType        `json:"type"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type jsonEdge struct {
	Source string   `json:"source,omitempty"`
	Target string   `json:"target,omitempty"`
	From   string   `json:"from,omitempty"`
	To     string   `json:"to,omitempty"`
	Type   EdgeType `json:"type"`
}

// ParseJSON parses a graph from JSON.
func ParseJSON(data []byte) (*Graph, error) {
	var j jsonGraph
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}

	g := New()
	for _, jn := range j.Nodes {
		n := Node{ID: jn.ID, Label: jn.Label, Type: jn.Type, Metadata: decodeMetadata(jn.Metadata)}
		if n.Label == "" {
			n.Label = n.ID
		}
		g.Nodes = append(g.Nodes, n)
	}

	for _, je := range j.Edges {
		src, dst := je.Source, je.Target
		if src == "" {
			src = je.From
		}
		if dst == "" {
			dst = je.To
		}
		g.AddEdge(src, dst, je.Type)
	}

	return g, nil
}

// decodeMetadata returns nil for anything that is not a JSON object.
func decodeMetadata(raw json.RawMessage) Metadata {
	if len(raw) == 0 {
		return nil
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// ToJSON converts a graph to JSON.
func ToJSON(g *Graph, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(g, "", "  ")
	}
	return json.Marshal(g)
}

// ReadFile reads a graph from a JSON file.
func ReadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}
