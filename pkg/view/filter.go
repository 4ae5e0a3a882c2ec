package view

import (
	"strings"

	"github.com/ha1tch/codemap/pkg/graph"
)

// Filter decides which part of the domain graph is shown. A nil set places
// no restriction; an empty non-nil set admits nothing.
type Filter struct {
	NodeTypes  map[graph.NodeType]bool
	Categories map[string]bool
	EdgeTypes  map[graph.EdgeType]bool

	// Query is a plain substring matched against label and fully
	// qualified name.
	Query string
}

// AllFilter admits every node and edge type and every category.
func AllFilter() Filter {
	f := Filter{
		NodeTypes: make(map[graph.NodeType]bool, len(graph.NodeTypes)),
		EdgeTypes: make(map[graph.EdgeType]bool, len(graph.EdgeTypes)),
	}
	for _, t := range graph.NodeTypes {
		f.NodeTypes[t] = true
	}
	for _, t := range graph.EdgeTypes {
		f.EdgeTypes[t] = true
	}
	return f
}

// Clone returns a deep copy.
func (f Filter) Clone() Filter {
	out := Filter{Query: f.Query}
	if f.NodeTypes != nil {
		out.NodeTypes = make(map[graph.NodeType]bool, len(f.NodeTypes))
		for k, v := range f.NodeTypes {
			out.NodeTypes[k] = v
		}
	}
	if f.Categories != nil {
		out.Categories = make(map[string]bool, len(f.Categories))
		for k, v := range f.Categories {
			out.Categories[k] = v
		}
	}
	if f.EdgeTypes != nil {
		out.EdgeTypes = make(map[graph.EdgeType]bool, len(f.EdgeTypes))
		for k, v := range f.EdgeTypes {
			out.EdgeTypes[k] = v
		}
	}
	return out
}

// ToggleNodeType flips whether nodes of type t are shown.
func (f *Filter) ToggleNodeType(t graph.NodeType) {
	if f.NodeTypes == nil {
		f.NodeTypes = AllFilter().NodeTypes
	}
	f.NodeTypes[t] = !f.NodeTypes[t]
}

// ToggleEdgeType flips whether edges of type t are shown.
func (f *Filter) ToggleEdgeType(t graph.EdgeType) {
	if f.EdgeTypes == nil {
		f.EdgeTypes = AllFilter().EdgeTypes
	}
	f.EdgeTypes[t] = !f.EdgeTypes[t]
}

// AdmitsNode reports whether n passes the filter.
func (f Filter) AdmitsNode(n graph.Node) bool {
	if f.NodeTypes != nil && !f.NodeTypes[n.Type] {
		return false
	}
	if f.Categories != nil && !f.Categories[n.Metadata.Category()] {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Label), q) ||
		strings.Contains(strings.ToLower(n.Metadata.FQN()), q)
}

// AdmitsEdgeType reports whether edges of type t pass the filter.
func (f Filter) AdmitsEdgeType(t graph.EdgeType) bool {
	return f.EdgeTypes == nil || f.EdgeTypes[t]
}
