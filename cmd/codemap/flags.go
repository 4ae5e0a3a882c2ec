package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/view"
)

// filterFlags are the graph filter options shared by several commands.
type filterFlags struct {
	hideTypes  []string
	hideEdges  []string
	categories []string
	query      string
}

func (ff *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&ff.hideTypes, "hide-type", nil, "hide node types (class, interface, endpoint, package, file)")
	fs.StringSliceVar(&ff.hideEdges, "hide-edge", nil, "hide edge types (extends, implements, imports, calls, contains)")
	fs.StringSliceVar(&ff.categories, "category", nil, "show only these categories")
	fs.StringVar(&ff.query, "filter", "", "show only nodes whose label or qualified name contains this text")
}

func (ff *filterFlags) filter() (view.Filter, error) {
	f := view.AllFilter()
	for _, t := range ff.hideTypes {
		nt := graph.NodeType(t)
		if !knownNodeType(nt) {
			return f, fmt.Errorf("unknown node type %q", t)
		}
		f.NodeTypes[nt] = false
	}
	for _, t := range ff.hideEdges {
		et := graph.EdgeType(t)
		if !knownEdgeType(et) {
			return f, fmt.Errorf("unknown edge type %q", t)
		}
		f.EdgeTypes[et] = false
	}
	if len(ff.categories) > 0 {
		f.Categories = make(map[string]bool, len(ff.categories))
		for _, c := range ff.categories {
			f.Categories[c] = true
		}
	}
	f.Query = ff.query
	return f, nil
}

func knownNodeType(t graph.NodeType) bool {
	for _, k := range graph.NodeTypes {
		if k == t {
			return true
		}
	}
	return false
}

func knownEdgeType(t graph.EdgeType) bool {
	for _, k := range graph.EdgeTypes {
		if k == t {
			return true
		}
	}
	return false
}
