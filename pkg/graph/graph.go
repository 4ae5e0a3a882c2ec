// Package graph provides the code-structure graph types consumed by the renderer.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGraph is wrapped by Validate failures.
var ErrInvalidGraph = errors.New("invalid graph")

// NodeType represents the kind of code entity.
type NodeType string

const (
	TypeClass     NodeType = "class"
	TypeInterface NodeType = "interface"
	TypeEndpoint  NodeType = "endpoint"
	TypePackage   NodeType = "package"
	TypeFile      NodeType = "file"
)

// NodeTypes lists every node type in display order.
var NodeTypes = []NodeType{TypeClass, TypeInterface, TypeEndpoint, TypePackage, TypeFile}

// EdgeType represents the kind of relationship between two entities.
type EdgeType string

const (
	EdgeExtends    EdgeType = "extends"
	EdgeImplements EdgeType = "implements"
	EdgeImports    EdgeType = "imports"
	EdgeCalls      EdgeType = "calls"
	EdgeContains   EdgeType = "contains"
)

// EdgeTypes lists every edge type in display order.
var EdgeTypes = []EdgeType{EdgeExtends, EdgeImplements, EdgeImports, EdgeCalls, EdgeContains}

// Node is a single code entity.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     NodeType `json:"type"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Edge is a directed relationship. Edges have no identity of their own.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// Graph is the domain graph produced by the project scanner.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode adds a node to the graph. A node with an existing id is ignored.
func (g *Graph) AddNode(n Node) {
	if g.NodeIndex(n.ID) >= 0 {
		return
	}
	g.Nodes = append(g.Nodes, n)
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(source, target string, t EdgeType) {
	g.Edges = append(g.Edges, Edge{Source: source, Target: target, Type: t})
}

// NodeIndex returns the index of a node, or -1 if not found.
func (g *Graph) NodeIndex(id string) int {
	for i, n := range g.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if i := g.NodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// Degrees counts edge endpoints per node id. Endpoints that do not name a
// node are counted too; callers look up only the ids they render.
func Degrees(g *Graph) map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// Validate checks that node ids are unique and non-empty and that every edge
// references existing nodes. It reports problems; it never repairs them.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	var problems []string

	for i, n := range g.Nodes {
		if n.ID == "" {
			problems = append(problems, fmt.Sprintf("node %d: empty id", i))
			continue
		}
		if seen[n.ID] {
			problems = append(problems, fmt.Sprintf("node %d: duplicate id %q", i, n.ID))
		}
		seen[n.ID] = true
	}

	for i, e := range g.Edges {
		if !seen[e.Source] {
			problems = append(problems, fmt.Sprintf("edge %d: source %q not in nodes", i, e.Source))
		}
		if !seen[e.Target] {
			problems = append(problems, fmt.Sprintf("edge %d: target %q not in nodes", i, e.Target))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGraph, strings.Join(problems, "; "))
	}
	return nil
}

// CountByType returns the number of nodes of each type.
func (g *Graph) CountByType() map[NodeType]int {
	counts := make(map[NodeType]int)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}

// String returns a short summary of the graph.
func (g *Graph) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Graph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges)))
	counts := g.CountByType()
	for _, t := range NodeTypes {
		if counts[t] > 0 {
			sb.WriteString(fmt.Sprintf("  %-10s %d\n", t, counts[t]))
		}
	}
	return sb.String()
}
