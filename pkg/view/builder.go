// Package view turns the domain graph into scene elements and keeps the
// scene's selection and search state in step with the application. It also
// provides the navigation handle other components use to move the camera.
package view

import (
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/scene"
)

// CompoundPrefix starts the id of every synthetic package parent.
const CompoundPrefix = "pkg:"

// EdgeWidth is the stroke width of rendered edges.
const EdgeWidth = 1.5

// BuildOptions are the visual options of a build.
type BuildOptions struct {
	Sizing  Sizing
	Cluster bool // nest nodes under one parent per package
}

// EdgeID composes the stable id of an edge.
func EdgeID(e graph.Edge) string {
	return e.Source + "|" + string(e.Type) + "|" + e.Target
}

type degreeKey struct {
	g     *graph.Graph
	edges int
}

// Builder converts a domain graph into scene elements. The only state it
// keeps is the degree table of the last graph it saw, so repeated builds of
// the same graph with different filters do not recount edges.
type Builder struct {
	key     degreeKey
	degrees map[string]int
}

// NewBuilder creates a builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) degreesOf(g *graph.Graph) map[string]int {
	key := degreeKey{g: g, edges: len(g.Edges)}
	if b.degrees == nil || b.key != key {
		b.key = key
		b.degrees = graph.Degrees(g)
	}
	return b.degrees
}

// Build returns the elements for the part of g admitted by f. Output order
// is package parents, then nodes, then edges, each in input order. Edges
// whose endpoints are not both shown are dropped; duplicate edges collapse.
func (b *Builder) Build(g *graph.Graph, f Filter, opts BuildOptions) []scene.Element {
	if g == nil {
		return nil
	}

	var degrees map[string]int
	if opts.Sizing == SizeByDegree {
		degrees = b.degreesOf(g)
	}

	var (
		parents []scene.Element
		nodes   []scene.Element
		edges   []scene.Element
	)
	shown := make(map[string]bool, len(g.Nodes))
	seenParent := make(map[string]bool)

	for _, n := range g.Nodes {
		if shown[n.ID] || !f.AdmitsNode(n) {
			continue
		}
		shown[n.ID] = true

		el := nodeElement(n, opts.Sizing, degrees)
		if pkg := n.Metadata.Package(); opts.Cluster && pkg != "" {
			el.Parent = CompoundPrefix + pkg
			if !seenParent[pkg] {
				seenParent[pkg] = true
				parents = append(parents, packageElement(pkg))
			}
		}
		nodes = append(nodes, el)
	}

	seenEdge := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if !shown[e.Source] || !shown[e.Target] || !f.AdmitsEdgeType(e.Type) {
			continue
		}
		id := EdgeID(e)
		if seenEdge[id] {
			continue
		}
		seenEdge[id] = true
		edges = append(edges, scene.Element{
			Group:  scene.Edges,
			ID:     id,
			Source: e.Source,
			Target: e.Target,
			Data:   scene.Data{Kind: string(e.Type), Label: string(e.Type)},
			Style: scene.Style{
				Color:   EdgeColor(e.Type),
				Size:    EdgeWidth,
				Opacity: 1,
			},
		})
	}

	out := make([]scene.Element, 0, len(parents)+len(nodes)+len(edges))
	out = append(out, parents...)
	out = append(out, nodes...)
	return append(out, edges...)
}

func nodeElement(n graph.Node, mode Sizing, degrees map[string]int) scene.Element {
	look := lookFor(n.Type)
	label := n.Label
	if label == "" {
		label = n.ID
	}
	return scene.Element{
		Group: scene.Nodes,
		ID:    n.ID,
		Data: scene.Data{
			Label:       label,
			Kind:        string(n.Type),
			FQN:         n.Metadata.FQN(),
			Package:     n.Metadata.Package(),
			Category:    n.Metadata.Category(),
			Modifiers:   n.Metadata.Modifiers(),
			Annotations: n.Metadata.Annotations(),
		},
		Style: scene.Style{
			Color:   look.color,
			Border:  look.border,
			Shape:   look.shape,
			Size:    sizeFor(n, mode, degrees),
			Opacity: 1,
			Label:   label,
		},
	}
}

func packageElement(pkg string) scene.Element {
	return scene.Element{
		Group: scene.Nodes,
		ID:    CompoundPrefix + pkg,
		Data: scene.Data{
			Label:    pkg,
			Kind:     string(graph.TypePackage),
			Package:  pkg,
			Compound: true,
		},
		Style: scene.Style{
			Color:   compoundColor,
			Border:  lookFor(graph.TypePackage).border,
			Shape:   scene.ShapeRoundRect,
			Opacity: 1,
			Label:   pkg,
		},
	}
}
