// Package autolayout implements the node placement algorithms driven by the
// render engine: two force-directed variants, grid, circle and a
// breadth-first hierarchy. Inputs and outputs are plain data so a run can be
// performed on a snapshot away from the engine.
package autolayout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ha1tch/codemap/pkg/geom"
)

// ErrUnknownAlgorithm is returned for an unrecognised layout name.
var ErrUnknownAlgorithm = errors.New("unknown layout algorithm")

// Algorithm names.
const (
	FCoSE        = "fcose"
	CoSE         = "cose"
	Grid         = "grid"
	Circle       = "circle"
	BreadthFirst = "breadthfirst"
)

// Algorithms lists every supported algorithm.
var Algorithms = []string{FCoSE, CoSE, Grid, Circle, BreadthFirst}

// IsForceDirected reports whether name is one of the force-directed variants.
func IsForceDirected(name string) bool {
	return name == FCoSE || name == CoSE
}

// Known reports whether name is a supported algorithm.
func Known(name string) bool {
	for _, a := range Algorithms {
		if a == name {
			return true
		}
	}
	return false
}

// Node is a node to be placed. X and Y carry the current position, used as
// the starting point by cose.
type Node struct {
	ID     string  `json:"id"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Parent string  `json:"parent,omitempty"`
}

// Edge connects two nodes by id.
type Edge struct {
	Source string `json:"s"`
	Target string `json:"t"`
}

// Graph is a self-contained layout input.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Params configures a layout run. Fields that do not apply to an algorithm
// are ignored by it.
type Params struct {
	Name              string  `json:"name"`
	Fit               bool    `json:"fit"`
	Padding           float64 `json:"padding"`
	Animate           bool    `json:"animate"`
	AnimationDuration int     `json:"animationDuration"` // milliseconds

	// Force-directed.
	NumIter         int     `json:"numIter,omitempty"`
	NodeRepulsion   float64 `json:"nodeRepulsion,omitempty"`
	IdealEdgeLength float64 `json:"idealEdgeLength,omitempty"`
	Gravity         float64 `json:"gravity,omitempty"`

	// Grid, circle and breadthfirst.
	AvoidOverlap bool    `json:"avoidOverlap,omitempty"`
	Spacing      float64 `json:"spacing,omitempty"`

	// Bounding area the layout aims for.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Positions maps node id to centre position.
type Positions map[string]geom.Point

// Missing returns the ids of g's nodes that have no position, in node order.
func (p Positions) Missing(g Graph) []string {
	var missing []string
	for _, n := range g.Nodes {
		if _, ok := p[n.ID]; !ok {
			missing = append(missing, n.ID)
		}
	}
	return missing
}

// Bounds returns the bounding box of the positioned nodes.
func (p Positions) Bounds(g Graph) (geom.Rect, bool) {
	rects := make([]geom.Rect, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if pt, ok := p[n.ID]; ok {
			rects = append(rects, geom.RectAround(pt, n.Width, n.Height))
		}
	}
	return geom.Bounds(rects)
}

// Run computes positions for every node of g.
func Run(ctx context.Context, g Graph, p Params) (Positions, error) {
	if len(g.Nodes) == 0 {
		return Positions{}, nil
	}
	p = withDefaults(p)

	var (
		pos Positions
		err error
	)
	switch p.Name {
	case FCoSE, CoSE:
		pos, err = layoutForceDirected(ctx, g, p)
	case Grid:
		pos = layoutGrid(g, p)
	case Circle:
		pos = layoutCircular(g, p)
	case BreadthFirst:
		pos = layoutHierarchical(g, p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, p.Name)
	}
	if err != nil {
		return nil, err
	}

	if p.AvoidOverlap || IsForceDirected(p.Name) {
		pos = resolveCollisions(g, pos, p.Spacing)
	}
	return pos, nil
}

func withDefaults(p Params) Params {
	if p.Width <= 0 {
		p.Width = 1200
	}
	if p.Height <= 0 {
		p.Height = 800
	}
	if p.Spacing <= 0 {
		p.Spacing = 10
	}
	if p.NumIter <= 0 {
		p.NumIter = 1000
	}
	if p.NodeRepulsion <= 0 {
		p.NodeRepulsion = 4500
	}
	if p.IdealEdgeLength <= 0 {
		p.IdealEdgeLength = 80
	}
	if p.Gravity <= 0 {
		p.Gravity = 0.25
	}
	return p
}

// layoutGrid arranges nodes in a simple grid pattern.
func layoutGrid(g Graph, p Params) Positions {
	positions := make(Positions, len(g.Nodes))
	n := len(g.Nodes)

	// Calculate grid dimensions from the canvas aspect ratio
	cols := int(math.Ceil(math.Sqrt(float64(n) * p.Width / p.Height)))
	if cols < 1 {
		cols = 1
	}
	if cols > n {
		cols = n
	}

	// Cell size: the largest node plus spacing when avoiding overlap,
	// otherwise an even split of the canvas
	cellW := p.Width / float64(cols)
	rows := (n + cols - 1) / cols
	cellH := p.Height / float64(rows)
	if p.AvoidOverlap {
		maxW, maxH := maxNodeSize(g)
		cellW = math.Max(cellW, maxW+p.Spacing)
		cellH = math.Max(cellH, maxH+p.Spacing)
	}

	for i, node := range g.Nodes {
		col := i % cols
		row := i / cols
		positions[node.ID] = geom.Point{
			X: cellW/2 + float64(col)*cellW,
			Y: cellH/2 + float64(row)*cellH,
		}
	}

	return positions
}

// layoutCircular arranges nodes in a circle, ordered by connectivity, with
// the first node at the top.
func layoutCircular(g Graph, p Params) Positions {
	positions := make(Positions, len(g.Nodes))
	n := len(g.Nodes)

	centre := geom.Point{X: p.Width / 2, Y: p.Height / 2}

	// Radius based on available space, grown so neighbours do not touch
	radius := math.Min(p.Width, p.Height)/2 - p.Padding
	if p.AvoidOverlap && n > 1 {
		maxW, maxH := maxNodeSize(g)
		minRadius := (math.Max(maxW, maxH) + p.Spacing) / (2 * math.Sin(math.Pi/float64(n)))
		radius = math.Max(radius, minRadius)
	}
	if radius < 10 {
		radius = 10
	}

	ordered := orderByConnectivity(g)

	for i, id := range ordered {
		// Angle: start from top (-π/2), go clockwise
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		positions[id] = geom.Point{
			X: centre.X + radius*math.Cos(angle),
			Y: centre.Y + radius*math.Sin(angle),
		}
	}

	return positions
}

// layoutHierarchical arranges nodes in layers based on BFS distance from
// the roots (nodes without incoming edges), then orders each layer to
// reduce crossings.
func layoutHierarchical(g Graph, p Params) Positions {
	positions := make(Positions, len(g.Nodes))

	adj := buildAdjacency(g)
	indeg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Source != e.Target {
			indeg[e.Target]++
		}
	}

	layers := make(map[string]int, len(g.Nodes))
	maxLayer := 0

	var queue []string
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			layers[n.ID] = 0
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adj[current] {
			if _, visited := layers[next]; !visited {
				layers[next] = layers[current] + 1
				if layers[next] > maxLayer {
					maxLayer = layers[next]
				}
				queue = append(queue, next)
			}
		}
	}

	// Nodes only reachable through cycles go to the last layer
	for _, n := range g.Nodes {
		if _, ok := layers[n.ID]; !ok {
			maxLayer++
			layers[n.ID] = maxLayer
		}
	}

	grouped := make([][]string, maxLayer+1)
	for _, n := range g.Nodes {
		grouped[layers[n.ID]] = append(grouped[layers[n.ID]], n.ID)
	}
	for _, ids := range grouped {
		sort.Strings(ids)
	}
	grouped = orderLayers(grouped, newNeighbours(g))

	maxW, maxH := maxNodeSize(g)
	rowSpacing := maxH + p.Spacing*4
	colSpacing := maxW + p.Spacing

	for layer, ids := range grouped {
		width := float64(len(ids)-1) * colSpacing
		startX := p.Width/2 - width/2
		for i, id := range ids {
			positions[id] = geom.Point{
				X: startX + float64(i)*colSpacing,
				Y: p.Padding + maxH/2 + float64(layer)*rowSpacing,
			}
		}
	}

	return positions
}

// Helper functions

func maxNodeSize(g Graph) (float64, float64) {
	var w, h float64
	for _, n := range g.Nodes {
		w = math.Max(w, n.Width)
		h = math.Max(h, n.Height)
	}
	return w, h
}

func buildAdjacency(g Graph) map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

func orderByConnectivity(g Graph) []string {
	result := make([]string, 0, len(g.Nodes))
	visited := make(map[string]bool, len(g.Nodes))
	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n.ID] = true
	}

	// Undirected adjacency so that callers and callees stay adjacent
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	// BFS from each unvisited node in input order
	for _, n := range g.Nodes {
		if visited[n.ID] {
			continue
		}
		queue := []string{n.ID}
		visited[n.ID] = true

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			result = append(result, current)

			for _, next := range adj[current] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}

	return result
}

// resolveCollisions pushes apart nodes whose boxes overlap. Nodes are
// visited in a deterministic order; later nodes yield to earlier ones.
func resolveCollisions(g Graph, positions Positions, gap float64) Positions {
	if len(g.Nodes) <= 1 {
		return positions
	}

	ids := make([]string, 0, len(g.Nodes))
	size := make(map[string][2]float64, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
		size[n.ID] = [2]float64{n.Width + gap, n.Height + gap}
	}

	// Sort by Y then X
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := positions[ids[i]], positions[ids[j]]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	result := make(Positions, len(positions))
	placed := make([]geom.Rect, 0, len(ids))

	for _, id := range ids {
		pt := positions[id]
		sz := size[id]
		box := geom.RectAround(pt, sz[0], sz[1])

		attempts := 0
		for overlapsAny(box, placed) && attempts < 20 {
			// Try moving right first, then down
			if attempts%2 == 0 {
				pt.X += sz[0]
			} else {
				pt.Y += sz[1]
				pt.X = positions[id].X
			}
			box = geom.RectAround(pt, sz[0], sz[1])
			attempts++
		}

		result[id] = pt
		placed = append(placed, box)
	}

	return result
}

func overlapsAny(r geom.Rect, others []geom.Rect) bool {
	for _, o := range others {
		if geom.RectOverlap(r, o) > 0 {
			return true
		}
	}
	return false
}
