// Package export renders a scene snapshot to PNG, SVG and Graphviz DOT.
package export

import (
	"math"

	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/scene"
)

const (
	// DefaultPadding is the margin around the drawing in output pixels.
	DefaultPadding = 30.0
	// DefaultBackground is the canvas colour.
	DefaultBackground = "#ffffff"

	compoundPadding = 10.0
	maxScale        = 2.0
	defaultEdgeSize = 1.5
	labelColor      = "#1f2937"
)

type placedNode struct {
	el    scene.Element
	style scene.Style
	at    geom.Point
	r     float64
}

type placedEdge struct {
	el       scene.Element
	style    scene.Style
	from, to geom.Point
	self     bool
}

type placedBox struct {
	el    scene.Element
	style scene.Style
	box   geom.Rect
}

// frame is a snapshot mapped into output space.
type frame struct {
	transform geom.Transform
	boxes     []placedBox
	nodes     []placedNode
	edges     []placedEdge
}

func nodeSize(st scene.Style) float64 {
	if st.Size > 0 {
		return st.Size
	}
	return scene.DefaultNodeSize
}

func labelOf(el scene.Element, st scene.Style) string {
	if st.Label != "" {
		return st.Label
	}
	if el.Data.Label != "" {
		return el.Data.Label
	}
	return el.ID
}

// layoutFrame fits every placed node and package box into a w x h area.
// Scale is capped at maxScale*zoom so that a tiny graph is not blown up;
// zoom is the pixel density of the target (the supersampling factor for
// rasters, 1 otherwise).
func layoutFrame(snap scene.Snapshot, w, h, padding, zoom float64) frame {
	var fr frame

	boxes := make(map[string]geom.Rect)
	children := make(map[string][]string)
	var rects []geom.Rect
	for _, el := range snap.Elements {
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		p, ok := snap.Positions[el.ID]
		if !ok {
			continue
		}
		size := nodeSize(snap.StyleOf(el))
		b := geom.RectAround(p, size, size)
		boxes[el.ID] = b
		rects = append(rects, b)
		if el.Parent != "" {
			children[el.Parent] = append(children[el.Parent], el.ID)
		}
	}

	compounds := make(map[string]geom.Rect)
	for _, el := range snap.Elements {
		if !el.Data.Compound {
			continue
		}
		var kids []geom.Rect
		for _, id := range children[el.ID] {
			kids = append(kids, boxes[id])
		}
		if b, ok := geom.Bounds(kids); ok {
			b = b.Expand(compoundPadding)
			compounds[el.ID] = b
			rects = append(rects, b)
		}
	}

	bounds, ok := geom.Bounds(rects)
	if !ok {
		fr.transform = geom.Transform{Scale: 1, Offset: geom.Point{X: w / 2, Y: h / 2}}
		return fr
	}
	t := geom.Fit(bounds, w, h, padding)
	if limit := maxScale * zoom; t.Scale > limit {
		c := bounds.Center()
		t = geom.Transform{Scale: limit, Offset: geom.Point{X: w/2 - c.X*limit, Y: h/2 - c.Y*limit}}
	}
	fr.transform = t

	for _, el := range snap.Elements {
		if b, ok := compounds[el.ID]; ok {
			fr.boxes = append(fr.boxes, placedBox{el: el, style: snap.StyleOf(el), box: t.ApplyRect(b)})
		}
	}

	placed := make(map[string]placedNode)
	for _, el := range snap.Elements {
		if _, ok := boxes[el.ID]; !ok {
			continue
		}
		st := snap.StyleOf(el)
		n := placedNode{
			el:    el,
			style: st,
			at:    t.Apply(snap.Positions[el.ID]),
			r:     nodeSize(st) * t.Scale / 2,
		}
		placed[el.ID] = n
		fr.nodes = append(fr.nodes, n)
	}

	for _, el := range snap.Elements {
		if !el.IsEdge() {
			continue
		}
		src, ok1 := placed[el.Source]
		dst, ok2 := placed[el.Target]
		if !ok1 || !ok2 {
			continue
		}
		st := snap.StyleOf(el)
		if st.Size <= 0 {
			st.Size = defaultEdgeSize
		}
		e := placedEdge{el: el, style: st, self: el.Source == el.Target}
		if e.self {
			e.from, e.to = src.at, src.at
		} else {
			e.from, e.to = trim(src.at, dst.at, src.r, dst.r)
		}
		fr.edges = append(fr.edges, e)
	}
	return fr
}

// trim shortens the segment a-b so it starts and ends on the node
// boundaries, approximated as circles.
func trim(a, b geom.Point, ra, rb float64) (geom.Point, geom.Point) {
	d := a.Dist(b)
	if d <= ra+rb {
		return a, b
	}
	ux, uy := (b.X-a.X)/d, (b.Y-a.Y)/d
	return geom.Point{X: a.X + ux*ra, Y: a.Y + uy*ra},
		geom.Point{X: b.X - ux*rb, Y: b.Y - uy*rb}
}

// outline returns the polygon for a shape centred on c with half-size r, or
// nil for ellipses.
func outline(shape scene.Shape, c geom.Point, r float64) []geom.Point {
	switch shape {
	case scene.ShapeRect, scene.ShapeRoundRect:
		return []geom.Point{
			{X: c.X - r, Y: c.Y - r*0.7}, {X: c.X + r, Y: c.Y - r*0.7},
			{X: c.X + r, Y: c.Y + r*0.7}, {X: c.X - r, Y: c.Y + r*0.7},
		}
	case scene.ShapeDiamond:
		return []geom.Point{
			{X: c.X, Y: c.Y - r}, {X: c.X + r, Y: c.Y},
			{X: c.X, Y: c.Y + r}, {X: c.X - r, Y: c.Y},
		}
	case scene.ShapeHexagon:
		pts := make([]geom.Point, 6)
		for i := range pts {
			a := math.Pi / 3 * float64(i)
			pts[i] = geom.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
		}
		return pts
	}
	return nil
}
