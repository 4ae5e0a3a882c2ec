// Package scene is the render engine: it holds the declarative element
// list, node positions, state classes and the camera, and exposes the
// interaction events and query primitives the rest of the application uses.
//
// A Scene is owned by one goroutine (the interactive goroutine). Work done
// elsewhere re-enters through a Dispatcher.
package scene

import "github.com/ha1tch/codemap/pkg/geom"

// Group distinguishes node and edge elements.
type Group int

const (
	Nodes Group = iota
	Edges
)

func (g Group) String() string {
	if g == Edges {
		return "edges"
	}
	return "nodes"
}

// Shape is the drawn outline of a node.
type Shape int

const (
	ShapeEllipse   Shape = iota // Default
	ShapeRoundRect              // Rounded rectangle
	ShapeRect                   // Rectangle
	ShapeDiamond                // Diamond
	ShapeHexagon                // Hexagon
)

func (s Shape) String() string {
	switch s {
	case ShapeRoundRect:
		return "round-rectangle"
	case ShapeRect:
		return "rectangle"
	case ShapeDiamond:
		return "diamond"
	case ShapeHexagon:
		return "hexagon"
	}
	return "ellipse"
}

// Style holds the visual attributes of an element. Colours are "#rrggbb".
type Style struct {
	Color   string  `json:"color,omitempty"`
	Border  string  `json:"border,omitempty"`
	Shape   Shape   `json:"shape"`
	Size    float64 `json:"size,omitempty"` // node diameter or edge width
	Opacity float64 `json:"opacity,omitempty"`
	Label   string  `json:"label,omitempty"`
}

// Data is the domain payload carried by an element, used for search and
// display. For edges Kind is the edge type.
type Data struct {
	Label       string   `json:"label,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	FQN         string   `json:"fqn,omitempty"`
	Package     string   `json:"package,omitempty"`
	Category    string   `json:"category,omitempty"`
	Modifiers   []string `json:"modifiers,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
	Compound    bool     `json:"compound,omitempty"`
}

// Element is a node or an edge decorated with what the engine needs to draw
// it. Elements are values; the engine never hands out pointers into its
// store.
type Element struct {
	Group  Group  `json:"group"`
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Data   Data   `json:"data"`
	Style  Style  `json:"style"`
}

// IsNode reports whether the element is a node.
func (e Element) IsNode() bool { return e.Group == Nodes }

// IsEdge reports whether the element is an edge.
func (e Element) IsEdge() bool { return e.Group == Edges }

// Box returns the node's box at position p.
func (e Element) Box(p geom.Point) geom.Rect {
	size := e.Style.Size
	if size <= 0 {
		size = DefaultNodeSize
	}
	return geom.RectAround(p, size, size)
}

// DefaultNodeSize is used for nodes without an explicit size.
const DefaultNodeSize = 40.0
