package view

import (
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/scene"
)

// nodeLook is the fixed colour and shape of a node type.
type nodeLook struct {
	color  string
	border string
	shape  scene.Shape
}

var nodePalette = map[graph.NodeType]nodeLook{
	graph.TypeClass:     {color: "#3b82f6", border: "#1d4ed8", shape: scene.ShapeRoundRect},
	graph.TypeInterface: {color: "#a855f7", border: "#7e22ce", shape: scene.ShapeDiamond},
	graph.TypeEndpoint:  {color: "#f97316", border: "#c2410c", shape: scene.ShapeHexagon},
	graph.TypePackage:   {color: "#64748b", border: "#334155", shape: scene.ShapeRect},
	graph.TypeFile:      {color: "#14b8a6", border: "#0f766e", shape: scene.ShapeEllipse},
}

var fallbackLook = nodeLook{color: "#94a3b8", border: "#475569", shape: scene.ShapeEllipse}

var edgeColors = map[graph.EdgeType]string{
	graph.EdgeExtends:    "#1d4ed8",
	graph.EdgeImplements: "#7e22ce",
	graph.EdgeImports:    "#94a3b8",
	graph.EdgeCalls:      "#f97316",
	graph.EdgeContains:   "#cbd5e1",
}

// compoundColor fills the synthetic package parents.
const compoundColor = "#f1f5f9"

func lookFor(t graph.NodeType) nodeLook {
	if l, ok := nodePalette[t]; ok {
		return l
	}
	return fallbackLook
}

// NodeColor returns the palette colour of a node type.
func NodeColor(t graph.NodeType) string { return lookFor(t).color }

// EdgeColor returns the palette colour of an edge type.
func EdgeColor(t graph.EdgeType) string {
	if c, ok := edgeColors[t]; ok {
		return c
	}
	return fallbackLook.border
}
