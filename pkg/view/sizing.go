package view

import (
	"fmt"
	"math"

	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/graph"
)

// Sizing selects how node size is derived.
type Sizing int

const (
	SizeFixed Sizing = iota
	SizeByType
	SizeByDegree
)

func (s Sizing) String() string {
	switch s {
	case SizeByType:
		return "byType"
	case SizeByDegree:
		return "byDegree"
	}
	return "fixed"
}

// ParseSizing converts a sizing name.
func ParseSizing(s string) (Sizing, error) {
	switch s {
	case "fixed", "":
		return SizeFixed, nil
	case "byType", "type":
		return SizeByType, nil
	case "byDegree", "degree":
		return SizeByDegree, nil
	}
	return SizeFixed, fmt.Errorf("unknown sizing mode %q", s)
}

// Size bounds, in graph units.
const (
	MinSize   = 20.0
	MaxSize   = 80.0
	BaseSize  = 20.0
	FixedSize = 40.0
)

// DegreeSize returns the size of a node with the given degree:
// clamp(MinSize, MaxSize, BaseSize + 8*log2(degree+1)).
func DegreeSize(degree int) float64 {
	if degree < 0 {
		degree = 0
	}
	return geom.Clamp(BaseSize+8*math.Log2(float64(degree)+1), MinSize, MaxSize)
}

// TypeSize is the type-based heuristic: classes grow with their method
// count, files and endpoints are small.
func TypeSize(n graph.Node) float64 {
	switch n.Type {
	case graph.TypeClass:
		return geom.Clamp(36+1.5*float64(n.Metadata.MethodCount()), 36, MaxSize)
	case graph.TypeInterface:
		return geom.Clamp(32+1.5*float64(n.Metadata.MethodCount()), 32, 60)
	case graph.TypePackage:
		return 50
	case graph.TypeEndpoint, graph.TypeFile:
		return 26
	}
	return FixedSize
}

func sizeFor(n graph.Node, mode Sizing, degrees map[string]int) float64 {
	switch mode {
	case SizeByType:
		return TypeSize(n)
	case SizeByDegree:
		return DegreeSize(degrees[n.ID])
	}
	return FixedSize
}
