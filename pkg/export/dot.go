package export

import (
	"fmt"
	"strings"

	"github.com/ha1tch/codemap/pkg/scene"
)

var dotShapes = map[scene.Shape]string{
	scene.ShapeEllipse:   "ellipse",
	scene.ShapeRoundRect: "box",
	scene.ShapeRect:      "box",
	scene.ShapeDiamond:   "diamond",
	scene.ShapeHexagon:   "hexagon",
}

// DOT converts a snapshot to Graphviz DOT. Package compounds become
// clusters and placed nodes carry a pinned pos attribute (y flipped) so
// "neato -n" reproduces the on-screen layout.
func DOT(snap scene.Snapshot, title string) string {
	var sb strings.Builder

	sb.WriteString("digraph codemap {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [fontname=\"Helvetica\", fontsize=11, style=filled];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	members := make(map[string][]scene.Element)
	var loose []scene.Element
	for _, el := range snap.Elements {
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		if el.Parent != "" {
			members[el.Parent] = append(members[el.Parent], el)
		} else {
			loose = append(loose, el)
		}
	}

	for _, el := range snap.Elements {
		if !el.Data.Compound {
			continue
		}
		st := snap.StyleOf(el)
		sb.WriteString(fmt.Sprintf("    subgraph \"cluster_%s\" {\n", escapeDOT(el.ID)))
		sb.WriteString(fmt.Sprintf("        label=\"%s\";\n", escapeDOT(labelOf(el, st))))
		sb.WriteString(fmt.Sprintf("        style=\"rounded,filled\"; fillcolor=\"%s\"; color=\"%s\";\n", escapeDOT(st.Color), escapeDOT(st.Border)))
		for _, n := range members[el.ID] {
			writeDOTNode(&sb, snap, n, "        ")
		}
		sb.WriteString("    }\n")
	}
	for _, n := range loose {
		writeDOTNode(&sb, snap, n, "    ")
	}
	sb.WriteString("\n")

	for _, el := range snap.Elements {
		if !el.IsEdge() {
			continue
		}
		st := snap.StyleOf(el)
		sb.WriteString(fmt.Sprintf("    \"%s\" -> \"%s\" [label=\"%s\", color=\"%s\"];\n",
			escapeDOT(el.Source), escapeDOT(el.Target), escapeDOT(el.Data.Kind), escapeDOT(st.Color)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func writeDOTNode(sb *strings.Builder, snap scene.Snapshot, el scene.Element, indent string) {
	st := snap.StyleOf(el)
	attrs := []string{
		fmt.Sprintf("label=\"%s\"", escapeDOT(labelOf(el, st))),
		"shape=" + dotShapes[st.Shape],
		fmt.Sprintf("fillcolor=\"%s\"", escapeDOT(st.Color)),
		fmt.Sprintf("color=\"%s\"", escapeDOT(st.Border)),
	}
	if st.Shape == scene.ShapeRoundRect {
		attrs = append(attrs, "style=\"rounded,filled\"")
	}
	if p, ok := snap.Positions[el.ID]; ok {
		attrs = append(attrs, fmt.Sprintf("pos=\"%.1f,%.1f!\"", p.X, 0-p.Y))
	}
	sb.WriteString(fmt.Sprintf("%s\"%s\" [%s];\n", indent, escapeDOT(el.ID), strings.Join(attrs, ", ")))
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "<", "\\<")
	s = strings.ReplaceAll(s, ">", "\\>")
	return s
}
