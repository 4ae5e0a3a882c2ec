package export

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/scene"
)

// SVGOptions controls vector export.
type SVGOptions struct {
	Width      int
	Height     int
	Padding    float64
	Background string
	FontSize   float64
	Title      string
	Labels     bool
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      1200,
		Height:     900,
		Padding:    DefaultPadding,
		Background: DefaultBackground,
		FontSize:   12,
		Labels:     true,
	}
}

// SVG renders snap as a standalone SVG document. Every element carries its
// id and state classes so the output can be styled further.
func SVG(snap scene.Snapshot, opts SVGOptions) string {
	d := DefaultSVGOptions()
	if opts.Width <= 0 {
		opts.Width = d.Width
	}
	if opts.Height <= 0 {
		opts.Height = d.Height
	}
	if opts.Padding <= 0 {
		opts.Padding = d.Padding
	}
	if opts.Background == "" {
		opts.Background = d.Background
	}
	if opts.FontSize <= 0 {
		opts.FontSize = d.FontSize
	}

	top := 0.0
	if opts.Title != "" {
		top = opts.FontSize * 2
	}
	fr := layoutFrame(snap, float64(opts.Width), float64(opts.Height)-top, opts.Padding, 1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	// One arrowhead per edge colour
	colours := make(map[string]bool)
	for _, e := range fr.edges {
		colours[e.style.Color] = true
	}
	keys := make([]string, 0, len(colours))
	for c := range colours {
		keys = append(keys, c)
	}
	sort.Strings(keys)
	for _, c := range keys {
		fmt.Fprintf(&sb, `  <marker id="%s" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">
    <polygon points="0 0, 10 3.5, 0 7" fill="%s"/>
  </marker>
`, markerID(c), attr(c))
	}
	fmt.Fprintf(&sb, `</defs>
<style>
  text { font-family: Helvetica, Arial, sans-serif; font-size: %.0fpx; fill: %s; text-anchor: middle; }
  .title { font-size: %.0fpx; font-weight: bold; }
</style>
<rect width="%d" height="%d" fill="%s"/>
`, opts.FontSize, labelColor, opts.FontSize+4, opts.Width, opts.Height, attr(opts.Background))

	if opts.Title != "" {
		fmt.Fprintf(&sb, "<text x=\"%d\" y=\"%.1f\" class=\"title\">%s</text>\n", opts.Width/2, opts.FontSize*1.5, html.EscapeString(opts.Title))
	}
	fmt.Fprintf(&sb, "<g transform=\"translate(0,%.1f)\">\n", top)

	for _, b := range fr.boxes {
		fmt.Fprintf(&sb, `<g id="%s" class="%s" opacity="%.2f">
  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s"/>
`, attr(b.el.ID), classAttr(snap, b.el, "package"), b.style.Opacity,
			b.box.MinX, b.box.MinY, b.box.Width(), b.box.Height(), attr(b.style.Color), attr(b.style.Border))
		if opts.Labels {
			fmt.Fprintf(&sb, "  <text x=\"%.1f\" y=\"%.1f\">%s</text>\n", b.box.Center().X, b.box.MinY+opts.FontSize, html.EscapeString(labelOf(b.el, b.style)))
		}
		sb.WriteString("</g>\n")
	}

	for _, e := range fr.edges {
		fmt.Fprintf(&sb, `<g id="%s" class="%s" opacity="%.2f">`, attr(e.el.ID), classAttr(snap, e.el, "edge"), e.style.Opacity)
		if e.self {
			r := nodeRadius(fr, e.el.Source)
			fmt.Fprintf(&sb, `<path d="M%.1f,%.1f C%.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="none" stroke="%s" stroke-width="%.1f" marker-end="url(#%s)"/>`,
				e.from.X-r*0.5, e.from.Y-r*0.8,
				e.from.X-r*1.2, e.from.Y-r*2.4,
				e.from.X+r*1.2, e.from.Y-r*2.4,
				e.from.X+r*0.5, e.from.Y-r*0.8,
				attr(e.style.Color), e.style.Size, markerID(e.style.Color))
		} else {
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f" marker-end="url(#%s)"/>`,
				e.from.X, e.from.Y, e.to.X, e.to.Y, attr(e.style.Color), e.style.Size, markerID(e.style.Color))
		}
		sb.WriteString("</g>\n")
	}

	for _, n := range fr.nodes {
		fmt.Fprintf(&sb, `<g id="%s" class="%s" opacity="%.2f">
  `, attr(n.el.ID), classAttr(snap, n.el, "node"), n.style.Opacity)
		paint := fmt.Sprintf(`fill="%s" stroke="%s" stroke-width="2"`, attr(n.style.Color), attr(n.style.Border))
		switch {
		case n.style.Shape == scene.ShapeRoundRect:
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" %s/>`,
				n.at.X-n.r, n.at.Y-n.r*0.7, 2*n.r, 1.4*n.r, n.r*0.25, paint)
		case n.style.Shape == scene.ShapeEllipse:
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" %s/>`, n.at.X, n.at.Y, n.r, paint)
		default:
			fmt.Fprintf(&sb, `<polygon points="%s" %s/>`, points(outline(n.style.Shape, n.at, n.r)), paint)
		}
		if opts.Labels {
			fmt.Fprintf(&sb, "\n  <text x=\"%.1f\" y=\"%.1f\">%s</text>", n.at.X, n.at.Y+n.r+opts.FontSize, html.EscapeString(labelOf(n.el, n.style)))
		}
		sb.WriteString("\n</g>\n")
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

func points(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func markerID(colour string) string {
	return "arrow-" + strings.TrimPrefix(strings.ToLower(colour), "#")
}

func attr(s string) string {
	return html.EscapeString(s)
}

// classAttr joins the element's kind with its state classes.
func classAttr(snap scene.Snapshot, el scene.Element, group string) string {
	parts := []string{group}
	if el.Data.Kind != "" {
		parts = append(parts, el.Data.Kind)
	}
	parts = append(parts, snap.Classes[el.ID]...)
	return attr(strings.Join(parts, " "))
}
