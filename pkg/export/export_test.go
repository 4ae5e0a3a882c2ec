package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/scene"
)

func sampleSnapshot() scene.Snapshot {
	return scene.Snapshot{
		Elements: []scene.Element{
			{Group: scene.Nodes, ID: "pkg:app", Data: scene.Data{Label: "app", Kind: "package", Compound: true},
				Style: scene.Style{Color: "#f1f5f9", Border: "#64748b", Shape: scene.ShapeRoundRect, Opacity: 1, Label: "app"}},
			{Group: scene.Nodes, ID: "A", Parent: "pkg:app", Data: scene.Data{Label: "Foo", Kind: "class"},
				Style: scene.Style{Color: "#3b82f6", Border: "#1d4ed8", Shape: scene.ShapeRoundRect, Size: 40, Label: "Foo<T>"}},
			{Group: scene.Nodes, ID: "B", Data: scene.Data{Label: "Greeter", Kind: "endpoint"},
				Style: scene.Style{Color: "#f97316", Border: "#c2410c", Shape: scene.ShapeHexagon, Size: 40, Label: `say "hi"`}},
			{Group: scene.Nodes, ID: "C", Data: scene.Data{Label: "Loop", Kind: "file"},
				Style: scene.Style{Color: "#14b8a6", Border: "#0f766e", Size: 40}},
			{Group: scene.Edges, ID: "A|calls|B", Source: "A", Target: "B", Data: scene.Data{Kind: "calls"},
				Style: scene.Style{Color: "#94a3b8", Size: 1.5}},
			{Group: scene.Edges, ID: "C|calls|C", Source: "C", Target: "C", Data: scene.Data{Kind: "calls"},
				Style: scene.Style{Color: "#94a3b8", Size: 1.5}},
			{Group: scene.Edges, ID: "C|calls|ghost", Source: "C", Target: "ghost", Data: scene.Data{Kind: "calls"}},
		},
		Positions: map[string]geom.Point{
			"A": {X: 0, Y: 0},
			"B": {X: 200, Y: 0},
			"C": {X: 100, Y: 150},
		},
		Classes: map[string][]string{
			"A": {scene.ClassSelected},
			"B": {scene.ClassFaded},
		},
		Styles: scene.DefaultStylesheet(),
	}
}

func near(t *testing.T, want, got color.Color, msg string) {
	t.Helper()
	wr, wg, wb, _ := want.RGBA()
	gr, gg, gb, _ := got.RGBA()
	diff := func(a, b uint32) int {
		d := int(a>>8) - int(b>>8)
		if d < 0 {
			return -d
		}
		return d
	}
	assert.LessOrEqual(t, diff(wr, gr)+diff(wg, gg)+diff(wb, gb), 12, "%s: want %v got %v", msg, want, got)
}

func TestLayoutFrame(t *testing.T) {
	fr := layoutFrame(sampleSnapshot(), 400, 300, 30, 1)

	require.Len(t, fr.boxes, 1)
	require.Len(t, fr.nodes, 3)
	// The dangling edge is dropped
	require.Len(t, fr.edges, 2)
	assert.True(t, fr.edges[1].self)

	// Compound box wraps its child
	a := fr.nodes[0]
	assert.Equal(t, "A", a.el.ID)
	assert.True(t, fr.boxes[0].box.Contains(a.at))

	// Selected node is scaled by the stylesheet
	assert.InDelta(t, 48*fr.transform.Scale/2, a.r, 1e-9)

	// Everything lands inside the padded canvas
	for _, n := range fr.nodes {
		assert.True(t, geom.Rect{MinX: 30, MinY: 30, MaxX: 370, MaxY: 270}.Contains(n.at), n.el.ID)
	}

	// Edges start and end on node boundaries
	e := fr.edges[0]
	assert.InDelta(t, a.r, e.from.Dist(a.at), 1e-9)
}

func TestLayoutFrameCapsScale(t *testing.T) {
	snap := scene.Snapshot{
		Elements:  []scene.Element{{Group: scene.Nodes, ID: "solo", Style: scene.Style{Size: 10}}},
		Positions: map[string]geom.Point{"solo": {X: 5, Y: 5}},
	}
	fr := layoutFrame(snap, 1000, 1000, 0, 1)
	assert.Equal(t, maxScale, fr.transform.Scale)
	assert.Equal(t, geom.Point{X: 500, Y: 500}, fr.nodes[0].at)
}

func TestLayoutFrameSupersampled(t *testing.T) {
	snaps := map[string]scene.Snapshot{
		"sample": sampleSnapshot(),
		"solo": {
			Elements:  []scene.Element{{Group: scene.Nodes, ID: "solo", Style: scene.Style{Size: 10}}},
			Positions: map[string]geom.Point{"solo": {X: 5, Y: 5}},
		},
	}
	for name, snap := range snaps {
		t.Run(name, func(t *testing.T) {
			out := layoutFrame(snap, 400, 300, 30, 1)
			big := layoutFrame(snap, 1600, 1200, 120, 4)
			assert.InDelta(t, out.transform.Scale, big.transform.Scale/4, 1e-9)
			for i := range out.nodes {
				assert.InDelta(t, out.nodes[i].at.X, big.nodes[i].at.X/4, 1e-9)
				assert.InDelta(t, out.nodes[i].at.Y, big.nodes[i].at.Y/4, 1e-9)
			}
		})
	}
}

func TestRenderPixels(t *testing.T) {
	snap := sampleSnapshot()
	img, err := Render(snap, PNGOptions{Width: 400, Height: 300, Labels: false})
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	near(t, color.RGBA{255, 255, 255, 255}, img.At(1, 1), "background")

	fr := layoutFrame(snap, 400, 300, DefaultPadding, 1)
	at := func(id string) color.Color {
		for _, n := range fr.nodes {
			if n.el.ID == id {
				return img.At(int(n.at.X), int(n.at.Y))
			}
		}
		t.Fatalf("node %s not placed", id)
		return nil
	}
	near(t, scene.ParseColor("#3b82f6"), at("A"), "A fill")
	near(t, scene.Fade(scene.ParseColor("#f97316"), 0.15), at("B"), "faded B")
	near(t, scene.ParseColor("#14b8a6"), at("C"), "C fill")
}

func TestPolygonConcaveFill(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 50))
	c, err := NewCanvas(img, 1, 0)
	require.NoError(t, err)
	c.Fill(color.White)

	// A "U": scanlines through the arms cross the edges out of x order.
	u := []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 30}, {X: 20, Y: 30},
		{X: 20, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 40}, {X: 0, Y: 40}}
	black := color.RGBA{0, 0, 0, 255}
	c.Polygon(u, black, nil, 0)

	near(t, black, img.At(5, 10), "left arm")
	near(t, black, img.At(25, 10), "right arm")
	near(t, color.White, img.At(15, 10), "notch")
	near(t, black, img.At(15, 35), "base")
	near(t, color.White, img.At(35, 10), "outside")
}

func TestPNGEncodes(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultPNGOptions()
	opts.Width, opts.Height = 320, 240
	require.NoError(t, PNG(&buf, sampleSnapshot(), opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRenderEmpty(t *testing.T) {
	img, err := Render(scene.Snapshot{}, PNGOptions{Width: 50, Height: 40, Background: "#000000"})
	require.NoError(t, err)
	near(t, color.RGBA{0, 0, 0, 255}, img.At(25, 20), "background")
}

func TestSVG(t *testing.T) {
	out := SVG(sampleSnapshot(), SVGOptions{Width: 400, Height: 300, Title: "Demo & co", Labels: true})

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
	assert.Contains(t, out, `viewBox="0 0 400 300"`)
	assert.Contains(t, out, "Demo &amp; co")
	assert.Contains(t, out, `id="A" class="node class selected"`)
	assert.Contains(t, out, `id="pkg:app" class="package package"`)
	assert.Contains(t, out, "Foo&lt;T&gt;")
	assert.Contains(t, out, "say &#34;hi&#34;")
	assert.Contains(t, out, `<marker id="arrow-94a3b8"`)
	assert.Equal(t, 1, strings.Count(out, "<line "))
	assert.Equal(t, 1, strings.Count(out, "<path "))
	assert.Contains(t, out, `opacity="0.15"`)
	assert.NotContains(t, out, "ghost")
}

func TestSVGWithoutLabels(t *testing.T) {
	out := SVG(sampleSnapshot(), SVGOptions{})
	assert.Contains(t, out, `width="1200"`)
	assert.NotContains(t, out, "Foo&lt;T&gt;")
}

func TestDOT(t *testing.T) {
	out := DOT(sampleSnapshot(), `My "graph"`)

	assert.True(t, strings.HasPrefix(out, "digraph codemap {"))
	assert.Contains(t, out, `label="My \"graph\"";`)
	assert.Contains(t, out, `subgraph "cluster_pkg:app" {`)
	assert.Contains(t, out, `        "A" [label="Foo\<T\>", shape=box`)
	assert.Contains(t, out, `    "B" [label="say \"hi\"", shape=hexagon`)
	assert.Contains(t, out, `pos="200.0,0.0!"`)
	assert.Contains(t, out, `pos="100.0,-150.0!"`)
	assert.Contains(t, out, `"A" -> "B" [label="calls", color="#94a3b8"];`)
	assert.Contains(t, out, `"C" -> "C"`)
}

func TestEscapeDOT(t *testing.T) {
	assert.Equal(t, `a\\b\"c\<d\>`, escapeDOT(`a\b"c<d>`))
}
