package export

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/ha1tch/codemap/pkg/scene"
)

// PNGOptions controls raster export.
type PNGOptions struct {
	Width       int
	Height      int
	Padding     float64
	Background  string
	Supersample int     // render at this multiple, then downsample
	FontSize    float64 // label size in output pixels
	Labels      bool
}

// DefaultPNGOptions returns the options used by the CLI.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Width:       1600,
		Height:      1200,
		Padding:     DefaultPadding,
		Background:  DefaultBackground,
		Supersample: 4,
		FontSize:    12,
		Labels:      true,
	}
}

func (o PNGOptions) withDefaults() PNGOptions {
	d := DefaultPNGOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Padding <= 0 {
		o.Padding = d.Padding
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	if o.Supersample <= 0 {
		o.Supersample = d.Supersample
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	return o
}

// PNG renders snap and writes it as a PNG image.
func PNG(w io.Writer, snap scene.Snapshot, opts PNGOptions) error {
	img, err := Render(snap, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Render rasterizes snap at Supersample times the requested size and
// downsamples the result.
func Render(snap scene.Snapshot, opts PNGOptions) (*image.RGBA, error) {
	opts = opts.withDefaults()
	ss := opts.Supersample
	scale := float64(ss)

	big := image.NewRGBA(image.Rect(0, 0, opts.Width*ss, opts.Height*ss))
	fontSize := opts.FontSize
	if !opts.Labels {
		fontSize = 0
	}
	cv, err := NewCanvas(big, scale, fontSize)
	if err != nil {
		return nil, err
	}
	cv.Fill(scene.ParseColor(opts.Background))

	fr := layoutFrame(snap, float64(opts.Width*ss), float64(opts.Height*ss), opts.Padding*scale, scale)
	text := scene.ParseColor(labelColor)

	for _, b := range fr.boxes {
		cv.FillRect(b.box, scene.Fade(scene.ParseColor(b.style.Color), b.style.Opacity))
		cv.StrokeRect(b.box, 1, scene.Fade(scene.ParseColor(b.style.Border), b.style.Opacity))
		cv.TextCentered(b.box.Center().X, b.box.MinY+fontSize*scale, labelOf(b.el, b.style), scene.Fade(text, b.style.Opacity))
	}

	for _, e := range fr.edges {
		col := scene.Fade(scene.ParseColor(e.style.Color), e.style.Opacity)
		if e.self {
			r := nodeRadius(fr, e.el.Source)
			cv.Ellipse(e.from.X, e.from.Y-r, r*0.6, r*0.6, nil, col, e.style.Size)
			continue
		}
		cv.Arrow(e.from.X, e.from.Y, e.to.X, e.to.Y, e.style.Size, col)
	}

	for _, n := range fr.nodes {
		fill := scene.Fade(scene.ParseColor(n.style.Color), n.style.Opacity)
		border := scene.Fade(scene.ParseColor(n.style.Border), n.style.Opacity)
		if pts := outline(n.style.Shape, n.at, n.r); pts != nil {
			cv.Polygon(pts, fill, border, 2)
		} else {
			cv.Ellipse(n.at.X, n.at.Y, n.r, n.r, fill, border, 2)
		}
		cv.TextCentered(n.at.X, n.at.Y+n.r+fontSize*scale*0.8, labelOf(n.el, n.style), scene.Fade(text, n.style.Opacity))
	}

	return Downsample(big, opts.Width, opts.Height), nil
}

func nodeRadius(fr frame, id string) float64 {
	for _, n := range fr.nodes {
		if n.el.ID == id {
			return n.r
		}
	}
	return 0
}
