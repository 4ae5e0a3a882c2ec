// Raster drawing primitives shared by the PNG exporter and the minimap.

package export

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/codemap/pkg/geom"
)

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Canvas draws onto an RGBA image. Line widths and font size are given in
// output pixels and multiplied by scale, so a canvas can render at a
// supersampled size.
type Canvas struct {
	img   *image.RGBA
	scale float64
	face  font.Face
}

// NewCanvas wraps img. A fontSize of zero disables text.
func NewCanvas(img *image.RGBA, scale, fontSize float64) (*Canvas, error) {
	c := &Canvas{img: img, scale: scale}
	if fontSize <= 0 {
		return c, nil
	}

	fnt, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	// No hinting: output is supersampled instead
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    fontSize * scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	c.face = face
	return c, nil
}

// Image returns the underlying image.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Scale returns the supersampling factor.
func (c *Canvas) Scale() float64 { return c.scale }

// Fill paints the whole canvas.
func (c *Canvas) Fill(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect paints an axis-aligned rectangle.
func (c *Canvas) FillRect(r geom.Rect, col color.Color) {
	rect := image.Rect(int(r.MinX), int(r.MinY), int(math.Ceil(r.MaxX)), int(math.Ceil(r.MaxY)))
	draw.Draw(c.img, rect.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// StrokeRect outlines a rectangle.
func (c *Canvas) StrokeRect(r geom.Rect, width float64, col color.Color) {
	c.Line(r.MinX, r.MinY, r.MaxX, r.MinY, width, col)
	c.Line(r.MaxX, r.MinY, r.MaxX, r.MaxY, width, col)
	c.Line(r.MaxX, r.MaxY, r.MinX, r.MaxY, width, col)
	c.Line(r.MinX, r.MaxY, r.MinX, r.MinY, width, col)
}

// Ellipse draws an ellipse with an optional fill (nil for none).
func (c *Canvas) Ellipse(cx, cy, rx, ry float64, fill, stroke color.Color, width float64) {
	if rx <= 0 || ry <= 0 {
		return
	}
	img := c.img

	// Fill interior first
	if fill != nil {
		for dy := -ry; dy <= ry; dy++ {
			yNorm := dy / ry
			if yNorm*yNorm <= 1 {
				xExtent := rx * math.Sqrt(1-yNorm*yNorm)
				for dx := -xExtent; dx <= xExtent; dx++ {
					img.Set(int(cx+dx), int(cy+dy), fill)
				}
			}
		}
	}
	if stroke == nil {
		return
	}

	thickness := width * c.scale
	step := math.Min(0.05, 1/math.Max(rx, ry))
	for angle := 0.0; angle < 2*math.Pi; angle += step {
		nx, ny := math.Cos(angle), math.Sin(angle)
		x := cx + rx*nx
		y := cy + ry*ny
		for t := -thickness / 2; t <= thickness/2; t += 0.5 {
			img.Set(int(x+nx*t), int(y+ny*t), stroke)
		}
	}
}

// Polygon fills (nil for none) and outlines a closed polygon.
func (c *Canvas) Polygon(pts []geom.Point, fill, stroke color.Color, width float64) {
	if len(pts) < 3 {
		return
	}
	if fill != nil {
		c.fillPolygon(pts, fill)
	}
	if stroke == nil {
		return
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		c.Line(a.X, a.Y, b.X, b.Y, width, stroke)
	}
}

// fillPolygon is an even-odd scanline fill.
func (c *Canvas) fillPolygon(pts []geom.Point, col color.Color) {
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	xs := make([]float64, 0, len(pts))
	for y := math.Floor(minY); y <= maxY; y++ {
		sy := y + 0.5
		xs = xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (a.Y <= sy && b.Y > sy) || (b.Y <= sy && a.Y > sy) {
				xs = append(xs, a.X+(sy-a.Y)/(b.Y-a.Y)*(b.X-a.X))
			}
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := math.Floor(xs[i]); x <= xs[i+1]; x++ {
				c.img.Set(int(x), int(y), col)
			}
		}
	}
}

// Line draws a line of the given width (before scaling).
func (c *Canvas) Line(x1, y1, x2, y2, width float64, col color.Color) {
	img := c.img
	halfThick := width * c.scale / 2

	dx := x2 - x1
	dy := y2 - y1
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		steps = 1
	}

	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(x1+tx), int(y1+ty), col)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), col)
		}
	}
}

// Arrow draws a line with a filled arrowhead at (x2, y2).
func (c *Canvas) Arrow(x1, y1, x2, y2, width float64, col color.Color) {
	c.Line(x1, y1, x2, y2, width, col)

	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		return
	}
	nx := dx / dist
	ny := dy / dist

	arrowLen := 8.0 * c.scale
	arrowWidth := 4.0 * c.scale

	head := []geom.Point{
		{X: x2, Y: y2},
		{X: x2 - nx*arrowLen + ny*arrowWidth, Y: y2 - ny*arrowLen - nx*arrowWidth},
		{X: x2 - nx*arrowLen - ny*arrowWidth, Y: y2 - ny*arrowLen + nx*arrowWidth},
	}
	c.fillPolygon(head, col)
}

// TextCentered draws text centred horizontally on x with its visual middle
// near y. It does nothing when the canvas has no font.
func (c *Canvas) TextCentered(x, y float64, text string, col color.Color) {
	if c.face == nil || text == "" {
		return
	}
	width := font.MeasureString(c.face, text).Ceil()

	// Baseline sits slightly below the centre so capitals look centred
	ascent := c.face.Metrics().Ascent.Ceil()
	baselineY := int(y) + int(float64(ascent)*0.35)

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.Point26_6{X: fixed.I(int(x) - width/2), Y: fixed.I(baselineY)},
	}
	d.DrawString(text)
}

// Downsample scales src into a new w x h image with Catmull-Rom filtering.
func Downsample(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
