// Package minimap draws a small overview of the scene with the current
// viewport outlined, and turns presses on it into camera pans.
package minimap

import (
	"image"
	"sync"

	"github.com/ha1tch/codemap/pkg/export"
	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/scene"
)

// FrameScheduler runs fn before the next display frame.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// ManualFrames queues frame callbacks until Flush is called. The TUI
// flushes it once per tick; tests flush it directly.
type ManualFrames struct {
	mu    sync.Mutex
	queue []func()
}

// RequestFrame queues fn.
func (m *ManualFrames) RequestFrame(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// Pending returns the number of queued callbacks.
func (m *ManualFrames) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Flush runs the callbacks queued so far and returns how many ran.
// Callbacks requested while flushing wait for the next Flush.
func (m *ManualFrames) Flush() int {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// Options sizes and colours the minimap.
type Options struct {
	Width         float64
	Height        float64
	Padding       float64
	DotRadius     float64 // minimum dot radius in minimap pixels
	Background    string
	ViewportColor string
}

// DefaultOptions returns a 200x150 minimap.
func DefaultOptions() Options {
	return Options{
		Width:         200,
		Height:        150,
		Padding:       8,
		DotRadius:     1.5,
		Background:    "#f8fafc",
		ViewportColor: "#ef4444",
	}
}

// Projection maps graph space onto the minimap.
type Projection struct {
	Transform geom.Transform
	Bounds    geom.Rect // graph-space bounds that were fitted
}

// Dot is one node in minimap space.
type Dot struct {
	ID      string
	At      geom.Point
	Radius  float64
	Color   string
	Opacity float64
}

// Frame is the result of one redraw.
type Frame struct {
	Width      float64
	Height     float64
	Dots       []Dot
	Viewport   geom.Rect // in minimap space
	Projection Projection
	Empty      bool
}

// Renderer keeps a Frame in step with the engine. All methods must be
// called on the goroutine that owns the engine.
type Renderer struct {
	engine scene.Engine
	sched  FrameScheduler
	opts   Options

	frame    Frame
	pending  bool
	draws    int
	dragging bool
	closed   bool
	offs     []func()
}

// New draws an initial frame and subscribes to the engine events that
// change what the minimap shows.
func New(engine scene.Engine, sched FrameScheduler, opts Options) *Renderer {
	d := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.DotRadius <= 0 {
		opts.DotRadius = d.DotRadius
	}
	if opts.Background == "" {
		opts.Background = d.Background
	}
	if opts.ViewportColor == "" {
		opts.ViewportColor = d.ViewportColor
	}

	r := &Renderer{engine: engine, sched: sched, opts: opts}
	for _, kind := range []scene.EventKind{scene.EventViewport, scene.EventAdd, scene.EventRemove, scene.EventPosition} {
		r.offs = append(r.offs, engine.On(kind, func(scene.Event) { r.Invalidate() }))
	}
	r.redraw()
	return r
}

// Invalidate requests a redraw on the next frame. Further calls before
// that frame runs are no-ops.
func (r *Renderer) Invalidate() {
	if r.pending || r.closed {
		return
	}
	r.pending = true
	r.sched.RequestFrame(func() {
		r.pending = false
		if r.closed {
			return
		}
		r.redraw()
	})
}

// Frame returns the last drawn frame.
func (r *Renderer) Frame() Frame { return r.frame }

// Draws returns how many frames have been drawn.
func (r *Renderer) Draws() int { return r.draws }

// Options returns the renderer options.
func (r *Renderer) Options() Options { return r.opts }

func (r *Renderer) redraw() {
	r.frame = r.compute()
	r.draws++
}

func (r *Renderer) compute() Frame {
	f := Frame{Width: r.opts.Width, Height: r.opts.Height}

	bounds, ok := r.engine.BoundingBox()
	if !ok {
		f.Empty = true
		f.Projection = Projection{Transform: geom.Transform{Scale: 1}}
		return f
	}
	t := geom.Fit(bounds, r.opts.Width, r.opts.Height, r.opts.Padding)
	f.Projection = Projection{Transform: t, Bounds: bounds}

	for _, el := range r.engine.Elements() {
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		p, ok := r.engine.Position(el.ID)
		if !ok {
			continue
		}
		size := el.Style.Size
		if size <= 0 {
			size = scene.DefaultNodeSize
		}
		radius := size * t.Scale / 2
		if radius < r.opts.DotRadius {
			radius = r.opts.DotRadius
		}
		opacity := 1.0
		for _, c := range r.engine.Classes(el.ID) {
			if c == scene.ClassFaded || c == scene.ClassSearchDimmed {
				opacity = 0.3
			}
		}
		f.Dots = append(f.Dots, Dot{ID: el.ID, At: t.Apply(p), Radius: radius, Color: el.Style.Color, Opacity: opacity})
	}
	f.Viewport = t.ApplyRect(r.engine.Viewport())
	return f
}

// Contains reports whether (x, y) in minimap space is on the minimap.
func (r *Renderer) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < r.opts.Width && y < r.opts.Height
}

// Press starts a drag and pans the camera so the graph point under
// (x, y) becomes the viewport centre. Presses off the minimap or on an
// empty one are ignored.
func (r *Renderer) Press(x, y float64) bool {
	if !r.Contains(x, y) || r.frame.Empty {
		return false
	}
	r.dragging = true
	r.panTo(x, y)
	return true
}

// Drag pans while a drag is in progress, including when the pointer has
// left the minimap.
func (r *Renderer) Drag(x, y float64) bool {
	if !r.dragging || r.frame.Empty {
		return false
	}
	r.panTo(x, y)
	return true
}

// Release ends a drag. It is meant to be wired to a global pointer
// release so the drag cannot stick.
func (r *Renderer) Release() { r.dragging = false }

// Dragging reports whether a drag is in progress.
func (r *Renderer) Dragging() bool { return r.dragging }

func (r *Renderer) panTo(x, y float64) {
	target := r.frame.Projection.Transform.Invert(geom.Point{X: x, Y: y})
	r.engine.PanTo(target, 0)
}

// Rasterize draws the current frame at the given supersampling factor.
func (r *Renderer) Rasterize(supersample int) (*image.RGBA, error) {
	return Rasterize(r.frame, r.opts, supersample)
}

// Close unsubscribes from the engine. A redraw already requested becomes
// a no-op.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.dragging = false
	for _, off := range r.offs {
		off()
	}
	r.offs = nil
}

// Rasterize draws f into an image of the frame's size.
func Rasterize(f Frame, opts Options, supersample int) (*image.RGBA, error) {
	if supersample < 1 {
		supersample = 1
	}
	w, h := int(f.Width), int(f.Height)
	ss := float64(supersample)

	big := image.NewRGBA(image.Rect(0, 0, w*supersample, h*supersample))
	cv, err := export.NewCanvas(big, ss, 0)
	if err != nil {
		return nil, err
	}
	cv.Fill(scene.ParseColor(opts.Background))

	for _, d := range f.Dots {
		col := scene.Fade(scene.ParseColor(d.Color), d.Opacity)
		cv.Ellipse(d.At.X*ss, d.At.Y*ss, d.Radius*ss, d.Radius*ss, col, nil, 0)
	}
	if !f.Empty {
		vp := geom.Rect{MinX: f.Viewport.MinX * ss, MinY: f.Viewport.MinY * ss, MaxX: f.Viewport.MaxX * ss, MaxY: f.Viewport.MaxY * ss}
		cv.StrokeRect(vp, 1, scene.ParseColor(opts.ViewportColor))
	}

	if supersample == 1 {
		return big, nil
	}
	return export.Downsample(big, w, h), nil
}
