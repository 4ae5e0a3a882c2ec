package scene

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/geom"
)

// Zoom limits.
const (
	MinZoom = 0.05
	MaxZoom = 4.0
)

// Scene is the in-memory Engine implementation. It is not safe for
// concurrent use.
type Scene struct {
	elements []Element
	index    map[string]int
	children map[string][]string // compound parent -> child node ids

	positions map[string]geom.Point
	classes   map[string][]string

	camera        Camera
	width, height float64

	camAnim *cameraAnimation
	posAnim *positionAnimation

	handlers    map[EventKind][]handler
	nextHandler int

	styles Stylesheet
	now    func() time.Time
}

type handler struct {
	id int
	fn func(Event)
}

type cameraAnimation struct {
	start    time.Time
	duration time.Duration
	from, to Camera
}

type positionAnimation struct {
	start    time.Time
	duration time.Duration
	from, to map[string]geom.Point
	order    []string
}

// Option configures a Scene.
type Option func(*Scene)

// WithSize sets the canvas size in pixels.
func WithSize(w, h float64) Option {
	return func(s *Scene) { s.width, s.height = w, h }
}

// WithStylesheet replaces the default stylesheet.
func WithStylesheet(st Stylesheet) Option {
	return func(s *Scene) { s.styles = st }
}

// WithClock sets the time source used to start animations.
func WithClock(now func() time.Time) Option {
	return func(s *Scene) { s.now = now }
}

// New creates an empty scene.
func New(opts ...Option) *Scene {
	s := &Scene{
		index:     make(map[string]int),
		children:  make(map[string][]string),
		positions: make(map[string]geom.Point),
		classes:   make(map[string][]string),
		camera:    Camera{Zoom: 1},
		width:     800,
		height:    600,
		handlers:  make(map[EventKind][]handler),
		styles:    DefaultStylesheet(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Elements

// SetElements replaces the element list. Nodes that survive keep their
// position and classes; new nodes are placed at the origin until a layout
// runs. Remove and add events are emitted for the difference.
func (s *Scene) SetElements(els []Element) {
	old := s.index

	s.elements = make([]Element, len(els))
	copy(s.elements, els)
	s.index = make(map[string]int, len(els))
	s.children = make(map[string][]string)
	for i, el := range s.elements {
		s.index[el.ID] = i
	}
	for _, el := range s.elements {
		if el.IsNode() && el.Parent != "" {
			s.children[el.Parent] = append(s.children[el.Parent], el.ID)
		}
	}

	var removed, added []string
	for id := range old {
		if _, ok := s.index[id]; !ok {
			removed = append(removed, id)
			delete(s.positions, id)
			delete(s.classes, id)
		}
	}
	sort.Strings(removed)
	for _, el := range s.elements {
		if _, ok := old[el.ID]; !ok {
			added = append(added, el.ID)
		}
		if el.IsNode() && !el.Data.Compound {
			if _, ok := s.positions[el.ID]; !ok {
				s.positions[el.ID] = geom.Point{}
			}
		}
	}

	s.posAnim = nil
	if len(removed) > 0 {
		s.emit(Event{Kind: EventRemove, IDs: removed})
	}
	if len(added) > 0 {
		s.emit(Event{Kind: EventAdd, IDs: added})
	}
}

// Elements returns a copy of the element list.
func (s *Scene) Elements() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Element looks up an element by id.
func (s *Scene) Element(id string) (Element, bool) {
	i, ok := s.index[id]
	if !ok {
		return Element{}, false
	}
	return s.elements[i], true
}

// HasNode reports whether id names a node in the scene.
func (s *Scene) HasNode(id string) bool {
	i, ok := s.index[id]
	return ok && s.elements[i].IsNode()
}

// NodeIDs returns node ids in element order.
func (s *Scene) NodeIDs() []string {
	var ids []string
	for _, el := range s.elements {
		if el.IsNode() {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// Positions

// Position returns the position of a node. A compound node sits at the
// centre of its children's bounding box.
func (s *Scene) Position(id string) (geom.Point, bool) {
	if kids, ok := s.children[id]; ok && len(kids) > 0 {
		b, ok := s.boundsOf(kids)
		if !ok {
			return geom.Point{}, false
		}
		return b.Center(), true
	}
	p, ok := s.positions[id]
	return p, ok
}

// Positions returns a copy of every node position, compound nodes included.
func (s *Scene) Positions() map[string]geom.Point {
	out := make(map[string]geom.Point, len(s.positions)+len(s.children))
	for id, p := range s.positions {
		out[id] = p
	}
	for id := range s.children {
		if p, ok := s.Position(id); ok {
			out[id] = p
		}
	}
	return out
}

// SetPositions applies positions as one batch and emits a single position
// event. Unknown ids and compound nodes are ignored. A running position
// animation is cancelled.
func (s *Scene) SetPositions(pos map[string]geom.Point) {
	s.posAnim = nil

	var changed []string
	for _, el := range s.elements {
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		if p, ok := pos[el.ID]; ok {
			s.positions[el.ID] = p
			changed = append(changed, el.ID)
		}
	}
	if len(changed) > 0 {
		s.emit(Event{Kind: EventPosition, IDs: changed})
	}
}

// LayoutInput builds the self-contained layout graph for the current
// elements.
func (s *Scene) LayoutInput() autolayout.Graph {
	return LayoutGraph(s.elements, s.positions)
}

// LayoutGraph converts elements and their current positions into a layout
// input. Compound nodes are not placed; their children carry Parent. Edges
// whose endpoints are not both placed are dropped.
func LayoutGraph(els []Element, pos map[string]geom.Point) autolayout.Graph {
	var g autolayout.Graph
	placed := make(map[string]bool)
	for _, el := range els {
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		size := el.Style.Size
		if size <= 0 {
			size = DefaultNodeSize
		}
		p := pos[el.ID]
		g.Nodes = append(g.Nodes, autolayout.Node{
			ID: el.ID, Width: size, Height: size,
			X: p.X, Y: p.Y, Parent: el.Parent,
		})
		placed[el.ID] = true
	}
	for _, el := range els {
		if el.IsEdge() && placed[el.Source] && placed[el.Target] {
			g.Edges = append(g.Edges, autolayout.Edge{Source: el.Source, Target: el.Target})
		}
	}
	return g
}

// RunLayout runs the named algorithm synchronously and applies the result,
// animated when p.Animate is set.
func (s *Scene) RunLayout(p autolayout.Params) error {
	g := s.LayoutInput()
	pos, err := autolayout.Run(context.Background(), g, p)
	if err != nil {
		return err
	}
	s.Apply(pos, p)
	return nil
}

// Apply installs a layout result. With p.Animate and a positive duration the
// nodes move there over time (see Tick); otherwise they jump. With p.Fit the
// camera is fitted to the final positions.
func (s *Scene) Apply(pos autolayout.Positions, p autolayout.Params) {
	d := time.Duration(p.AnimationDuration) * time.Millisecond
	if !p.Animate || d <= 0 {
		s.SetPositions(pos)
		if p.Fit {
			s.Fit(p.Padding)
		}
		return
	}

	anim := &positionAnimation{
		start:    s.now(),
		duration: d,
		from:     make(map[string]geom.Point),
		to:       make(map[string]geom.Point),
	}
	for _, el := range s.elements {
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		if target, ok := pos[el.ID]; ok {
			anim.from[el.ID] = s.positions[el.ID]
			anim.to[el.ID] = target
			anim.order = append(anim.order, el.ID)
		}
	}
	s.posAnim = anim

	if p.Fit {
		if cam, ok := s.fitCamera(anim.to, p.Padding); ok {
			s.animateCamera(cam, d)
		}
	}
}

// Classes

// AddClass adds a state class to an element. Unknown ids are ignored.
func (s *Scene) AddClass(id, class string) {
	if _, ok := s.index[id]; !ok {
		return
	}
	if hasString(s.classes[id], class) {
		return
	}
	s.classes[id] = append(s.classes[id], class)
}

// RemoveClasses removes the given classes from every element.
func (s *Scene) RemoveClasses(classes ...string) {
	for id, list := range s.classes {
		kept := list[:0]
		for _, c := range list {
			if !hasString(classes, c) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(s.classes, id)
		} else {
			s.classes[id] = kept
		}
	}
}

// HasClass reports whether the element carries class.
func (s *Scene) HasClass(id, class string) bool {
	return hasString(s.classes[id], class)
}

// Classes returns the classes of an element.
func (s *Scene) Classes(id string) []string {
	return append([]string(nil), s.classes[id]...)
}

// ElementsWithClass returns the ids carrying class, in element order.
func (s *Scene) ElementsWithClass(class string) []string {
	var ids []string
	for _, el := range s.elements {
		if s.HasClass(el.ID, class) {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// ResolvedStyle returns the element's style after state classes apply.
func (s *Scene) ResolvedStyle(id string) (Style, bool) {
	el, ok := s.Element(id)
	if !ok {
		return Style{}, false
	}
	return s.styles.Resolve(el.Style, s.classes[id]), true
}

// Traversal

// Outgoers returns the targets and edge ids of edges leaving id.
func (s *Scene) Outgoers(id string) (nodes, edges []string) {
	return s.walk(id, true)
}

// Incomers returns the sources and edge ids of edges entering id.
func (s *Scene) Incomers(id string) (nodes, edges []string) {
	return s.walk(id, false)
}

func (s *Scene) walk(id string, out bool) (nodes, edges []string) {
	seen := make(map[string]bool)
	for _, el := range s.elements {
		if !el.IsEdge() {
			continue
		}
		var other string
		switch {
		case out && el.Source == id:
			other = el.Target
		case !out && el.Target == id:
			other = el.Source
		default:
			continue
		}
		edges = append(edges, el.ID)
		if !seen[other] {
			seen[other] = true
			nodes = append(nodes, other)
		}
	}
	return nodes, edges
}

// ConnectedEdges returns the ids of edges touching id.
func (s *Scene) ConnectedEdges(id string) []string {
	var edges []string
	for _, el := range s.elements {
		if el.IsEdge() && (el.Source == id || el.Target == id) {
			edges = append(edges, el.ID)
		}
	}
	return edges
}

// Camera

// Size returns the canvas size in pixels.
func (s *Scene) Size() (w, h float64) { return s.width, s.height }

// Resize changes the canvas size and emits a viewport event.
func (s *Scene) Resize(w, h float64) {
	if w == s.width && h == s.height {
		return
	}
	s.width, s.height = w, h
	s.emit(Event{Kind: EventViewport})
}

// Camera returns the current camera.
func (s *Scene) Camera() Camera { return s.camera }

// Viewport returns the visible area in graph coordinates.
func (s *Scene) Viewport() geom.Rect {
	z := s.camera.Zoom
	if z <= 0 {
		z = 1
	}
	return geom.RectAround(s.camera.Pan, s.width/z, s.height/z)
}

// BoundingBox returns the bounding box of all placed nodes.
func (s *Scene) BoundingBox() (geom.Rect, bool) {
	return s.boundsOf(s.leafNodes())
}

func (s *Scene) leafNodes() []string {
	var ids []string
	for _, el := range s.elements {
		if el.IsNode() && !el.Data.Compound {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

func (s *Scene) boundsOf(ids []string) (geom.Rect, bool) {
	rects := make([]geom.Rect, 0, len(ids))
	for _, id := range ids {
		p, ok := s.positions[id]
		if !ok {
			continue
		}
		el := s.elements[s.index[id]]
		rects = append(rects, el.Box(p))
	}
	return geom.Bounds(rects)
}

// Fit zooms and pans so every node is visible with padding pixels spare.
// Any camera animation is cancelled.
func (s *Scene) Fit(padding float64) {
	rects := make([]geom.Rect, 0, len(s.elements))
	for _, id := range s.leafNodes() {
		rects = append(rects, s.elements[s.index[id]].Box(s.positions[id]))
	}
	b, ok := geom.Bounds(rects)
	if !ok {
		return
	}
	s.camAnim = nil
	s.setCamera(s.cameraFor(b, padding))
}

func (s *Scene) fitCamera(pos map[string]geom.Point, padding float64) (Camera, bool) {
	rects := make([]geom.Rect, 0, len(pos))
	for id, p := range pos {
		rects = append(rects, s.elements[s.index[id]].Box(p))
	}
	b, ok := geom.Bounds(rects)
	if !ok {
		return Camera{}, false
	}
	return s.cameraFor(b, padding), true
}

func (s *Scene) cameraFor(b geom.Rect, padding float64) Camera {
	t := geom.Fit(b, s.width, s.height, padding)
	return Camera{Pan: b.Center(), Zoom: geom.Clamp(t.Scale, MinZoom, MaxZoom)}
}

// Center pans the camera so the node sits in the middle of the viewport,
// over duration d. It reports false when id is not a node.
func (s *Scene) Center(id string, d time.Duration) bool {
	if !s.HasNode(id) {
		return false
	}
	p, ok := s.Position(id)
	if !ok {
		return false
	}
	s.PanTo(p, d)
	return true
}

// PanTo moves the viewport centre to p over duration d. A pan issued while
// another is running starts from the current interpolated camera.
func (s *Scene) PanTo(p geom.Point, d time.Duration) {
	target := s.camera
	target.Pan = p
	s.animateCamera(target, d)
}

// ZoomTo sets the zoom level immediately, keeping the pan.
func (s *Scene) ZoomTo(zoom float64) {
	s.camAnim = nil
	s.setCamera(Camera{Pan: s.camera.Pan, Zoom: geom.Clamp(zoom, MinZoom, MaxZoom)})
}

func (s *Scene) animateCamera(target Camera, d time.Duration) {
	if d <= 0 {
		s.camAnim = nil
		s.setCamera(target)
		return
	}
	s.camAnim = &cameraAnimation{start: s.now(), duration: d, from: s.camera, to: target}
}

func (s *Scene) setCamera(c Camera) {
	if c == s.camera {
		return
	}
	s.camera = c
	s.emit(Event{Kind: EventViewport})
}

// ToScreen maps a graph point to canvas pixels.
func (s *Scene) ToScreen(p geom.Point) geom.Point {
	return s.transform().Apply(p)
}

// ToGraph maps canvas pixels to a graph point.
func (s *Scene) ToGraph(p geom.Point) geom.Point {
	return s.transform().Invert(p)
}

func (s *Scene) transform() geom.Transform {
	z := s.camera.Zoom
	if z <= 0 {
		z = 1
	}
	return geom.Transform{
		Scale: z,
		Offset: geom.Point{
			X: s.width/2 - s.camera.Pan.X*z,
			Y: s.height/2 - s.camera.Pan.Y*z,
		},
	}
}

// Animation

// Animating reports whether a camera or position animation is running.
func (s *Scene) Animating() bool {
	return s.camAnim != nil || s.posAnim != nil
}

// Tick advances running animations to now, emitting viewport and position
// events as they move.
func (s *Scene) Tick(now time.Time) {
	if a := s.posAnim; a != nil {
		t := progress(a.start, a.duration, now)
		for _, id := range a.order {
			s.positions[id] = a.from[id].Lerp(a.to[id], ease(t))
		}
		if t >= 1 {
			s.posAnim = nil
		}
		s.emit(Event{Kind: EventPosition, IDs: a.order})
	}
	if a := s.camAnim; a != nil {
		t := progress(a.start, a.duration, now)
		e := ease(t)
		if t >= 1 {
			s.camAnim = nil
		}
		s.setCamera(Camera{
			Pan:  a.from.Pan.Lerp(a.to.Pan, e),
			Zoom: a.from.Zoom + (a.to.Zoom-a.from.Zoom)*e,
		})
	}
}

// Finish jumps every running animation to its end state.
func (s *Scene) Finish() {
	var far time.Time
	if s.posAnim != nil {
		far = s.posAnim.start.Add(s.posAnim.duration)
	}
	if s.camAnim != nil {
		if end := s.camAnim.start.Add(s.camAnim.duration); end.After(far) {
			far = end
		}
	}
	if s.Animating() {
		s.Tick(far)
	}
}

func progress(start time.Time, d time.Duration, now time.Time) float64 {
	if d <= 0 {
		return 1
	}
	t := float64(now.Sub(start)) / float64(d)
	return geom.Clamp(t, 0, 1)
}

// ease is a smooth in-out curve.
func ease(t float64) float64 {
	return 0.5 - math.Cos(t*math.Pi)/2
}

// Events

// On registers fn for events of kind and returns a function that removes
// the registration.
func (s *Scene) On(kind EventKind, fn func(Event)) (off func()) {
	s.nextHandler++
	id := s.nextHandler
	s.handlers[kind] = append(s.handlers[kind], handler{id: id, fn: fn})
	return func() {
		list := s.handlers[kind]
		for i, h := range list {
			if h.id == id {
				s.handlers[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (s *Scene) emit(ev Event) {
	list := append([]handler(nil), s.handlers[ev.Kind]...)
	for _, h := range list {
		h.fn(ev)
	}
}

// Tap emits a tap event for the element at the canvas point, or a
// background tap (empty Target) when nothing is there.
func (s *Scene) Tap(screen geom.Point) {
	id, _ := s.NodeAt(screen)
	s.emit(Event{Kind: EventTap, Target: id})
}

// TapElement emits a tap event for id.
func (s *Scene) TapElement(id string) {
	s.emit(Event{Kind: EventTap, Target: id})
}

// DoubleTap emits a double-tap event for the element at the canvas point.
func (s *Scene) DoubleTap(screen geom.Point) {
	id, _ := s.NodeAt(screen)
	s.emit(Event{Kind: EventDoubleTap, Target: id})
}

// Hover emits a hover event for the element at the canvas point.
func (s *Scene) Hover(screen geom.Point) {
	id, _ := s.NodeAt(screen)
	s.emit(Event{Kind: EventHover, Target: id})
}

// NodeAt returns the topmost leaf node under a canvas point.
func (s *Scene) NodeAt(screen geom.Point) (string, bool) {
	p := s.ToGraph(screen)
	for i := len(s.elements) - 1; i >= 0; i-- {
		el := s.elements[i]
		if !el.IsNode() || el.Data.Compound {
			continue
		}
		if el.Box(s.positions[el.ID]).Contains(p) {
			return el.ID, true
		}
	}
	return "", false
}

// Snapshot returns a deep copy of the drawable state.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		Elements:  s.Elements(),
		Positions: s.Positions(),
		Classes:   make(map[string][]string, len(s.classes)),
		Styles:    append(Stylesheet(nil), s.styles...),
	}
	for id, list := range s.classes {
		snap.Classes[id] = append([]string(nil), list...)
	}
	return snap
}

var _ Engine = (*Scene)(nil)
