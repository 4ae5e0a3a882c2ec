package scene

import (
	"time"

	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/geom"
)

// EventKind identifies an engine event.
type EventKind int

const (
	EventTap EventKind = iota
	EventDoubleTap
	EventHover
	EventViewport
	EventAdd
	EventRemove
	EventPosition
)

func (k EventKind) String() string {
	switch k {
	case EventTap:
		return "tap"
	case EventDoubleTap:
		return "dbltap"
	case EventHover:
		return "hover"
	case EventViewport:
		return "viewport"
	case EventAdd:
		return "add"
	case EventRemove:
		return "remove"
	case EventPosition:
		return "position"
	}
	return "unknown"
}

// Event is delivered to handlers registered with On. Target is the element
// id for tap/hover events and empty for background taps.
type Event struct {
	Kind   EventKind
	Target string
	IDs    []string // affected ids for add/remove/position
}

// Camera is the current pan (graph-space point at the viewport centre) and
// zoom (pixels per graph unit).
type Camera struct {
	Pan  geom.Point
	Zoom float64
}

// Snapshot is a plain-data copy of everything needed to draw the scene.
type Snapshot struct {
	Elements  []Element
	Positions map[string]geom.Point
	Classes   map[string][]string
	Styles    Stylesheet
}

// Engine is the narrow surface of the render engine used by the layout
// coordinator, the synchronizer, the navigation handle and the minimap.
// Implementations are confined to one goroutine and need no locking.
type Engine interface {
	SetElements(els []Element)
	Elements() []Element
	Element(id string) (Element, bool)
	HasNode(id string) bool
	NodeIDs() []string

	Position(id string) (geom.Point, bool)
	Positions() map[string]geom.Point
	SetPositions(pos map[string]geom.Point)
	RunLayout(p autolayout.Params) error

	AddClass(id, class string)
	RemoveClasses(classes ...string)
	HasClass(id, class string) bool
	Classes(id string) []string

	Outgoers(id string) (nodes, edges []string)
	Incomers(id string) (nodes, edges []string)
	ConnectedEdges(id string) []string

	Fit(padding float64)
	Center(id string, d time.Duration) bool
	PanTo(p geom.Point, d time.Duration)
	ZoomTo(zoom float64)
	Camera() Camera
	Viewport() geom.Rect
	BoundingBox() (geom.Rect, bool)
	Size() (w, h float64)

	On(kind EventKind, fn func(Event)) (off func())
	Snapshot() Snapshot
}
