package view

import (
	"time"

	"github.com/ha1tch/codemap/pkg/scene"
)

// Direction selects which neighbours ConnectedNodeIDs returns.
type Direction int

const (
	Both Direction = iota
	Incoming
	Outgoing
)

// ParseDirection converts "in", "out" or "both".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "in", "incoming":
		return Incoming, true
	case "out", "outgoing":
		return Outgoing, true
	case "both", "":
		return Both, true
	}
	return Both, false
}

// Default camera settings of the navigation handle.
const (
	FitPadding     = 30.0
	CenterDuration = 300 * time.Millisecond
)

// Navigator is the narrow camera and neighbourhood surface handed to the
// rest of the application. Calls go straight to the engine; nothing is
// queued.
type Navigator struct {
	engine   scene.Engine
	padding  float64
	duration time.Duration
}

// NewNavigator creates a navigator over engine.
func NewNavigator(engine scene.Engine) *Navigator {
	return &Navigator{engine: engine, padding: FitPadding, duration: CenterDuration}
}

// Fit frames every rendered element.
func (n *Navigator) Fit() {
	n.engine.Fit(n.padding)
}

// CenterOnNode pans, keeping the zoom, until id is in the middle of the
// viewport. It reports false and does nothing when id is not rendered.
func (n *Navigator) CenterOnNode(id string) bool {
	return n.engine.Center(id, n.duration)
}

// ConnectedNodeIDs returns the direct neighbours of id in the rendered
// graph, in edge order without duplicates. Outgoing neighbours precede
// incoming ones for Both. The result is empty, never nil, when id is not
// rendered.
func (n *Navigator) ConnectedNodeIDs(id string, dir Direction) []string {
	out := []string{}
	if !n.engine.HasNode(id) {
		return out
	}
	seen := make(map[string]bool)
	add := func(ids []string) {
		for _, v := range ids {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	if dir == Both || dir == Outgoing {
		nodes, _ := n.engine.Outgoers(id)
		add(nodes)
	}
	if dir == Both || dir == Incoming {
		nodes, _ := n.engine.Incomers(id)
		add(nodes)
	}
	return out
}
