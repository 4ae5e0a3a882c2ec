// Package layout decides where and how node positions are computed: inline
// on the goroutine that owns the scene, or on a single background worker
// for large force-directed runs. Results from superseded requests are never
// applied.
package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/ha1tch/codemap/pkg/autolayout"
)

// Quality selects how much effort a force-directed run spends.
type Quality string

const (
	Draft   Quality = "draft"
	Default Quality = "default"
	Proof   Quality = "proof"
)

// ParseQuality converts a string to a Quality. Empty means Default.
func ParseQuality(s string) (Quality, error) {
	switch Quality(strings.ToLower(strings.TrimSpace(s))) {
	case Draft:
		return Draft, nil
	case Default, "":
		return Default, nil
	case Proof:
		return Proof, nil
	}
	return "", fmt.Errorf("unknown layout quality %q", s)
}

// forceTier holds the force-directed budget of one quality level.
type forceTier struct {
	numIter       int
	nodeRepulsion float64
	idealEdge     float64
}

var forceTiers = map[Quality]forceTier{
	Draft:   {numIter: 250, nodeRepulsion: 4500, idealEdge: 60},
	Default: {numIter: 1000, nodeRepulsion: 8000, idealEdge: 80},
	Proof:   {numIter: 2500, nodeRepulsion: 10000, idealEdge: 100},
}

// Config holds the coordinator settings.
type Config struct {
	// LargeGraphThreshold is the node count above which force-directed
	// layouts move to the background worker.
	LargeGraphThreshold int `toml:"large_graph_threshold" validate:"min=1"`

	// AnimationDuration of inline layouts; zero disables animation.
	AnimationDuration time.Duration `toml:"animation_duration" validate:"min=0"`

	Padding float64 `toml:"padding" validate:"min=0"`
	Quality Quality `toml:"quality" validate:"omitempty,oneof=draft default proof"`

	// Timeout bounds a background run; zero means no deadline.
	Timeout time.Duration `toml:"timeout" validate:"min=0"`

	// Canvas size the algorithms aim for.
	Width  float64 `toml:"width" validate:"min=0"`
	Height float64 `toml:"height" validate:"min=0"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		LargeGraphThreshold: 200,
		AnimationDuration:   500 * time.Millisecond,
		Padding:             30,
		Quality:             Default,
		Width:               1200,
		Height:              800,
	}
}

// Strategy is where a layout runs.
type Strategy int

const (
	Inline Strategy = iota
	Background
)

func (s Strategy) String() string {
	if s == Background {
		return "background"
	}
	return "inline"
}

// Classify reports whether nodeCount is large under cfg and which strategy
// a run of alg would use.
func Classify(alg string, nodeCount int, cfg Config) (large bool, s Strategy) {
	large = nodeCount > cfg.LargeGraphThreshold
	if large && autolayout.IsForceDirected(alg) {
		return true, Background
	}
	return large, Inline
}

// BuildParams constructs the algorithm parameters for a run. Large graphs
// get the draft budget and no animation. Fit and padding are always set.
func BuildParams(alg string, q Quality, large bool, cfg Config) autolayout.Params {
	p := autolayout.Params{
		Name:    alg,
		Fit:     true,
		Padding: cfg.Padding,
		Width:   cfg.Width,
		Height:  cfg.Height,
	}
	if !large && cfg.AnimationDuration > 0 {
		p.Animate = true
		p.AnimationDuration = int(cfg.AnimationDuration / time.Millisecond)
	}

	if autolayout.IsForceDirected(alg) {
		if large {
			q = Draft
		}
		tier, ok := forceTiers[q]
		if !ok {
			tier = forceTiers[Default]
		}
		p.NumIter = tier.numIter
		p.NodeRepulsion = tier.nodeRepulsion
		p.IdealEdgeLength = tier.idealEdge
		p.Gravity = 0.25
		return p
	}

	p.AvoidOverlap = true
	p.Spacing = 10
	if alg == autolayout.Circle {
		p.Spacing = 20
	}
	return p
}
