package view

import (
	"go.uber.org/zap"

	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/layout"
	"github.com/ha1tch/codemap/pkg/scene"
)

// View is the graph-view component: it owns the builder, the layout
// coordinator, the synchronizer and the navigator for one engine. Like the
// engine it is confined to one goroutine.
type View struct {
	engine  scene.Engine
	builder *Builder
	coord   *layout.Coordinator
	sync    *Synchronizer
	nav     *Navigator
	log     *zap.Logger

	graph     *graph.Graph
	filter    Filter
	opts      BuildOptions
	algorithm string
	quality   layout.Quality

	onBuild func(n int)
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithViewLogger sets the logger.
func WithViewLogger(log *zap.Logger) ViewOption {
	return func(v *View) { v.log = log }
}

// WithAlgorithm sets the initial layout algorithm.
func WithAlgorithm(alg string) ViewOption {
	return func(v *View) { v.algorithm = alg }
}

// WithQuality sets the initial layout quality.
func WithQuality(q layout.Quality) ViewOption {
	return func(v *View) { v.quality = q }
}

// WithBuildOptions sets the initial sizing and clustering.
func WithBuildOptions(opts BuildOptions) ViewOption {
	return func(v *View) { v.opts = opts }
}

// WithFilter sets the initial filter.
func WithFilter(f Filter) ViewOption {
	return func(v *View) { v.filter = f.Clone() }
}

// WithBuildHook is called with the element count after every build.
func WithBuildHook(fn func(n int)) ViewOption {
	return func(v *View) { v.onBuild = fn }
}

// NewView creates a view over engine using coord for layouts.
func NewView(engine scene.Engine, coord *layout.Coordinator, opts ...ViewOption) *View {
	nav := NewNavigator(engine)
	v := &View{
		engine:    engine,
		builder:   NewBuilder(),
		coord:     coord,
		sync:      NewSynchronizer(engine, nav),
		nav:       nav,
		log:       zap.NewNop(),
		filter:    AllFilter(),
		algorithm: autolayout.FCoSE,
		quality:   layout.Default,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load replaces the domain graph, rebuilds and lays out.
func (v *View) Load(g *graph.Graph) *layout.Pending {
	v.graph = g
	return v.rebuild()
}

// Graph returns the loaded domain graph.
func (v *View) Graph() *graph.Graph { return v.graph }

// Filter returns a copy of the active filter.
func (v *View) Filter() Filter { return v.filter.Clone() }

// SetFilter applies a new filter.
func (v *View) SetFilter(f Filter) *layout.Pending {
	v.filter = f.Clone()
	return v.rebuild()
}

// Options returns the build options.
func (v *View) Options() BuildOptions { return v.opts }

// SetOptions changes sizing or clustering.
func (v *View) SetOptions(opts BuildOptions) *layout.Pending {
	v.opts = opts
	return v.rebuild()
}

// Algorithm returns the current layout algorithm.
func (v *View) Algorithm() string { return v.algorithm }

// Relayout reruns the layout with a new algorithm and quality.
func (v *View) Relayout(alg string, q layout.Quality) *layout.Pending {
	v.algorithm, v.quality = alg, q
	return v.coord.Run(v.engine.Elements(), alg, q)
}

func (v *View) rebuild() *layout.Pending {
	els := v.builder.Build(v.graph, v.filter, v.opts)
	v.engine.SetElements(els)
	v.sync.Refresh()
	if v.onBuild != nil {
		v.onBuild(len(els))
	}
	v.log.Debug("elements built",
		zap.Int("elements", len(els)),
		zap.String("sizing", v.opts.Sizing.String()),
		zap.Bool("cluster", v.opts.Cluster))
	return v.coord.Run(els, v.algorithm, v.quality)
}

// Select selects a node; "" deselects.
func (v *View) Select(id string) { v.sync.Select(id) }

// Search sets the search query.
func (v *View) Search(query string) { v.sync.Search(query) }

// NextMatch moves to the next search match.
func (v *View) NextMatch() (string, bool) { return v.sync.NextMatch() }

// PrevMatch moves to the previous search match.
func (v *View) PrevMatch() (string, bool) { return v.sync.PrevMatch() }

// Synchronizer returns the selection and search synchronizer.
func (v *View) Synchronizer() *Synchronizer { return v.sync }

// Navigator returns the navigation handle.
func (v *View) Navigator() *Navigator { return v.nav }

// Close stops any layout in flight.
func (v *View) Close() {
	v.coord.Close()
}
