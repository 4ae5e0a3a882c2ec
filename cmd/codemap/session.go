package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ha1tch/codemap/internal/metrics"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/layout"
	"github.com/ha1tch/codemap/pkg/scene"
	"github.com/ha1tch/codemap/pkg/view"
)

// session is a headless view: the scene and every component that touches
// it run on the command's goroutine, which pumps loop while a layout is in
// flight.
type session struct {
	log     *zap.Logger
	metrics *metrics.Collector
	scene   *scene.Scene
	loop    *scene.Loop
	coord   *layout.Coordinator
	view    *view.View
}

// viewSettings are the initial view state after flags override config.
type viewSettings struct {
	algorithm string
	quality   string
	sizing    string
	cluster   bool
	filter    view.Filter
}

func (g *globals) newSession(vs viewSettings) (*session, error) {
	lc := g.cfg.Layout
	if vs.quality != "" {
		q, err := layout.ParseQuality(vs.quality)
		if err != nil {
			return nil, err
		}
		lc.Quality = q
	}
	sizing, err := view.ParseSizing(vs.sizing)
	if err != nil {
		return nil, err
	}
	alg := vs.algorithm
	if alg == "" {
		alg = g.cfg.View.Algorithm
	}

	s := &session{
		log:     g.log,
		metrics: metrics.NewCollector(),
		scene:   scene.New(scene.WithSize(lc.Width, lc.Height)),
		loop:    scene.NewLoop(),
	}
	s.coord = layout.NewCoordinator(s.scene, s.loop,
		layout.WithConfig(lc),
		layout.WithLogger(g.log),
		layout.WithRecorder(s.metrics))
	s.view = view.NewView(s.scene, s.coord,
		view.WithViewLogger(g.log),
		view.WithAlgorithm(alg),
		view.WithQuality(lc.Quality),
		view.WithBuildOptions(view.BuildOptions{Sizing: sizing, Cluster: vs.cluster}),
		view.WithFilter(vs.filter),
		view.WithBuildHook(s.metrics.ObserveBuild))
	return s, nil
}

// load reads the graph file and lays it out.
func (s *session) load(ctx context.Context, path string) (*graph.Graph, error) {
	g, err := graph.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		s.log.Warn("graph has problems", zap.String("path", path), zap.Error(err))
	}

	if err := s.await(ctx, s.view.Load(g)); err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return g, nil
}

// await pumps the loop until p settles, then jumps any animation to its
// end.
func (s *session) await(ctx context.Context, p *layout.Pending) error {
	for {
		select {
		case <-p.Done():
			s.loop.Drain()
			s.scene.Finish()
			return p.Err()
		default:
		}
		if err := s.loop.RunOne(ctx); err != nil {
			return err
		}
	}
}

func (s *session) close() {
	s.view.Close()
	s.loop.Drain()
}
