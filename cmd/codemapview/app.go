package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/ha1tch/codemap/internal/config"
	"github.com/ha1tch/codemap/internal/metrics"
	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/layout"
	"github.com/ha1tch/codemap/pkg/minimap"
	"github.com/ha1tch/codemap/pkg/scene"
	"github.com/ha1tch/codemap/pkg/view"
)

// Terminal cells are mapped to scene pixels at this size, so a cell is
// roughly as tall as it looks.
const (
	cellW = 8.0
	cellH = 16.0
)

const (
	sidebarWidth  = 34
	minimapCols   = 26
	minimapRows   = 9
	tickInterval  = 40 * time.Millisecond
	doubleClickMs = 400

	// A full event queue is retried for about a second before the
	// callback is dropped; that only happens once the UI has stopped.
	dispatchRetries = 200
)

// Mode is what keystrokes currently drive.
type Mode int

const (
	ModeView Mode = iota
	ModeSearch
	ModeExport
	ModeHelp
)

// MessageType for status messages
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgError
	MsgSuccess
	MsgWarning
)

// screenDispatcher re-enters the UI goroutine through the tcell event queue.
type screenDispatcher struct {
	screen tcell.Screen
}

func (d screenDispatcher) Dispatch(fn func()) {
	ev := tcell.NewEventInterrupt(fn)
	for i := 0; d.screen.PostEvent(ev) != nil; i++ {
		if i == dispatchRetries {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// App holds all viewer state. Everything except the dispatcher and the
// ticker runs on the goroutine that calls Run.
type App struct {
	screen  tcell.Screen
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Collector

	scene  *scene.Scene
	coord  *layout.Coordinator
	view   *view.View
	frames *minimap.ManualFrames
	mini   *minimap.Renderer

	graphPath   string
	pending     *layout.Pending
	showMinimap bool
	quality     layout.Quality

	mode         Mode
	input        string
	prevQuery    string
	message      string
	messageType  MessageType
	messageStart int64 // Unix milliseconds

	hovered string
	cursor  int // Tab cycles through NodeIDs from here

	// Mouse state
	leftMouseDown  bool
	lastClickTime  int64
	lastClickX     int
	lastClickY     int

	canvasW, canvasH int
	quit             bool
	offs             []func()
}

// NewApp wires a scene, coordinator, view and minimap to screen.
func NewApp(screen tcell.Screen, cfg config.Config, log *zap.Logger, mc *metrics.Collector) *App {
	a := &App{
		screen:      screen,
		cfg:         cfg,
		log:         log,
		metrics:     mc,
		scene:       scene.New(),
		frames:      &minimap.ManualFrames{},
		showMinimap: cfg.View.Minimap,
		quality:     cfg.Layout.Quality,
	}

	a.coord = layout.NewCoordinator(a.scene, screenDispatcher{screen},
		layout.WithConfig(cfg.Layout),
		layout.WithLogger(log),
		layout.WithRecorder(mc))

	sizing, err := view.ParseSizing(cfg.View.Sizing)
	if err != nil {
		log.Warn("ignoring sizing from config", zap.Error(err))
	}
	alg := cfg.View.Algorithm
	if alg == "" {
		alg = autolayout.FCoSE
	}
	a.view = view.NewView(a.scene, a.coord,
		view.WithViewLogger(log),
		view.WithAlgorithm(alg),
		view.WithQuality(a.quality),
		view.WithBuildOptions(view.BuildOptions{Sizing: sizing, Cluster: cfg.View.Cluster}),
		view.WithBuildHook(mc.ObserveBuild))

	mo := minimap.DefaultOptions()
	mo.Width = (minimapCols - 2) * cellW
	mo.Height = (minimapRows - 2) * cellH
	a.mini = minimap.New(a.scene, a.frames, mo)

	a.offs = append(a.offs,
		a.scene.On(scene.EventTap, func(ev scene.Event) {
			a.view.Select(ev.Target)
		}),
		a.scene.On(scene.EventDoubleTap, func(ev scene.Event) {
			if ev.Target != "" {
				a.view.Navigator().CenterOnNode(ev.Target)
			}
		}),
		a.scene.On(scene.EventHover, func(ev scene.Event) {
			a.hovered = ev.Target
		}),
	)

	a.resize()
	return a
}

// Load reads and lays out the graph file.
func (a *App) Load(path string) error {
	g, err := graph.ReadFile(path)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		a.log.Warn("graph has problems", zap.String("path", path), zap.Error(err))
		a.showMessage("Graph has dangling edges or duplicate ids", MsgWarning)
	}
	a.graphPath = path
	a.track(a.view.Load(g))
	a.log.Info("graph loaded",
		zap.String("path", path),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)))
	return nil
}

func (a *App) reload() {
	if err := a.Load(a.graphPath); err != nil {
		a.log.Error("reload failed", zap.String("path", a.graphPath), zap.Error(err))
		a.showMessage("Reload failed: "+err.Error(), MsgError)
		return
	}
	a.showMessage("Reloaded "+a.graphPath, MsgSuccess)
}

// Watch reloads the graph and applies config changes as files change.
// Callbacks arrive on the watcher goroutine and are dispatched to the UI.
func (a *App) Watch(w *config.Watcher, graphPath, configPath string) {
	d := screenDispatcher{a.screen}
	if err := w.Watch(graphPath, func() { d.Dispatch(a.reload) }); err != nil {
		a.log.Warn("not watching graph", zap.Error(err))
	}

	if configPath == "" {
		configPath = config.DefaultPath()
	}
	if _, err := os.Stat(configPath); err != nil {
		return
	}
	err := w.WatchConfig(configPath, func(cfg config.Config) {
		d.Dispatch(func() { a.applyConfig(cfg) })
	})
	if err != nil {
		a.log.Warn("not watching config", zap.Error(err))
	}
}

// applyConfig takes the settings that can change without a restart.
func (a *App) applyConfig(cfg config.Config) {
	a.cfg.Layout = cfg.Layout
	a.coord.SetConfig(cfg.Layout)
	a.showMinimap = cfg.View.Minimap
	a.showMessage("Configuration reloaded", MsgInfo)
}

// track remembers the latest layout so its outcome can be reported.
func (a *App) track(p *layout.Pending) {
	a.pending = p
	a.checkPending()
}

func (a *App) checkPending() {
	if a.pending == nil {
		return
	}
	select {
	case <-a.pending.Done():
	default:
		return
	}
	err := a.pending.Err()
	p := a.pending
	a.pending = nil
	switch {
	case err == nil:
	case errors.Is(err, layout.ErrStale), errors.Is(err, layout.ErrTerminated):
		// Superseded by a newer request
	default:
		a.showMessage(fmt.Sprintf("%s layout failed: %v", p.Algorithm, err), MsgError)
	}
}

// layoutBusy reports whether a layout is still running.
func (a *App) layoutBusy() bool {
	return a.pending != nil
}

// Run processes events until the user quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	go a.tick(ctx)

	for !a.quit {
		a.draw()
		a.screen.Show()

		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		a.handleEvent(ev)
	}
	return nil
}

// tick drives animations and the minimap frame queue.
func (a *App) tick(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	step := func() {
		a.scene.Tick(time.Now())
		a.frames.Flush()
	}
	for {
		select {
		case <-ctx.Done():
			_ = a.screen.PostEvent(tcell.NewEventInterrupt(func() { a.quit = true }))
			return
		case <-ticker.C:
			_ = a.screen.PostEvent(tcell.NewEventInterrupt(step))
		}
	}
}

func (a *App) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		a.resize()
	case *tcell.EventKey:
		if a.handleKey(ev) {
			a.quit = true
		}
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func()); ok {
			fn()
		}
	}
	a.checkPending()
}

// resize keeps the scene canvas equal to the terminal canvas area.
func (a *App) resize() {
	w, h := a.screen.Size()
	a.canvasW = w - sidebarWidth - 1
	if a.canvasW < 1 {
		a.canvasW = 1
	}
	a.canvasH = h - 2
	if a.canvasH < 1 {
		a.canvasH = 1
	}
	a.scene.Resize(float64(a.canvasW)*cellW, float64(a.canvasH)*cellH)
}

func (a *App) showMessage(msg string, t MessageType) {
	a.message = msg
	a.messageType = t
	a.messageStart = time.Now().UnixMilli()
}

// Close stops layouts and detaches handlers.
func (a *App) Close() {
	for _, off := range a.offs {
		off()
	}
	a.offs = nil
	a.mini.Close()
	a.view.Close()
}
