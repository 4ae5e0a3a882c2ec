package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ha1tch/codemap/internal/config"
	"github.com/ha1tch/codemap/internal/metrics"
	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/graph"
)

const sampleGraph = `{
  "nodes": [
    {"id": "A", "label": "UserService", "type": "class",
     "metadata": {"fullyQualifiedName": "app.UserService", "package": "app",
                  "modifiers": ["public"], "annotations": ["@Service"]}},
    {"id": "B", "label": "UserRepository", "type": "interface",
     "metadata": {"fullyQualifiedName": "app.UserRepository", "package": "app"}},
    {"id": "C", "label": "GET /users", "type": "endpoint",
     "metadata": {"package": "web"}},
    {"id": "D", "label": "Util", "type": "class"}
  ],
  "edges": [
    {"source": "A", "target": "B", "type": "implements"},
    {"source": "C", "target": "A", "type": "calls"},
    {"source": "A", "target": "D", "type": "imports"}
  ]
}`

// newTestApp loads the sample graph into a viewer on a simulated screen.
func newTestApp(t *testing.T) (*App, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	screen.SetSize(120, 40)
	t.Cleanup(screen.Fini)

	cfg := config.Default()
	cfg.View.Algorithm = "grid"
	cfg.Layout.AnimationDuration = 0

	a := NewApp(screen, cfg, zap.NewNop(), metrics.NewCollector())
	t.Cleanup(a.Close)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraph), 0o644))
	require.NoError(t, a.Load(path))
	require.False(t, a.layoutBusy(), "small grid layouts finish inline")

	a.scene.Finish()
	a.frames.Flush()
	return a, screen
}

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

func runes(a *App, s string) {
	for _, r := range s {
		a.handleEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

// screenText returns the drawn screen, one line per row.
func screenText(a *App, screen tcell.SimulationScreen) string {
	a.draw()
	screen.Show()
	cells, w, h := screen.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) > 0 {
				b.WriteRune(c.Runes[0])
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestLoadRendersGraph(t *testing.T) {
	a, screen := newTestApp(t)

	text := screenText(a, screen)
	assert.Contains(t, text, "graph.json")
	assert.Contains(t, text, "4 nodes, 3 edges")
	assert.Contains(t, text, "grid (default)")
	assert.Contains(t, text, "●UserService")
	assert.Contains(t, text, " map ")
}

func TestNodeMarkerAtCanvasEdge(t *testing.T) {
	a, screen := newTestApp(t)
	a.showMinimap = false

	p, ok := a.scene.Position("A")
	require.True(t, ok)
	// Pan so that A lands in the first column of the canvas
	zoom := a.scene.Camera().Zoom
	half := a.scene.Viewport().Width() / 2
	a.scene.PanTo(geom.Point{X: p.X + half - 2/zoom, Y: p.Y}, 0)
	x, y := a.cellOf(p)
	require.Equal(t, 0, x)

	a.draw()
	screen.Show()
	cells, w, _ := screen.GetContents()
	row := cells[y*w : y*w+w]
	require.NotEmpty(t, row[0].Runes)
	assert.Equal(t, '●', row[0].Runes[0])
	require.NotEmpty(t, row[1].Runes)
	assert.Equal(t, 'U', row[1].Runes[0])
}

func TestSearchKeys(t *testing.T) {
	a, _ := newTestApp(t)

	runes(a, "/")
	assert.Equal(t, ModeSearch, a.mode)
	runes(a, "user")
	st := a.view.Synchronizer().SearchState()
	assert.Equal(t, 3, st.Len(), "search runs while typing")

	a.handleEvent(key(tcell.KeyEnter))
	assert.Equal(t, ModeView, a.mode)
	assert.Equal(t, "user", a.view.Synchronizer().Query().String())

	runes(a, "n")
	assert.Equal(t, "Match 2/3: B", a.message)
	runes(a, "N")
	assert.Equal(t, "Match 1/3: A", a.message)

	// Escape in search mode restores the previous query.
	runes(a, "/")
	a.handleEvent(key(tcell.KeyBackspace2))
	assert.Equal(t, "use", a.input)
	a.handleEvent(key(tcell.KeyEscape))
	assert.Equal(t, "user", a.view.Synchronizer().Query().String())

	a.handleEvent(key(tcell.KeyEscape))
	assert.False(t, a.view.Synchronizer().Query().Active())
}

func TestSearchWithoutMatchesWarns(t *testing.T) {
	a, _ := newTestApp(t)

	runes(a, "/nothing-here")
	a.handleEvent(key(tcell.KeyEnter))
	assert.Equal(t, MsgWarning, a.messageType)
	assert.Contains(t, a.message, "No matches")
}

func TestTabCyclesSelection(t *testing.T) {
	a, _ := newTestApp(t)
	sync := a.view.Synchronizer()

	a.handleEvent(key(tcell.KeyTab))
	first := sync.Selected()
	require.NotEmpty(t, first)

	a.handleEvent(key(tcell.KeyTab))
	assert.NotEqual(t, first, sync.Selected())

	a.handleEvent(key(tcell.KeyBacktab))
	assert.Equal(t, first, sync.Selected())

	a.handleEvent(key(tcell.KeyEscape))
	assert.Empty(t, sync.Selected())
}

func TestToggleNodeType(t *testing.T) {
	a, _ := newTestApp(t)
	require.True(t, a.scene.HasNode("A"))

	runes(a, "1")
	assert.False(t, a.scene.HasNode("A"))
	assert.False(t, a.scene.HasNode("D"))
	assert.True(t, a.scene.HasNode("B"))
	assert.Equal(t, "class nodes off", a.message)

	runes(a, "1")
	assert.True(t, a.scene.HasNode("A"))
}

func TestClusterAndSizingKeys(t *testing.T) {
	a, _ := newTestApp(t)

	runes(a, "c")
	assert.True(t, a.view.Options().Cluster)
	el, ok := a.scene.Element("A")
	require.True(t, ok)
	assert.NotEmpty(t, el.Parent)

	runes(a, "s")
	assert.Equal(t, "Sizing: byType", a.message)
}

func TestCycleAlgorithmAndQuality(t *testing.T) {
	a, _ := newTestApp(t)

	before := a.view.Algorithm()
	runes(a, "l")
	assert.NotEqual(t, before, a.view.Algorithm())

	runes(a, "p")
	assert.Equal(t, "Quality: proof", a.message)
}

func TestClickSelectsNode(t *testing.T) {
	a, screen := newTestApp(t)
	a.showMinimap = false

	p, ok := a.scene.Position("A")
	require.True(t, ok)
	x, y := a.cellOf(p)
	require.True(t, a.inCanvas(x, y), "node A at cell %d,%d", x, y)

	a.handleEvent(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	a.handleEvent(tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone))
	assert.Equal(t, "A", a.view.Synchronizer().Selected())

	text := screenText(a, screen)
	assert.Contains(t, text, "fqn: app.UserService")
	assert.Contains(t, text, "annotations: @Service")
	assert.Contains(t, text, "→ B, D")
	assert.Contains(t, text, "← C")
}

func TestMinimapDrag(t *testing.T) {
	a, _ := newTestApp(t)
	require.False(t, a.mini.Frame().Empty)

	ox, oy := a.minimapOrigin()
	a.handleEvent(tcell.NewEventMouse(ox+12, oy+3, tcell.Button1, tcell.ModNone))
	require.True(t, a.mini.Dragging())
	assert.Empty(t, a.view.Synchronizer().Selected(), "minimap presses do not reach the canvas")

	pan := a.scene.Camera().Pan
	a.handleEvent(tcell.NewEventMouse(2, 2, tcell.Button1, tcell.ModNone))
	assert.True(t, a.mini.Dragging(), "drag continues off the minimap")
	assert.NotEqual(t, pan, a.scene.Camera().Pan)

	// Released far from the minimap
	a.handleEvent(tcell.NewEventMouse(2, 2, tcell.ButtonNone, tcell.ModNone))
	assert.False(t, a.mini.Dragging())
	assert.False(t, a.leftMouseDown)
}

func TestExportWritesFile(t *testing.T) {
	a, screen := newTestApp(t)
	out := filepath.Join(t.TempDir(), "view.dot")

	runes(a, "e")
	require.Equal(t, ModeExport, a.mode)
	assert.Equal(t, "graph.png", a.input)

	a.input = out
	a.handleEvent(key(tcell.KeyEnter))

	// The result comes back through the event queue.
	for i := 0; i < 50 && a.messageType == MsgInfo; i++ {
		a.handleEvent(screen.PollEvent())
	}
	require.Equal(t, MsgSuccess, a.messageType, a.message)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph codemap {"))
}

func TestExportUnknownFormat(t *testing.T) {
	a, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "x.bmp")

	err := writeSnapshot(path, a.scene.Snapshot(), 100, 100, 10, "#ffffff", true)
	assert.ErrorContains(t, err, "unknown output format")
	assert.NoFileExists(t, path)
}

func TestApplyConfig(t *testing.T) {
	a, _ := newTestApp(t)

	cfg := config.Default()
	cfg.View.Minimap = false
	cfg.Layout.LargeGraphThreshold = 2
	a.applyConfig(cfg)

	assert.False(t, a.showMinimap)
	assert.Equal(t, 2, a.cfg.Layout.LargeGraphThreshold)
	assert.Equal(t, "Configuration reloaded", a.message)
}

func TestHelpAndQuit(t *testing.T) {
	a, screen := newTestApp(t)

	runes(a, "?")
	assert.Equal(t, ModeHelp, a.mode)
	assert.Contains(t, screenText(a, screen), "cycle layout algorithm")
	runes(a, "x")
	assert.Equal(t, ModeView, a.mode)

	runes(a, "q")
	assert.True(t, a.quit)
}

func TestDefaultExportPath(t *testing.T) {
	assert.Equal(t, "graph.png", defaultExportPath("/tmp/graph.json"))
	assert.Equal(t, "codemap.png", defaultExportPath(""))
}

func TestNodeTypeKeysCoverEveryType(t *testing.T) {
	assert.Len(t, graph.NodeTypes, 5)
}
