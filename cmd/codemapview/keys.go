package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/codemap/pkg/autolayout"
	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/layout"
	"github.com/ha1tch/codemap/pkg/view"
)

const (
	zoomStep = 1.25
	panStep  = 0.1 // fraction of the viewport per arrow press
)

var qualities = []layout.Quality{layout.Draft, layout.Default, layout.Proof}

var sizings = []view.Sizing{view.SizeFixed, view.SizeByType, view.SizeByDegree}

// handleKey returns true when the viewer should exit.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}

	switch a.mode {
	case ModeSearch:
		a.handleSearchKey(ev)
	case ModeExport:
		a.handleExportKey(ev)
	case ModeHelp:
		a.mode = ModeView
	default:
		return a.handleViewKey(ev)
	}
	return false
}

func (a *App) handleViewKey(ev *tcell.EventKey) bool {
	vp := a.scene.Viewport()
	cam := a.scene.Camera()

	switch ev.Key() {
	case tcell.KeyUp:
		a.scene.PanTo(cam.Pan.Add(geom.Point{Y: -vp.Height() * panStep}), 0)
	case tcell.KeyDown:
		a.scene.PanTo(cam.Pan.Add(geom.Point{Y: vp.Height() * panStep}), 0)
	case tcell.KeyLeft:
		a.scene.PanTo(cam.Pan.Add(geom.Point{X: -vp.Width() * panStep}), 0)
	case tcell.KeyRight:
		a.scene.PanTo(cam.Pan.Add(geom.Point{X: vp.Width() * panStep}), 0)
	case tcell.KeyTab:
		a.cycleSelection(1)
	case tcell.KeyBacktab:
		a.cycleSelection(-1)
	case tcell.KeyEnter:
		if id := a.view.Synchronizer().Selected(); id != "" {
			a.view.Navigator().CenterOnNode(id)
		}
	case tcell.KeyEscape:
		a.view.Select("")
		a.view.Search("")
		a.message = ""
	case tcell.KeyRune:
		return a.handleViewRune(ev.Rune())
	}
	return false
}

func (a *App) handleViewRune(r rune) bool {
	switch r {
	case 'q':
		return true
	case '?':
		a.mode = ModeHelp
	case '/':
		a.prevQuery = a.view.Synchronizer().Query().String()
		a.input = a.prevQuery
		a.mode = ModeSearch
	case 'n':
		a.stepMatch(a.view.NextMatch)
	case 'N':
		a.stepMatch(a.view.PrevMatch)
	case '+', '=':
		a.scene.ZoomTo(a.scene.Camera().Zoom * zoomStep)
	case '-':
		a.scene.ZoomTo(a.scene.Camera().Zoom / zoomStep)
	case 'f':
		a.view.Navigator().Fit()
	case 'l':
		a.cycleAlgorithm()
	case 'p':
		a.cycleQuality()
	case 's':
		a.cycleSizing()
	case 'c':
		opts := a.view.Options()
		opts.Cluster = !opts.Cluster
		a.track(a.view.SetOptions(opts))
		a.showMessage(fmt.Sprintf("Clustering %s", onOff(opts.Cluster)), MsgInfo)
	case 'm':
		a.showMinimap = !a.showMinimap
	case 'r':
		a.reload()
	case 'e':
		a.input = defaultExportPath(a.graphPath)
		a.mode = ModeExport
	case '1', '2', '3', '4', '5':
		a.toggleNodeType(graph.NodeTypes[r-'1'])
	}
	return false
}

func (a *App) handleSearchKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		a.mode = ModeView
		st := a.view.Synchronizer().SearchState()
		if a.input != "" && st.Len() == 0 {
			a.showMessage("No matches for "+a.input, MsgWarning)
		}
		return
	case tcell.KeyEscape:
		a.input = a.prevQuery
		a.mode = ModeView
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.input) > 0 {
			_, size := utf8.DecodeLastRuneInString(a.input)
			a.input = a.input[:len(a.input)-size]
		}
	case tcell.KeyRune:
		a.input += string(ev.Rune())
	default:
		return
	}
	// Search runs as the query is typed
	a.view.Search(a.input)
}

func (a *App) handleExportKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		a.mode = ModeView
		a.export(strings.TrimSpace(a.input))
	case tcell.KeyEscape:
		a.mode = ModeView
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.input) > 0 {
			_, size := utf8.DecodeLastRuneInString(a.input)
			a.input = a.input[:len(a.input)-size]
		}
	case tcell.KeyRune:
		a.input += string(ev.Rune())
	}
}

func (a *App) stepMatch(step func() (string, bool)) {
	id, ok := step()
	if !ok {
		a.showMessage("No search matches", MsgInfo)
		return
	}
	st := a.view.Synchronizer().SearchState()
	a.showMessage(fmt.Sprintf("Match %d/%d: %s", st.Cursor()+1, st.Len(), id), MsgInfo)
}

// cycleSelection selects the next rendered node after the current cursor.
func (a *App) cycleSelection(dir int) {
	ids := a.scene.NodeIDs()
	var leaves []string
	for _, id := range ids {
		if el, ok := a.scene.Element(id); ok && !el.Data.Compound {
			leaves = append(leaves, id)
		}
	}
	if len(leaves) == 0 {
		return
	}
	a.cursor = ((a.cursor+dir)%len(leaves) + len(leaves)) % len(leaves)
	if a.view.Synchronizer().Selected() == "" && dir > 0 {
		a.cursor = 0
	}
	a.view.Select(leaves[a.cursor])
}

func (a *App) cycleAlgorithm() {
	next := autolayout.Algorithms[0]
	for i, alg := range autolayout.Algorithms {
		if alg == a.view.Algorithm() {
			next = autolayout.Algorithms[(i+1)%len(autolayout.Algorithms)]
			break
		}
	}
	a.track(a.view.Relayout(next, a.quality))
	a.showMessage("Layout: "+next, MsgInfo)
}

func (a *App) cycleQuality() {
	next := qualities[0]
	for i, q := range qualities {
		if q == a.quality {
			next = qualities[(i+1)%len(qualities)]
			break
		}
	}
	a.quality = next
	a.track(a.view.Relayout(a.view.Algorithm(), next))
	a.showMessage("Quality: "+string(next), MsgInfo)
}

func (a *App) cycleSizing() {
	opts := a.view.Options()
	for i, s := range sizings {
		if s == opts.Sizing {
			opts.Sizing = sizings[(i+1)%len(sizings)]
			break
		}
	}
	a.track(a.view.SetOptions(opts))
	a.showMessage("Sizing: "+opts.Sizing.String(), MsgInfo)
}

func (a *App) toggleNodeType(t graph.NodeType) {
	f := a.view.Filter()
	f.ToggleNodeType(t)
	a.track(a.view.SetFilter(f))
	a.showMessage(fmt.Sprintf("%s nodes %s", t, onOff(f.NodeTypes[t])), MsgInfo)
}

func defaultExportPath(graphPath string) string {
	base := strings.TrimSuffix(filepath.Base(graphPath), filepath.Ext(graphPath))
	if base == "" || base == "." {
		base = "codemap"
	}
	return base + ".png"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
