package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/codemap/pkg/geom"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/scene"
	"github.com/ha1tch/codemap/pkg/view"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleSidebar    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSidebarH   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSubtle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgWarning = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleInput      = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCompound   = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
)

const (
	flashPeriodMs = 500
	flashPhaseMs  = 125
	maxLabel      = 18
)

func (a *App) draw() {
	a.screen.Clear()
	w, h := a.screen.Size()

	a.drawCanvas()
	if a.showMinimap {
		a.drawMinimap()
	}
	a.drawSidebar(w, h)

	switch a.mode {
	case ModeSearch:
		a.drawInputBox(w, h, "Search: ")
	case ModeExport:
		a.drawInputBox(w, h, "Export to: ")
	case ModeHelp:
		a.drawHelp(w, h)
	}

	a.drawStatusBar(w, h)
}

// tcellColor converts a "#rrggbb" style colour.
func tcellColor(hex string) tcell.Color {
	c := scene.ParseColor(hex)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// cellOf maps a graph point to a screen cell.
func (a *App) cellOf(p geom.Point) (int, int) {
	s := a.scene.ToScreen(p)
	return int(math.Floor(s.X / cellW)), int(math.Floor(s.Y / cellH))
}

func (a *App) drawCanvas() {
	for y := 0; y < a.canvasH; y++ {
		a.screen.SetContent(a.canvasW, y, '│', nil, styleBorder)
	}

	els := a.scene.Elements()
	for _, el := range els {
		if el.IsNode() && el.Data.Compound {
			a.drawCompound(el, els)
		}
	}
	for _, el := range els {
		if el.IsEdge() {
			a.drawEdge(el)
		}
	}
	for _, el := range els {
		if el.IsNode() && !el.Data.Compound {
			a.drawNode(el)
		}
	}
}

// styleFor turns the resolved element style and its state classes into a
// terminal style.
func (a *App) styleFor(el scene.Element) tcell.Style {
	st, _ := a.scene.ResolvedStyle(el.ID)
	style := tcell.StyleDefault.Foreground(tcellColor(st.Color))
	if el.IsNode() && st.Border != "" && st.Border != el.Style.Border {
		// A state class recoloured the border; show it as the text colour.
		style = style.Foreground(tcellColor(st.Border))
	}
	if st.Opacity < 0.5 {
		style = style.Dim(true)
	}
	switch {
	case a.scene.HasClass(el.ID, scene.ClassSelected):
		style = style.Reverse(true).Bold(true)
	case a.scene.HasClass(el.ID, scene.ClassSearchCurrent):
		style = style.Bold(true).Underline(true)
	case a.scene.HasClass(el.ID, scene.ClassSearchMatch), a.scene.HasClass(el.ID, scene.ClassHighlighted):
		style = style.Bold(true)
	}
	return style
}

func (a *App) drawNode(el scene.Element) {
	p, ok := a.scene.Position(el.ID)
	if !ok {
		return
	}
	// The marker sits on the node's cell, where its edges end; the label
	// runs to the right of it.
	cx, cy := a.cellOf(p)
	label := el.Style.Label
	if label == "" {
		label = el.ID
	}
	a.drawClipped(cx, cy, "●"+truncate(label, maxLabel), a.styleFor(el))
}

func (a *App) drawEdge(el scene.Element) {
	from, ok1 := a.scene.Position(el.Source)
	to, ok2 := a.scene.Position(el.Target)
	if !ok1 || !ok2 {
		return
	}
	x0, y0 := a.cellOf(from)
	x1, y1 := a.cellOf(to)
	style := a.styleFor(el).Reverse(false)

	if x0 == x1 && y0 == y1 {
		a.setClipped(x0+1, y0-1, '↺', style)
		return
	}
	// Lines that cannot touch the canvas are skipped
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) ||
		(x0 >= a.canvasW && x1 >= a.canvasW) || (y0 >= a.canvasH && y1 >= a.canvasH) {
		return
	}

	pts := line(x0, y0, x1, y1, 4*(a.canvasW+a.canvasH))
	for i, c := range pts {
		if i == 0 || i == len(pts)-1 {
			continue
		}
		r := '·'
		if i == len(pts)-2 {
			r = arrowHead(c[0], c[1], x1, y1)
		}
		a.setClipped(c[0], c[1], r, style)
	}
}

// drawCompound outlines the cells spanned by a package's members.
func (a *App) drawCompound(el scene.Element, els []scene.Element) {
	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	found := false
	for _, child := range els {
		if child.Parent != el.ID {
			continue
		}
		p, ok := a.scene.Position(child.ID)
		if !ok {
			continue
		}
		x, y := a.cellOf(p)
		width := min(len([]rune(child.Style.Label)), maxLabel) + 1
		minX, maxX = min(minX, x-1), max(maxX, x+width)
		minY, maxY = min(minY, y-1), max(maxY, y+1)
		found = true
	}
	if !found {
		return
	}

	style := styleCompound
	if a.scene.HasClass(el.ID, scene.ClassFaded) {
		style = style.Dim(true)
	}
	for x := minX; x <= maxX; x++ {
		a.setClipped(x, minY, '┄', style)
		a.setClipped(x, maxY, '┄', style)
	}
	for y := minY + 1; y < maxY; y++ {
		a.setClipped(minX, y, '┆', style)
		a.setClipped(maxX, y, '┆', style)
	}
	a.drawClipped(minX+1, minY, " "+truncate(el.Data.Label, maxLabel)+" ", style)
}

// line returns the cells from (x0,y0) to (x1,y1), at most limit of them.
func line(x0, y0, x1, y1, limit int) [][2]int {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	var pts [][2]int
	for len(pts) < limit {
		pts = append(pts, [2]int{x0, y0})
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
	return pts
}

func arrowHead(x, y, tx, ty int) rune {
	dx, dy := tx-x, ty-y
	if abs(dx) >= abs(dy) {
		if dx > 0 {
			return '>'
		}
		return '<'
	}
	if dy > 0 {
		return 'v'
	}
	return '^'
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (a *App) setClipped(x, y int, r rune, style tcell.Style) {
	if a.inCanvas(x, y) {
		a.screen.SetContent(x, y, r, nil, style)
	}
}

func (a *App) drawClipped(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		a.setClipped(x+i, y, r, style)
	}
}

func (a *App) drawMinimap() {
	ox, oy := a.minimapOrigin()
	if ox < 1 || oy < 1 {
		return
	}
	opts := a.mini.Options()
	bg := tcell.StyleDefault.Background(tcellColor(opts.Background))
	a.drawBox(ox-1, oy-1, minimapCols, minimapRows, bg)
	a.drawString(ox, oy-1, " map ", styleSidebarH)

	f := a.mini.Frame()
	cols, rows := minimapCols-2, minimapRows-2
	if f.Empty {
		return
	}
	for _, d := range f.Dots {
		cx, cy := int(d.At.X/cellW), int(d.At.Y/cellH)
		if cx < 0 || cx >= cols || cy < 0 || cy >= rows {
			continue
		}
		style := bg.Foreground(tcellColor(d.Color))
		if d.Opacity < 0.5 {
			style = style.Dim(true)
		}
		a.screen.SetContent(ox+cx, oy+cy, '•', nil, style)
	}

	vp := f.Viewport
	x0 := int(math.Floor(vp.MinX / cellW))
	y0 := int(math.Floor(vp.MinY / cellH))
	x1 := int(math.Floor(vp.MaxX / cellW))
	y1 := int(math.Floor(vp.MaxY / cellH))
	vstyle := bg.Foreground(tcellColor(opts.ViewportColor))
	put := func(x, y int, r rune) {
		if x >= 0 && x < cols && y >= 0 && y < rows {
			a.screen.SetContent(ox+x, oy+y, r, nil, vstyle)
		}
	}
	for x := x0 + 1; x < x1; x++ {
		put(x, y0, '─')
		put(x, y1, '─')
	}
	for y := y0 + 1; y < y1; y++ {
		put(x0, y, '│')
		put(x1, y, '│')
	}
	put(x0, y0, '┌')
	put(x1, y0, '┐')
	put(x0, y1, '└')
	put(x1, y1, '┘')
}

func (a *App) drawSidebar(w, h int) {
	x := a.canvasW + 2
	y := 0
	width := w - x - 1
	if width < 4 {
		return
	}
	put := func(s string, style tcell.Style) {
		if y < h-2 {
			a.drawString(x, y, truncate(s, width), style)
		}
		y++
	}

	title := "codemap"
	if a.graphPath != "" {
		title = filepath.Base(a.graphPath)
	}
	put(title, styleSidebarH)

	els := a.scene.Elements()
	nodes, edges := 0, 0
	for _, el := range els {
		switch {
		case el.IsEdge():
			edges++
		case !el.Data.Compound:
			nodes++
		}
	}
	put(fmt.Sprintf("%d nodes, %d edges", nodes, edges), styleSubtle)
	y++

	opts := a.view.Options()
	put("Layout:", styleSidebarH)
	busy := ""
	if a.layoutBusy() {
		busy = " …"
	}
	put(fmt.Sprintf("  %s (%s)%s", a.view.Algorithm(), a.quality, busy), styleSidebar)
	put(fmt.Sprintf("  sizing %s, cluster %s", opts.Sizing, onOff(opts.Cluster)), styleSidebar)
	y++

	put("Show:", styleSidebarH)
	f := a.view.Filter()
	for i, t := range graph.NodeTypes {
		mark := "x"
		if f.NodeTypes != nil && !f.NodeTypes[t] {
			mark = " "
		}
		put(fmt.Sprintf("  %d [%s] %s", i+1, mark, t), styleSidebar)
	}
	y++

	sync := a.view.Synchronizer()
	if q := sync.Query(); q.Active() {
		st := sync.SearchState()
		put("Search:", styleSidebarH)
		pos := "-"
		if st.Len() > 0 {
			pos = fmt.Sprintf("%d/%d", st.Cursor()+1, st.Len())
		}
		put(fmt.Sprintf("  %q %s", q.String(), pos), styleSidebar)
		y++
	}

	id := sync.Selected()
	if id == "" {
		id = a.hovered
	}
	el, ok := a.scene.Element(id)
	if !ok {
		return
	}
	put("Node:", styleSidebarH)
	put("  "+el.Data.Label, styleSidebar.Bold(true))
	put("  "+el.Data.Kind, styleSubtle)
	for _, kv := range [][2]string{
		{"fqn", el.Data.FQN},
		{"package", el.Data.Package},
		{"category", el.Data.Category},
		{"modifiers", strings.Join(el.Data.Modifiers, " ")},
		{"annotations", strings.Join(el.Data.Annotations, " ")},
	} {
		if kv[1] != "" {
			put(fmt.Sprintf("  %s: %s", kv[0], kv[1]), styleSidebar)
		}
	}

	nav := a.view.Navigator()
	if out := nav.ConnectedNodeIDs(id, view.Outgoing); len(out) > 0 {
		put("  → "+strings.Join(out, ", "), styleSidebar)
	}
	if in := nav.ConnectedNodeIDs(id, view.Incoming); len(in) > 0 {
		put("  ← "+strings.Join(in, ", "), styleSidebar)
	}
}

func (a *App) drawStatusBar(w, h int) {
	y := h - 1

	for x := 0; x < w; x++ {
		a.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	fileInfo := "[no graph]"
	if a.graphPath != "" {
		fileInfo = a.graphPath
		if len(fileInfo) > 30 {
			fileInfo = filepath.Base(fileInfo)
		}
	}
	a.drawString(1, y, fileInfo, styleStatus)

	modeStr := a.modeString()
	a.drawString(w/2-len(modeStr)/2, y, modeStr, styleStatus)

	if a.message != "" {
		style := styleMsgInfo
		switch a.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		case MsgWarning:
			style = styleMsgWarning
		}
		if shouldFlash(a.messageType) && flashInverted(time.Now().UnixMilli()-a.messageStart) {
			style = style.Reverse(true)
		}
		msg := truncate(a.message, w/2)
		a.drawString(w-len([]rune(msg))-2, y, msg, style)
	}

	y = h - 2
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	a.drawString(1, y, a.helpString(), styleHelp)
}

// flashInverted reports whether a flashing message is drawn inverted
// elapsed milliseconds after it appeared: normal, inverted, normal,
// inverted, then normal for good.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= flashPeriodMs {
		return false
	}
	phase := elapsed / flashPhaseMs
	return phase == 1 || phase == 3
}

// shouldFlash reports whether messages of type t flash.
func shouldFlash(t MessageType) bool {
	return t != MsgInfo
}

func (a *App) drawInputBox(w, h int, prompt string) {
	boxW := 50
	boxH := 3
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	a.drawBox(boxX, boxY, boxW, boxH, styleInput)
	a.drawString(boxX+2, boxY+1, prompt, styleInput)
	a.drawString(boxX+2+len(prompt), boxY+1, truncate(a.input, boxW-len(prompt)-5)+"_", styleInput)
}

var helpLines = []string{
	"Arrows     pan",
	"+ / -      zoom",
	"f          fit graph",
	"Tab        select next node",
	"Enter      centre on selection",
	"Esc        clear selection and search",
	"/          search (@Annot, type:kind, public, text)",
	"n / N      next / previous match",
	"l          cycle layout algorithm",
	"p          cycle layout quality",
	"s          cycle node sizing",
	"c          toggle package clusters",
	"1-5        toggle node types",
	"m          toggle minimap",
	"e          export PNG, SVG or DOT",
	"r          reload graph",
	"q          quit",
}

func (a *App) drawHelp(w, h int) {
	boxW := 58
	boxH := len(helpLines) + 4
	x := (w - boxW) / 2
	y := (h - boxH) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	a.drawBox(x, y, boxW, boxH, styleDefault)
	a.drawString(x+2, y, " keys ", styleSidebarH)
	for i, l := range helpLines {
		a.drawString(x+2, y+2+i, l, styleSidebar)
	}
}

func (a *App) drawBox(x, y, w, h int, style tcell.Style) {
	a.screen.SetContent(x, y, '┌', nil, styleBorder)
	a.screen.SetContent(x+w-1, y, '┐', nil, styleBorder)
	a.screen.SetContent(x, y+h-1, '└', nil, styleBorder)
	a.screen.SetContent(x+w-1, y+h-1, '┘', nil, styleBorder)

	for i := x + 1; i < x+w-1; i++ {
		a.screen.SetContent(i, y, '─', nil, styleBorder)
		a.screen.SetContent(i, y+h-1, '─', nil, styleBorder)
	}
	for i := y + 1; i < y+h-1; i++ {
		a.screen.SetContent(x, i, '│', nil, styleBorder)
		a.screen.SetContent(x+w-1, i, '│', nil, styleBorder)
	}

	for row := y + 1; row < y+h-1; row++ {
		for col := x + 1; col < x+w-1; col++ {
			a.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (a *App) drawString(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		a.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (a *App) modeString() string {
	switch a.mode {
	case ModeSearch:
		return "SEARCH"
	case ModeExport:
		return "EXPORT"
	case ModeHelp:
		return "HELP"
	}
	if a.mini.Dragging() {
		return "PAN"
	}
	return ""
}

func (a *App) helpString() string {
	switch a.mode {
	case ModeSearch:
		return "Type query  Enter:Keep  Esc:Cancel"
	case ModeExport:
		return "Type path (.png .svg .dot)  Enter:Export  Esc:Cancel"
	case ModeHelp:
		return "Any key:Close"
	}
	return "Arrows:Pan  +/-:Zoom  Tab:Select  /:Search  n/N:Match  l:Layout  e:Export  ?:Help  q:Quit"
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
