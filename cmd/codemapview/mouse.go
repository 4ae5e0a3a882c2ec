package main

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/codemap/pkg/geom"
)

// minimapOrigin is the top-left cell inside the minimap border.
func (a *App) minimapOrigin() (x, y int) {
	return a.canvasW - minimapCols + 1, a.canvasH - minimapRows + 1
}

// minimapPoint maps a screen cell to minimap pixels, at the cell centre.
func (a *App) minimapPoint(x, y int) (float64, float64) {
	ox, oy := a.minimapOrigin()
	return (float64(x-ox) + 0.5) * cellW, (float64(y-oy) + 0.5) * cellH
}

// canvasPoint maps a screen cell to scene canvas pixels.
func canvasPoint(x, y int) geom.Point {
	return geom.Point{X: (float64(x) + 0.5) * cellW, Y: (float64(y) + 0.5) * cellH}
}

func (a *App) inCanvas(x, y int) bool {
	return x >= 0 && x < a.canvasW && y >= 0 && y < a.canvasH
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	allReleased := buttons&(tcell.Button1|tcell.Button2|tcell.Button3) == 0
	pressed := buttons&tcell.Button1 != 0 && !a.leftMouseDown

	// A minimap drag follows the pointer anywhere and ends on release
	// anywhere.
	if a.mini.Dragging() {
		if allReleased {
			a.mini.Release()
			a.leftMouseDown = false
			return
		}
		a.mini.Drag(a.minimapPoint(x, y))
		return
	}
	if allReleased {
		a.leftMouseDown = false
	}

	switch {
	case buttons&tcell.WheelUp != 0 && a.inCanvas(x, y):
		a.scene.ZoomTo(a.scene.Camera().Zoom * zoomStep)
		return
	case buttons&tcell.WheelDown != 0 && a.inCanvas(x, y):
		a.scene.ZoomTo(a.scene.Camera().Zoom / zoomStep)
		return
	}

	if pressed {
		a.leftMouseDown = true
		if a.showMinimap {
			px, py := a.minimapPoint(x, y)
			if a.mini.Press(px, py) {
				return
			}
		}
		if a.inCanvas(x, y) {
			a.click(x, y)
		}
		return
	}

	if allReleased && a.inCanvas(x, y) {
		a.scene.Hover(canvasPoint(x, y))
	}
}

// click taps the scene, turning a second click on the same cell within
// the double-click window into a double tap.
func (a *App) click(x, y int) {
	now := time.Now().UnixMilli()
	p := canvasPoint(x, y)
	if now-a.lastClickTime < doubleClickMs && x == a.lastClickX && y == a.lastClickY {
		a.lastClickTime = 0
		a.scene.DoubleTap(p)
		return
	}
	a.lastClickTime, a.lastClickX, a.lastClickY = now, x, y
	a.scene.Tap(p)
}
