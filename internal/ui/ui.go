// Package ui formats codemap command output for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Palette
var (
	Brand  = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
	Match  = color.New(color.FgHiGreen, color.Bold)
)

// typeColors tints node types the way the viewer does.
var typeColors = map[string]*color.Color{
	"class":     color.New(color.FgBlue),
	"interface": color.New(color.FgMagenta),
	"endpoint":  color.New(color.FgHiYellow),
	"package":   color.New(color.FgWhite),
	"file":      color.New(color.FgCyan),
}

// SetColor forces colour on or off.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// Type returns the node type tinted by kind.
func Type(kind string) string {
	if c, ok := typeColors[kind]; ok {
		return c.Sprint(kind)
	}
	return kind
}

// Header prints a bold title line.
func Header(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n", Brand.Sprint(title))
}

// Table prints an aligned table. Width is measured before colouring, so
// cells must be plain text.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	fmt.Fprintln(w, Subtle.Sprint(strings.TrimRight(headerLine, " ")))
	fmt.Fprintln(w, Subtle.Sprint(strings.TrimRight(sepLine, " ")))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// StatusIcon returns a check or a cross.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// Count formats "n noun" with a naive plural.
func Count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
