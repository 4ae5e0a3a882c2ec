package scene

import (
	"image/color"
	"strconv"
	"strings"
)

// State classes applied by the highlight and search synchronizer.
const (
	ClassHighlighted   = "highlighted"
	ClassFaded         = "faded"
	ClassSelected      = "selected"
	ClassSearchMatch   = "search-match"
	ClassSearchDimmed  = "search-dimmed"
	ClassSearchCurrent = "search-current"
)

// Override is the part of a Style a class may change. Zero fields are left
// untouched.
type Override struct {
	Color   string
	Border  string
	Opacity float64
	Scale   float64 // size multiplier
}

// Rule binds an override to a state class.
type Rule struct {
	Class    string
	Override Override
}

// Stylesheet is an ordered list of rules; later rules win.
type Stylesheet []Rule

// DefaultStylesheet returns the stylesheet used by the viewer and exporter.
func DefaultStylesheet() Stylesheet {
	return Stylesheet{
		{Class: ClassSearchDimmed, Override: Override{Opacity: 0.3}},
		{Class: ClassFaded, Override: Override{Opacity: 0.15}},
		{Class: ClassSearchMatch, Override: Override{Border: "#22c55e", Opacity: 1}},
		{Class: ClassSearchCurrent, Override: Override{Border: "#15803d", Scale: 1.25}},
		{Class: ClassHighlighted, Override: Override{Border: "#f59e0b", Opacity: 1}},
		{Class: ClassSelected, Override: Override{Border: "#ef4444", Scale: 1.2}},
	}
}

// Resolve applies every rule whose class is in classes to base.
func (s Stylesheet) Resolve(base Style, classes []string) Style {
	if base.Opacity == 0 {
		base.Opacity = 1
	}
	for _, rule := range s {
		if !hasString(classes, rule.Class) {
			continue
		}
		o := rule.Override
		if o.Color != "" {
			base.Color = o.Color
		}
		if o.Border != "" {
			base.Border = o.Border
		}
		if o.Opacity > 0 {
			base.Opacity = o.Opacity
		}
		if o.Scale > 0 {
			base.Size *= o.Scale
		}
	}
	return base
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// StyleOf returns the resolved style of el in the snapshot.
func (s Snapshot) StyleOf(el Element) Style {
	return s.Styles.Resolve(el.Style, s.Classes[el.ID])
}

// ParseColor converts "#rgb" or "#rrggbb" to a colour. Anything else yields
// mid grey.
func ParseColor(s string) color.RGBA {
	grey := color.RGBA{128, 128, 128, 255}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return grey
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// Fade blends c towards white by the complement of opacity.
func Fade(c color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1 {
		return c
	}
	if opacity < 0 {
		opacity = 0
	}
	mix := func(v uint8) uint8 {
		return uint8(float64(v)*opacity + 255*(1-opacity))
	}
	return color.RGBA{mix(c.R), mix(c.G), mix(c.B), 255}
}
