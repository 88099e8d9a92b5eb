// Package palette maps named colour selections to RGB triples for the viewer.
package palette

import (
	"fmt"

	"github.com/femsolve/fcsbridge/internal/document"
)

// Selection is a named colour from the built-in palette.
type Selection int

const (
	Graphite Selection = iota
	Red
	Green
	Blue
	Gold
	Silver
	Copper
	Steel
)

var names = map[Selection]string{
	Graphite: "graphite",
	Red:      "red",
	Green:    "green",
	Blue:     "blue",
	Gold:     "gold",
	Silver:   "silver",
	Copper:   "copper",
	Steel:    "steel",
}

func (s Selection) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return "graphite"
}

var colours = map[Selection]document.Colour{
	Graphite: {R: 72, G: 72, B: 72},
	Red:      {R: 205, G: 36, B: 36},
	Green:    {R: 36, G: 160, B: 64},
	Blue:     {R: 42, G: 89, B: 196},
	Gold:     {R: 212, G: 175, B: 55},
	Silver:   {R: 192, G: 192, B: 192},
	Copper:   {R: 184, G: 115, B: 51},
	Steel:    {R: 113, G: 121, B: 126},
}

// Parse resolves a palette colour by name.
func Parse(name string) (Selection, error) {
	for sel, n := range names {
		if n == name {
			return sel, nil
		}
	}
	return Graphite, fmt.Errorf("unknown palette colour %q", name)
}

// Colour returns the RGB triple for a selection. Unknown selections fall
// back to graphite rather than failing, so a stale selection value still
// renders something sensible.
func Colour(s Selection) document.Colour {
	if c, ok := colours[s]; ok {
		return c
	}
	return colours[Graphite]
}

// Specific builds a colour from free integer channels, clamping each to
// the 0-255 range the viewer accepts.
func Specific(r, g, b int) document.Colour {
	return document.Colour{R: clamp(r), G: clamp(g), B: clamp(b)}
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
