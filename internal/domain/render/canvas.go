// Package render draws planned slides onto a Canvas. It never measures or
// moves anything: every element lands in the box the layout engine computed,
// at the size it was measured with.
package render

import (
	"io"

	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/theme"
)

// Color is an RGB triple.
type Color struct {
	R, G, B int
}

// Hex parses a "#rrggbb" theme color.
func Hex(s string) Color {
	r, g, b := theme.RGB(s)
	return Color{R: r, G: g, B: b}
}

// Align is horizontal text alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// TextStyle describes how a block of paragraphs is drawn.
type TextStyle struct {
	Size       float64 // points
	LineHeight float64 // multiple of Size
	Color      Color
	Bold       bool
	Italic     bool
	Align      Align
	// Indent is reserved left of every paragraph; markers are drawn in it.
	Indent float64
	// PadX and PadTop inset the text inside its box, in inches.
	PadX   float64
	PadTop float64
	// ParagraphGap separates paragraphs, as a fraction of a line.
	ParagraphGap float64
	// MaxLines truncates each paragraph when positive.
	MaxLines int
}

// Paragraph is one wrapped paragraph with an optional marker such as a bullet
// or an ordinal.
type Paragraph struct {
	Marker string
	Text   string
	Bold   bool
}

// Canvas is a page-oriented drawing surface measured in inches. Methods other
// than Image and Close record failures internally and report them from Close.
type Canvas interface {
	AddSlide(background Color)
	Rect(b layout.Box, fill Color)
	Text(b layout.Box, paras []Paragraph, st TextStyle)
	Image(b layout.Box, img Image) error
	// Notes attaches speaker notes to the current slide.
	Notes(text string)
	Close(w io.Writer) error
}

// Plain wraps each string as an unmarked paragraph.
func Plain(texts ...string) []Paragraph {
	out := make([]Paragraph, 0, len(texts))
	for _, t := range texts {
		if t == "" {
			continue
		}
		out = append(out, Paragraph{Text: t})
	}
	return out
}
