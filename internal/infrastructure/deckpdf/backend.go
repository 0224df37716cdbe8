// Package deckpdf renders decks to PDF with fpdf.
package deckpdf

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-pdf/fpdf"

	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/render"
	"github.com/janhq/deck-server/internal/domain/theme"
)

// Backend implements deck.Backend.
type Backend struct {
	ttf []byte
}

// NewBackend loads the optional TrueType font at fontPath. Without it the
// theme's core PDF font is used.
func NewBackend(fontPath string) (*Backend, error) {
	if fontPath == "" {
		return &Backend{}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return &Backend{ttf: data}, nil
}

// NewCanvas starts an empty document sized to the theme canvas.
func (b *Backend) NewCanvas(t theme.Theme) (render.Canvas, error) {
	c := newCanvas(t, b.ttf)
	if err := c.pdf.Error(); err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return c, nil
}

// Measurer wraps text with the same font metrics the canvas draws with.
func (b *Backend) Measurer(t theme.Theme) layout.Measurer {
	pdf := newDocument(t)
	return &Measurer{pdf: pdf, fonts: setupFonts(pdf, b.ttf, t.FontFamily)}
}

// ContentType is the MIME type of the output.
func (b *Backend) ContentType() string { return "application/pdf" }

// Extension is the file extension of the output.
func (b *Backend) Extension() string { return ".pdf" }

// Measurer implements layout.Measurer with fpdf string widths.
type Measurer struct {
	mu    sync.Mutex
	pdf   *fpdf.Fpdf
	fonts fontSet
}

// Lines implements layout.Measurer.
func (m *Measurer) Lines(text string, size, width float64) int {
	if size <= 0 || width <= 0 {
		return 1 << 30
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// titles are drawn bold; bold is the wider cut
	m.pdf.SetFont(m.fonts.family, "B", size)
	return len(wrap(text, width, func(s string) float64 {
		return m.pdf.GetStringWidth(m.fonts.encode(s))
	}, m.pdf.SplitText))
}
