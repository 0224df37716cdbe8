package deckpdf

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

const embeddedFamily = "deck"

var coreFamilies = map[string]string{
	"helvetica": "Helvetica",
	"arial":     "Arial",
	"times":     "Times",
	"courier":   "Courier",
}

// fontSet is the font a document draws and measures with.
type fontSet struct {
	family string
	// encode converts UTF-8 text into the encoding the font expects.
	encode func(string) string
}

// setupFonts registers the embedded TrueType font when one was loaded and
// otherwise selects a core font with the cp1252 translator. Core fonts cannot
// draw CJK text.
func setupFonts(pdf *fpdf.Fpdf, ttf []byte, family string) fontSet {
	if len(ttf) > 0 {
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8FontFromBytes(embeddedFamily, style, ttf)
		}
		return fontSet{family: embeddedFamily, encode: func(s string) string { return s }}
	}
	core, ok := coreFamilies[strings.ToLower(strings.TrimSpace(family))]
	if !ok {
		core = "Helvetica"
	}
	return fontSet{family: core, encode: pdf.UnicodeTranslatorFromDescriptor("")}
}

func fontStyle(bold, italic bool) string {
	switch {
	case bold && italic:
		return "BI"
	case bold:
		return "B"
	case italic:
		return "I"
	default:
		return ""
	}
}
