// Package layout computes inch-accurate element boxes for every slide on a
// fixed canvas, degrading font size, layout and slide count until content fits.
package layout

import (
	"math"
	"strings"
	"unicode"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
)

const epsilon = 1e-6

// Box is a rectangle in inches with its origin at the top-left of the canvas.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Within reports whether the box lies inside a width x height canvas.
func (b Box) Within(width, height float64) bool {
	return b.X >= -epsilon && b.Y >= -epsilon && b.W >= 0 && b.H >= 0 &&
		b.X+b.W <= width+epsilon && b.Y+b.H <= height+epsilon
}

// Strategy records how a plan was reached.
type Strategy string

const (
	StrategyNone     Strategy = "none"
	StrategyShrink   Strategy = "shrink"
	StrategySwitch   Strategy = "switch"
	StrategySplit    Strategy = "split"
	StrategySafe     Strategy = "safe"
	StrategyOverflow Strategy = "overflow"
)

// Plan is the computed geometry of one slide.
type Plan struct {
	ChosenLayout slide.LayoutHint   `json:"chosenLayout"`
	Boxes        map[string]Box     `json:"boxes"`
	Sizes        map[string]float64 `json:"sizes"`
	Strategy     Strategy           `json:"strategy"`
	Fits         bool               `json:"fits"`
}

// PlannedSlide is a slide with its layout. SourceIndex points at the slide
// it was planned from, which differs from its position after splits.
type PlannedSlide struct {
	Slide       slide.Slide `json:"slide"`
	Plan        Plan        `json:"plan"`
	SourceIndex int         `json:"sourceIndex"`
}

// Text roles, used as keys of Plan.Sizes.
const (
	RoleTitle     = "title"
	RoleSubtitle  = "subtitle"
	RoleBody      = "body"
	RoleCaption   = "caption"
	RoleBigNumber = "bigNumber"
	RoleQuote     = "quote"
)

// Measurer estimates how many wrapped lines text needs at size points in a
// box width inches wide.
type Measurer interface {
	Lines(text string, size, width float64) int
}

// HeuristicMeasurer wraps text greedily on a characters-per-line estimate
// derived from the font size and an average glyph width. Full-width CJK
// characters count double.
type HeuristicMeasurer struct {
	CharWidth float64
}

// Lines implements Measurer.
func (m HeuristicMeasurer) Lines(text string, size, width float64) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	cw := m.CharWidth
	if cw <= 0 {
		cw = 0.5
	}
	if size <= 0 || width <= 0 {
		return math.MaxInt32
	}
	capacity := width * 72 / (size * cw)
	if capacity < 1 {
		return math.MaxInt32
	}

	lines := 0
	for _, para := range strings.Split(text, "\n") {
		lines += wrapUnits(para, capacity)
	}
	return lines
}

type word struct {
	units float64
	wide  bool
}

func splitWords(text string) []word {
	var (
		out []word
		cur float64
	)
	flush := func() {
		if cur > 0 {
			out = append(out, word{units: cur})
			cur = 0
		}
	}
	for _, r := range text {
		switch {
		case facts.IsWide(r) || isWidePunct(r):
			flush()
			out = append(out, word{units: 2, wide: true})
		case unicode.IsSpace(r):
			flush()
		default:
			cur++
		}
	}
	flush()
	return out
}

func isWidePunct(r rune) bool {
	return r >= 0x3000 && r <= 0x303F || r >= 0xFF00 && r <= 0xFFEF
}

func wrapUnits(para string, capacity float64) int {
	words := splitWords(para)
	if len(words) == 0 {
		return 1
	}
	lines := 1
	used := 0.0
	prevWide := false
	for _, w := range words {
		u := w.units
		if used == 0 {
			for u > capacity {
				lines++
				u -= capacity
			}
			used = u
			prevWide = w.wide
			continue
		}
		sep := 1.0
		if w.wide || prevWide {
			sep = 0
		}
		if used+sep+u <= capacity {
			used += sep + u
		} else {
			lines++
			for u > capacity {
				lines++
				u -= capacity
			}
			used = u
		}
		prevWide = w.wide
	}
	return lines
}

// LineHeight converts a point size to the inches one line occupies.
func LineHeight(size, lineHeight float64) float64 {
	return size * lineHeight / 72
}
