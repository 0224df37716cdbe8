package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/theme"
)

// fontLevels is the number of steps between each role's max and min size.
const fontLevels = 5

// Violation reasons.
const (
	ReasonOutOfBounds  = "out_of_bounds"
	ReasonTooManyLines = "too_many_lines"
	ReasonOverflow     = "overflow"
	ReasonUnplannable  = "unplannable"
)

// Violation is one geometric problem found in a plan.
type Violation struct {
	Box    string `json:"box"`
	Reason string `json:"reason"`
}

// Engine plans slides on one theme.
type Engine struct {
	theme    theme.Theme
	measurer Measurer
}

// NewEngine returns an engine measuring with m, or with a heuristic measurer
// derived from the theme when m is nil.
func NewEngine(t theme.Theme, m Measurer) *Engine {
	if m == nil {
		m = HeuristicMeasurer{CharWidth: t.CharWidth}
	}
	return &Engine{theme: t, measurer: m}
}

// Theme returns the theme the engine plans on.
func (e *Engine) Theme() theme.Theme {
	return e.theme
}

var allowedLayouts = map[slide.Type][]slide.LayoutHint{
	slide.TypeTitle:      {slide.LayoutHero},
	slide.TypeSection:    {slide.LayoutHero, slide.LayoutText},
	slide.TypeAgenda:     {slide.LayoutAgenda, slide.LayoutText},
	slide.TypeCards:      {slide.LayoutCards, slide.LayoutText},
	slide.TypeSummary:    {slide.LayoutText, slide.LayoutCards, slide.LayoutSplitImage, slide.LayoutImageTop},
	slide.TypeText:       {slide.LayoutText, slide.LayoutCards, slide.LayoutSplitImage, slide.LayoutImageTop},
	slide.TypeProfile:    {slide.LayoutProfile, slide.LayoutText},
	slide.TypeSplitImage: {slide.LayoutSplitImage, slide.LayoutImageTop, slide.LayoutText},
	slide.TypeBigNumber:  {slide.LayoutBigNumber, slide.LayoutText},
	slide.TypeTimeline:   {slide.LayoutTimeline, slide.LayoutText},
	slide.TypeQuote:      {slide.LayoutQuote, slide.LayoutText},
}

// InitialLayout is the slide's layout hint when it suits the slide type and
// the type's default archetype otherwise.
func InitialLayout(s slide.Slide) slide.LayoutHint {
	allowed, ok := allowedLayouts[s.Type]
	if !ok {
		return slide.LayoutText
	}
	for _, h := range allowed {
		if h == s.LayoutHint {
			return h
		}
	}
	return allowed[0]
}

// NextLayout is the fallback after h, or "" when h is the end of its chain.
func NextLayout(h slide.LayoutHint) slide.LayoutHint {
	switch h {
	case slide.LayoutSplitImage:
		return slide.LayoutImageTop
	case slide.LayoutText:
		return ""
	default:
		return slide.LayoutText
	}
}

func (e *Engine) sizesAt(level int) map[string]float64 {
	frac := float64(level) / float64(fontLevels-1)
	at := func(r theme.Range) float64 {
		return r.Max - (r.Max-r.Min)*frac
	}
	f := e.theme.Fonts
	return map[string]float64{
		RoleTitle:     at(f.Title),
		RoleSubtitle:  at(f.Subtitle),
		RoleBody:      at(f.Body),
		RoleCaption:   at(f.Caption),
		RoleBigNumber: at(f.BigNumber),
		RoleQuote:     at(f.Quote),
	}
}

func (e *Engine) frame(sizes map[string]float64, m Measurer) frame {
	if m == nil {
		m = e.measurer
	}
	return frame{t: e.theme, sizes: sizes, m: m}
}

// tryLayout plans s with layout h at a font level. It reports false when the
// archetype cannot hold the slide at all.
func (e *Engine) tryLayout(s slide.Slide, h slide.LayoutHint, level int) (Plan, bool) {
	p, ok := planners[h]
	if !ok {
		return Plan{}, false
	}
	f := e.frame(e.sizesAt(level), nil)
	boxes, blocks, ok := p(f, s)
	if !ok {
		return Plan{}, false
	}
	return Plan{
		ChosenLayout: h,
		Boxes:        boxes,
		Sizes:        f.sizes,
		Fits:         len(f.violations(boxes, blocks)) == 0,
	}, true
}

// fitChain walks the fallback chain from start, shrinking fonts within each
// layout, and returns the first plan that fits.
func (e *Engine) fitChain(s slide.Slide, start slide.LayoutHint) (Plan, bool) {
	for h := start; h != ""; h = NextLayout(h) {
		for level := 0; level < fontLevels; level++ {
			p, ok := e.tryLayout(s, h, level)
			if !ok {
				break
			}
			if !p.Fits {
				continue
			}
			switch {
			case h != start:
				p.Strategy = StrategySwitch
			case level > 0:
				p.Strategy = StrategyShrink
			default:
				p.Strategy = StrategyNone
			}
			return p, true
		}
	}
	return Plan{}, false
}

// PlanSlide lays out one slide, degrading in strict order: shrink fonts,
// switch layout along the fallback chain, then split the slide into balanced
// chunks. forced overrides the starting layout when non-empty. When nothing
// fits the result is a single plan with Fits false.
func (e *Engine) PlanSlide(s slide.Slide, forced slide.LayoutHint) []PlannedSlide {
	start := forced
	if start == "" {
		start = InitialLayout(s)
	}

	if p, ok := e.fitChain(s, start); ok {
		return []PlannedSlide{{Slide: s, Plan: p}}
	}
	if parts := e.trySplit(s, start); parts != nil {
		return parts
	}

	for h := start; h != ""; h = NextLayout(h) {
		if p, ok := e.tryLayout(s, h, fontLevels-1); ok {
			p.Strategy = StrategyOverflow
			p.Fits = false
			return []PlannedSlide{{Slide: s, Plan: p}}
		}
	}
	return []PlannedSlide{{Slide: s, Plan: Plan{ChosenLayout: start, Strategy: StrategyOverflow}}}
}

func (e *Engine) trySplit(s slide.Slide, start slide.LayoutHint) []PlannedSlide {
	n := s.ChunkLen()
	if n < 2 {
		return nil
	}
	maxPer := s.Constraints.Normalized().MaxBulletsPerSlide
	k := int(math.Ceil(float64(n) / float64(maxPer)))
	if k < 2 {
		k = 2
	}
	for ; k <= n; k++ {
		parts := s.Split(k)
		out := make([]PlannedSlide, 0, len(parts))
		for _, part := range parts {
			p, ok := e.fitChain(part, start)
			if !ok {
				break
			}
			p.Strategy = StrategySplit
			out = append(out, PlannedSlide{Slide: part, Plan: p})
		}
		if len(out) == len(parts) {
			return out
		}
	}
	return nil
}

// Check re-measures a plan with m and reports every violation. Boxes are taken
// from the plan; the text that must fit them is rebuilt from the slide.
func (e *Engine) Check(ps PlannedSlide, m Measurer) []Violation {
	p, ok := planners[ps.Plan.ChosenLayout]
	if !ok || len(ps.Plan.Sizes) == 0 {
		return []Violation{{Reason: ReasonUnplannable}}
	}
	f := e.frame(ps.Plan.Sizes, m)
	_, blocks, ok := p(f, ps.Slide)
	if !ok {
		return []Violation{{Reason: ReasonUnplannable}}
	}
	return f.violations(ps.Plan.Boxes, blocks)
}

func (f frame) violations(boxes map[string]Box, blocks []textBlock) []Violation {
	var out []Violation
	names := make([]string, 0, len(boxes))
	for name := range boxes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !boxes[name].Within(f.t.Canvas.Width, f.t.Canvas.Height) {
			out = append(out, Violation{Box: name, Reason: ReasonOutOfBounds})
		}
	}

	for _, b := range blocks {
		box, ok := boxes[b.box]
		if !ok {
			continue
		}
		lines, height := f.measure(b, box.W)
		if b.maxLines > 0 && lines > b.maxLines {
			out = append(out, Violation{Box: b.box, Reason: ReasonTooManyLines})
			continue
		}
		if height > box.H-b.padTop-b.padBottom+epsilon {
			out = append(out, Violation{Box: b.box, Reason: ReasonOverflow})
		}
	}
	return out
}

// measure returns the wrapped line count and height of a block laid into a
// box of the given width.
func (f frame) measure(b textBlock, boxW float64) (int, float64) {
	width := boxW - 2*b.padX - b.indent
	lh := f.lh(b.role)
	lines, paras := 0, 0
	for _, t := range b.texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if width <= 0 {
			return math.MaxInt32, math.Inf(1)
		}
		n := f.m.Lines(t, f.sizes[b.role], width)
		if n >= math.MaxInt32-lines {
			return math.MaxInt32, math.Inf(1)
		}
		lines += n
		paras++
	}
	if paras == 0 {
		return 0, 0
	}
	return lines, float64(lines)*lh + float64(paras-1)*b.gap*lh
}
