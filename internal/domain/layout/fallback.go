package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/domain/slide"
)

// MaxPasses bounds the verify-and-replan loop before safe plans are used.
const MaxPasses = 3

// Result is a planned deck with a summary of how it was reached.
type Result struct {
	Slides []PlannedSlide `json:"slides"`
	// Passes is the number of verification passes that ran.
	Passes int `json:"passes"`
	// Replanned counts slides rebuilt with a forced layout.
	Replanned int `json:"replanned"`
	// Safe counts source slides that ended on the text-only safe plan.
	Safe int `json:"safe"`
}

// Strategies counts the final plans by strategy.
func (r Result) Strategies() map[Strategy]int {
	out := map[Strategy]int{}
	for _, ps := range r.Slides {
		out[ps.Plan.Strategy]++
	}
	return out
}

// PlanDeck paginates agendas, plans every slide, then verifies each plan with
// verify (the engine's own measurer when nil). Failing slides are replanned
// from scratch with the next fallback layout forced, up to MaxPasses times,
// and anything still failing gets a text-only safe plan.
func (e *Engine) PlanDeck(slides []slide.Slide, verify Measurer) Result {
	if verify == nil {
		verify = e.measurer
	}
	slides = slide.PaginateAgendas(slides)

	planned := make([][]PlannedSlide, len(slides))
	forced := map[int]slide.LayoutHint{}
	dirty := make([]int, len(slides))
	for i := range slides {
		dirty[i] = i
	}

	res := Result{}
	for pass := 1; pass <= MaxPasses && len(dirty) > 0; pass++ {
		res.Passes = pass
		for _, i := range dirty {
			planned[i] = e.PlanSlide(slides[i], forced[i])
			for j := range planned[i] {
				planned[i][j].SourceIndex = i
			}
		}

		var failing []int
		for _, i := range dirty {
			if !e.verified(planned[i], verify) {
				failing = append(failing, i)
			}
		}
		dirty = failing
		if pass == MaxPasses {
			break
		}
		for _, i := range dirty {
			cur, ok := forced[i]
			if !ok {
				cur = planned[i][0].Plan.ChosenLayout
			}
			next := NextLayout(cur)
			if next == "" {
				next = slide.LayoutText
			}
			forced[i] = next
			res.Replanned++
		}
	}

	for _, i := range dirty {
		planned[i] = e.SafePlan(slides[i], verify)
		for j := range planned[i] {
			planned[i][j].SourceIndex = i
		}
		res.Safe++
	}

	for _, ps := range planned {
		res.Slides = append(res.Slides, ps...)
	}
	return res
}

func (e *Engine) verified(parts []PlannedSlide, m Measurer) bool {
	for _, ps := range parts {
		if !ps.Plan.Fits || len(e.Check(ps, m)) > 0 {
			return false
		}
	}
	return true
}

// SafePlan renders the slide as plain text at minimum sizes. The title and
// key message are truncated to their line limits, bullets flow onto
// continuation slides, and a bullet too long for an empty body is truncated.
// Every resulting plan fits when measured with m.
func (e *Engine) SafePlan(s slide.Slide, m Measurer) []PlannedSlide {
	if m == nil {
		m = e.measurer
	}
	f := e.frame(e.sizesAt(fontLevels-1), m)
	w := e.theme.ContentWidth()

	base := slide.Slide{
		Type:                 slide.TypeText,
		Title:                truncateLines(f, s.Title, RoleTitle, w, e.theme.MaxTitleLines),
		KeyMessage:           truncateLines(f, s.KeyMessage, RoleSubtitle, w, maxKeyLines),
		KeyMessageSourceKeys: s.KeyMessageSourceKeys,
		Density:              s.Density,
		Tone:                 s.Tone,
		LayoutHint:           slide.LayoutText,
		Constraints:          s.Constraints,
		Notes:                s.Notes,
	}
	contTitle := truncateLines(f, slide.ContinuationTitle(s.Title), RoleTitle, w, e.theme.MaxTitleLines)

	var pages []slide.Slide
	cur := base.Clone()
	bodyFor := func(sl slide.Slide) Box {
		boxes := map[string]Box{}
		var blocks []textBlock
		return f.body(f.header(sl, boxes, &blocks))
	}
	body := bodyFor(cur)
	lh := f.lh(RoleBody)
	width := body.W - BulletIndent

	used, lines := 0.0, 0
	for _, b := range s.AsBullets() {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		n := f.m.Lines(text, f.sizes[RoleBody], width)
		h := float64(n) * lh
		if lines > 0 {
			h += ParagraphGap * lh
		}
		if used+h > body.H+epsilon && lines > 0 {
			pages = append(pages, cur)
			cur = base.Clone()
			cur.Title = contTitle
			cur.KeyMessage = ""
			cur.KeyMessageSourceKeys = nil
			body = bodyFor(cur)
			used, lines = 0, 0
			h = float64(n) * lh
		}
		if h > body.H+epsilon {
			maxLines := int((body.H + epsilon) / lh)
			if maxLines < 1 {
				continue
			}
			text = truncateLines(f, text, RoleBody, width, maxLines)
			if text == "" {
				continue
			}
			n = f.m.Lines(text, f.sizes[RoleBody], width)
			h = float64(n) * lh
		}
		b.Text = text
		cur.Bullets = append(cur.Bullets, b)
		used += h
		lines += n
	}
	pages = append(pages, cur)

	out := make([]PlannedSlide, 0, len(pages))
	for _, pg := range pages {
		boxes, blocks, _ := planText(f, pg)
		out = append(out, PlannedSlide{
			Slide: pg,
			Plan: Plan{
				ChosenLayout: slide.LayoutText,
				Boxes:        boxes,
				Sizes:        f.sizes,
				Strategy:     StrategySafe,
				Fits:         len(f.violations(boxes, blocks)) == 0,
			},
		})
	}
	return out
}

// truncateLines shortens text with an ellipsis until it wraps into at most
// max lines.
func truncateLines(f frame, text, role string, width float64, max int) string {
	text = strings.TrimSpace(text)
	if text == "" || f.lines(text, role, width) <= max {
		return text
	}
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lines(candidate(runes, mid), role, width) <= max {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return ""
	}
	return candidate(runes, lo)
}

func candidate(runes []rune, n int) string {
	s := strings.TrimRight(string(runes[:n]), " ,;:-")
	if utf8.RuneCountInString(s) == 0 {
		return ""
	}
	return s + "…"
}
