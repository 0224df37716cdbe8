package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// critic runs the validate and repair loop. Rounds with fact errors call
// fact repair and then deterministically delete whatever is still
// unsupported; other rounds ask for critic patches. Patches are applied to
// failing slides only.
func (r *run) critic(ctx context.Context, slides []slide.Slide) ([]slide.Slide, validation.Result) {
	res := r.validate(r.content(slides), StageCritic)
	if res.OK {
		r.skip(StageCritic, "no validation errors")
		return slides, res
	}

	start := r.p.now()
	var (
		last     *StageError
		attempts int
	)
	for round := 0; round < r.p.cfg.MaxCriticRounds && !res.OK; round++ {
		failing := res.FailingSlides()
		if len(failing) == 0 {
			break
		}
		r.flags.CriticRounds++

		data := r.baseData()
		data.Slides = indexed(slides, failing)
		data.Issues = issueList(res.Issues)
		data.Schema = schemaFor("patches")

		var out PatchesOutput
		if res.HasFactErrors() {
			serr := r.call(ctx, StageCritic, "fact_repair", data, false, &out)
			attempts += attempted(serr)
			if serr != nil {
				last = serr
			} else {
				var n int
				slides, n = r.applyPatches(slides, out.Patches, failing, true)
				r.flags.PatchedSlides += n
			}
			slides = r.pruneFailing(slides, failing)
		} else {
			serr := r.call(ctx, StageCritic, "critic", data, false, &out)
			attempts += attempted(serr)
			if serr != nil {
				last = serr
				break
			}
			var n int
			slides, n = r.applyPatches(slides, out.Patches, failing, false)
			r.flags.PatchedSlides += n
		}
		res = r.validate(r.content(slides), StageCritic)
	}

	switch {
	case res.OK:
		r.finish(StageCritic, start, attempts, nil)
	case last != nil:
		r.finish(StageCritic, start, attempts, last)
	default:
		r.finish(StageCritic, start, attempts,
			NewStageError(StageCritic, ErrCodeUnresolved, "issues remain after repair", SeverityFallback))
	}
	return slides, res
}

// applyPatches replaces failing slides with acceptable patches. Fact repair
// patches may not cite any path the original slide did not cite.
func (r *run) applyPatches(slides []slide.Slide, patches []Patch, failing []int, factRepair bool) ([]slide.Slide, int) {
	target := map[int]bool{}
	for _, i := range failing {
		target[i] = true
	}
	out := append([]slide.Slide(nil), slides...)
	applied := 0
	for _, p := range patches {
		if !target[p.Index] || p.Index >= len(out) {
			continue
		}
		norm := normalizeSlides([]slide.Slide{p.Slide}, r.in.Index)
		if len(norm) == 0 {
			continue
		}
		patched := norm[0]
		if !r.acceptable(slides[p.Index], patched, factRepair) {
			r.p.log.Debug().Int("slide", p.Index).Bool("fact_repair", factRepair).Msg("patch rejected")
			continue
		}
		patched.Images = onlyAllowed(patched.Images, r.in.Draft.Images)
		fitVariant(&patched)
		if patched.Notes == "" {
			patched.Notes = slides[p.Index].Notes
		}
		out[p.Index] = patched
		delete(target, p.Index)
		applied++
	}
	return out, applied
}

func (r *run) acceptable(orig, patched slide.Slide, factRepair bool) bool {
	if strings.TrimSpace(patched.Title) == "" {
		return false
	}
	cited := map[string]bool{}
	for _, k := range orig.AllSourceKeys() {
		cited[k] = true
	}
	for _, k := range patched.AllSourceKeys() {
		if !r.in.Index.Has(k) {
			return false
		}
		if factRepair && !cited[k] {
			return false
		}
	}
	return true
}

func (r *run) pruneFailing(slides []slide.Slide, failing []int) []slide.Slide {
	out := append([]slide.Slide(nil), slides...)
	for _, i := range failing {
		if i < len(out) {
			out[i] = r.prune(out[i], r.in.Strict)
		}
	}
	return out
}

// prune deletes unsupported content: entries whose citations all fail to
// resolve, entries with numbers their cited facts do not contain and, when
// requireKeys is set, traced entries without citations. Nothing is rewritten
// or re-cited.
func (r *run) prune(s slide.Slide, requireKeys bool) slide.Slide {
	s = s.Clone()
	idx := r.in.Index

	keep := func(text string, keys []string) ([]string, bool) {
		valid := resolvable(keys, idx)
		if len(keys) > 0 && len(valid) == 0 {
			return nil, false
		}
		if len(valid) == 0 && requireKeys {
			return nil, false
		}
		return valid, r.backed(text, valid)
	}

	if s.KeyMessage != "" {
		keys, ok := keep(s.KeyMessage, s.KeyMessageSourceKeys)
		if ok || (len(s.KeyMessageSourceKeys) == 0 && r.backed(s.KeyMessage, nil)) {
			s.KeyMessageSourceKeys = keys
		} else {
			s.KeyMessage, s.KeyMessageSourceKeys = "", nil
		}
	}

	bullets := s.Bullets[:0]
	for _, b := range s.Bullets {
		keys, ok := keep(b.Text, b.SourceKeys)
		if !ok {
			continue
		}
		b.SourceKeys = keys
		bullets = append(bullets, b)
	}
	s.Bullets = bullets

	numbers := s.Emphasis.Numbers[:0]
	for _, n := range s.Emphasis.Numbers {
		keys, ok := keep(n.Value+" "+n.Label, n.SourceKeys)
		if !ok {
			continue
		}
		n.SourceKeys = keys
		numbers = append(numbers, n)
	}
	s.Emphasis.Numbers = numbers
	var phrases []string
	for _, p := range s.Emphasis.Phrases {
		if r.clean(p) {
			phrases = append(phrases, p)
		}
	}
	s.Emphasis.Phrases = phrases

	switch s.Type {
	case slide.TypeCards:
		cards := s.Cards[:0]
		for _, c := range s.Cards {
			keys, ok := keep(c.Title+" "+c.Text, c.SourceKeys)
			if !ok {
				continue
			}
			c.SourceKeys = keys
			cards = append(cards, c)
		}
		s.Cards = cards
	case slide.TypeTimeline:
		events := s.Events[:0]
		for _, e := range s.Events {
			keys, ok := keep(e.Label+" "+e.Text, e.SourceKeys)
			if !ok {
				continue
			}
			e.SourceKeys = keys
			events = append(events, e)
		}
		s.Events = events
	case slide.TypeBigNumber:
		if b := s.BigNumber; b != nil {
			if keys, ok := keep(b.Value+" "+b.Label, b.SourceKeys); ok {
				b.SourceKeys = keys
			} else {
				s.BigNumber = nil
			}
		}
	case slide.TypeQuote:
		if q := s.Quote; q != nil {
			if keys, ok := keep(q.Text+" "+q.Attribution, q.SourceKeys); ok {
				q.SourceKeys = keys
			} else {
				s.Quote = nil
			}
		}
	case slide.TypeProfile:
		if p := s.Profile; p != nil {
			text := p.Name + " " + p.Role
			p.SourceKeys = resolvable(p.SourceKeys, idx)
			if (len(p.SourceKeys) == 0 && !r.clean(text)) || (len(p.SourceKeys) > 0 && !r.backed(text, p.SourceKeys)) {
				s.Profile = nil
			}
		}
	}

	s.Title = r.stripInvented(s.Title)
	s.Subtitle = r.stripInvented(s.Subtitle)
	if !r.clean(s.Notes) {
		s.Notes = ""
	}
	fitVariant(&s)
	return s
}

// backed reports whether every meaningful number in text is in the source
// numbers and in the text of one of the cited facts.
func (r *run) backed(text string, keys []string) bool {
	nums := facts.MeaningfulNumbers(text)
	if len(nums) == 0 {
		return true
	}
	var cited []*facts.Node
	for _, k := range keys {
		if n, ok := r.in.Index.Get(k); ok {
			cited = append(cited, n)
		}
	}
	for _, tok := range nums {
		if !r.vctx.ExtraNumbers.Has(tok) && !r.sourceNumbers().Has(tok) {
			return false
		}
		found := false
		for _, n := range cited {
			if strings.Contains(n.Text, tok) || facts.ContainsNumber(n.Text, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// clean reports whether text holds no number outside the source numbers.
func (r *run) clean(text string) bool {
	for _, tok := range facts.MeaningfulNumbers(text) {
		if !r.vctx.ExtraNumbers.Has(tok) && !r.sourceNumbers().Has(tok) {
			return false
		}
	}
	return true
}

func (r *run) stripInvented(text string) string {
	if r.clean(text) {
		return text
	}
	for _, tok := range facts.MeaningfulNumbers(text) {
		if !r.vctx.ExtraNumbers.Has(tok) && !r.sourceNumbers().Has(tok) {
			text = strings.Replace(text, tok, "", 1)
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

func (r *run) sourceNumbers() facts.NumberSet {
	if r.numbers == nil {
		r.numbers = r.in.Index.SourceNumbers()
	}
	return r.numbers
}

// safety is the last deterministic pass: every traced entry without
// citations is stripped, key messages are cut to one sentence and copy is
// brought within the caps. Issues that survive it fail the run.
func (r *run) safety(slides []slide.Slide, res validation.Result) ([]slide.Slide, error) {
	if res.OK {
		r.skip(StageSafety, "no validation errors")
		return slides, nil
	}
	start := r.p.now()
	r.flags.SafetyReduced = true

	out := make([]slide.Slide, 0, len(slides))
	for _, s := range slides {
		s = r.reduce(s)
		if !hasContent(s) {
			r.flags.DroppedSlides++
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		r.finish(StageSafety, start, 1,
			NewStageError(StageSafety, ErrCodeUnresolved, "no slides survived safety reduction", SeverityFatal))
		return nil, newFailure("no valid slides after safety reduction", res.Errors(), r.p.cfg.TopIssueCodes)
	}

	after := r.validate(r.content(out), StageSafety)
	if !after.OK {
		r.finish(StageSafety, start, 1,
			NewStageError(StageSafety, ErrCodeUnresolved, "issues remain after safety reduction", SeverityFatal))
		return nil, newFailure("validation issues remain after safety reduction", after.Errors(), r.p.cfg.TopIssueCodes)
	}
	r.finish(StageSafety, start, 1, nil)
	return out, nil
}

func (r *run) reduce(s slide.Slide) slide.Slide {
	s = r.prune(s, true)
	c := s.Constraints.Normalized()

	if s.KeyMessage != "" {
		km := validation.FirstSentence(s.KeyMessage)
		if validation.LooksStructured(km) || !r.backed(km, s.KeyMessageSourceKeys) {
			s.KeyMessage, s.KeyMessageSourceKeys = "", nil
		} else {
			s.KeyMessage = km
		}
	}

	bullets := s.Bullets[:0]
	for _, b := range s.Bullets {
		text := strings.TrimSpace(b.Text)
		if b.IsInsight() && !strings.HasPrefix(text, slide.InsightMarker) {
			text = slide.InsightMarker + text
		}
		text = shorten(text, c.MaxCharsPerBullet)
		if text == "" || validation.LooksStructured(text) || !r.backed(text, b.SourceKeys) {
			continue
		}
		b.Text = text
		bullets = append(bullets, b)
	}
	if len(bullets) > c.MaxBulletsPerSlide {
		bullets = bullets[:c.MaxBulletsPerSlide]
	}
	s.Bullets = bullets
	if len(s.Icons) > len(s.Bullets) && len(s.Bullets) > 0 {
		s.Icons = s.Icons[:len(s.Bullets)]
	}

	s.Images = onlyAllowed(s.Images, r.in.Draft.Images)
	if len(s.Images) > slide.MaxImagesPerSlide {
		s.Images = s.Images[:slide.MaxImagesPerSlide]
	}
	s.Items = nil
	fitVariant(&s)
	return s
}

// fitVariant turns a slide whose variant payload is missing into a text
// slide and caps list payloads.
func fitVariant(s *slide.Slide) {
	c := s.Constraints.Normalized()
	toText := func() {
		s.Type = slide.TypeText
		s.LayoutHint = slide.LayoutAuto
	}
	switch s.Type {
	case slide.TypeSplitImage:
		if len(s.Images) == 0 {
			toText()
		}
	case slide.TypeCards:
		if len(s.Cards) > c.MaxBulletsPerSlide {
			s.Cards = s.Cards[:c.MaxBulletsPerSlide]
		}
		if len(s.Cards) == 0 && len(s.Bullets) == 0 {
			toText()
		}
	case slide.TypeProfile:
		if s.Profile == nil || strings.TrimSpace(s.Profile.Name) == "" {
			toText()
		}
	case slide.TypeBigNumber:
		if s.BigNumber == nil || strings.TrimSpace(s.BigNumber.Value) == "" {
			toText()
		}
	case slide.TypeTimeline:
		if len(s.Events) > c.MaxBulletsPerSlide {
			s.Events = s.Events[:c.MaxBulletsPerSlide]
		}
		if len(s.Events) == 0 {
			toText()
		}
	case slide.TypeQuote:
		if s.Quote == nil || strings.TrimSpace(s.Quote.Text) == "" {
			toText()
		}
	}
	clearForeignPayload(s)
}

func hasContent(s slide.Slide) bool {
	if strings.TrimSpace(s.Title) == "" {
		return false
	}
	if s.Type == slide.TypeSection {
		return true
	}
	return len(s.AsBullets()) > 0 || strings.TrimSpace(s.KeyMessage) != ""
}

// shorten cuts text to max runes at a word boundary when one exists in the
// second half.
func shorten(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	cut = strings.TrimRight(cut, " ,;:")
	if utf8.RuneCountInString(cut) == 0 {
		return ""
	}
	return cut + "…"
}
