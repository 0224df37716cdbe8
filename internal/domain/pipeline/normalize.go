package pipeline

import (
	"strings"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/outline"
	"github.com/janhq/deck-server/internal/domain/slide"
)

// planFromDraft is the planner fallback: one section per draft section.
func planFromDraft(d outline.Draft) []PlanSection {
	out := make([]PlanSection, 0, len(d.Sections))
	for _, sec := range d.Sections {
		t := slide.TypeText
		if len(sec.Images) > 0 {
			t = slide.TypeSplitImage
		}
		out = append(out, PlanSection{
			ID:         sec.ID,
			Title:      sec.Title,
			Goal:       sec.Goal,
			SlideType:  t,
			SourceKeys: sec.SourceKeys(),
			Images:     append([]string(nil), sec.Images...),
		})
	}
	return out
}

// sanitizePlan drops unusable sections and unknown fact paths from a model plan.
func sanitizePlan(in []PlanSection, idx *facts.Index, allowed []string, max int) []PlanSection {
	var out []PlanSection
	for _, sec := range in {
		sec.Title = strings.TrimSpace(sec.Title)
		if sec.Title == "" {
			continue
		}
		if !sec.SlideType.Valid() || sec.SlideType == slide.TypeTitle || sec.SlideType == slide.TypeAgenda {
			sec.SlideType = slide.TypeText
		}
		if !sec.LayoutHint.Valid() {
			sec.LayoutHint = slide.LayoutAuto
		}
		sec.SourceKeys = resolvable(sec.SourceKeys, idx)
		sec.Images = onlyAllowed(sec.Images, allowed)
		out = append(out, sec)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// storyboardFromDraft is the storyboard fallback: a fact-backed slide per
// draft section, built without any model call.
func storyboardFromDraft(d outline.Draft) []slide.Slide {
	out := make([]slide.Slide, 0, len(d.Sections))
	for _, sec := range d.Sections {
		s := slide.Slide{
			Type:       slide.TypeText,
			Title:      sec.Title,
			Density:    slide.DensityMedium,
			Tone:       slide.ToneNeutral,
			LayoutHint: slide.LayoutAuto,
			Bullets:    cloneBullets(sec.Bullets),
		}
		if len(sec.Images) > 0 {
			s.Type = slide.TypeSplitImage
			s.LayoutHint = slide.LayoutSplitImage
			s.Images = append([]string(nil), sec.Images...)
			if len(s.Images) > slide.MaxImagesPerSlide {
				s.Images = s.Images[:slide.MaxImagesPerSlide]
			}
		}
		if max := slide.DefaultMaxBullets; len(s.Bullets) > max {
			s.Bullets = s.Bullets[:max]
		}
		out = append(out, s)
	}
	return out
}

// normalizeSlides validates model slides at the boundary: cover and agenda
// slides are dropped, enumerations coerced, payloads that do not match the
// type cleared and source keys canonicalized.
func normalizeSlides(in []slide.Slide, idx *facts.Index) []slide.Slide {
	out := make([]slide.Slide, 0, len(in))
	for _, s := range in {
		if s.Type == slide.TypeTitle || s.Type == slide.TypeAgenda {
			continue
		}
		s = s.Clone()
		if !s.Type.Valid() {
			s.Type = slide.TypeText
		}
		if !s.LayoutHint.Valid() {
			s.LayoutHint = slide.LayoutAuto
		}
		if !s.Tone.Valid() {
			s.Tone = ""
		}
		if !s.Density.Valid() {
			s.Density = ""
		}
		s.Title = strings.TrimSpace(s.Title)
		s.KeyMessage = strings.TrimSpace(s.KeyMessage)
		s.KeyMessageSourceKeys = canonical(s.KeyMessageSourceKeys, idx)

		bullets := s.Bullets[:0]
		for _, b := range s.Bullets {
			b.Text = strings.TrimSpace(b.Text)
			if b.Text == "" {
				continue
			}
			b.SourceKeys = canonical(b.SourceKeys, idx)
			if b.IsInsight() && !strings.HasPrefix(b.Text, slide.InsightMarker) {
				b.Text = slide.InsightMarker + b.Text
			}
			bullets = append(bullets, b)
		}
		s.Bullets = bullets
		for i := range s.Emphasis.Numbers {
			s.Emphasis.Numbers[i].SourceKeys = canonical(s.Emphasis.Numbers[i].SourceKeys, idx)
		}

		clearForeignPayload(&s)
		switch s.Type {
		case slide.TypeCards:
			for i := range s.Cards {
				s.Cards[i].SourceKeys = canonical(s.Cards[i].SourceKeys, idx)
			}
		case slide.TypeTimeline:
			for i := range s.Events {
				s.Events[i].SourceKeys = canonical(s.Events[i].SourceKeys, idx)
			}
		case slide.TypeBigNumber:
			if s.BigNumber != nil {
				s.BigNumber.SourceKeys = canonical(s.BigNumber.SourceKeys, idx)
			}
		case slide.TypeQuote:
			if s.Quote != nil {
				s.Quote.SourceKeys = canonical(s.Quote.SourceKeys, idx)
			}
		case slide.TypeProfile:
			if s.Profile != nil {
				s.Profile.SourceKeys = canonical(s.Profile.SourceKeys, idx)
			}
		}
		out = append(out, s)
	}
	return out
}

// clearForeignPayload drops variant payloads that do not belong to the type.
func clearForeignPayload(s *slide.Slide) {
	if s.Type != slide.TypeAgenda {
		s.Items = nil
	}
	if s.Type != slide.TypeCards {
		s.Cards = nil
	}
	if s.Type != slide.TypeProfile {
		s.Profile = nil
	}
	if s.Type != slide.TypeBigNumber {
		s.BigNumber = nil
	}
	if s.Type != slide.TypeTimeline {
		s.Events = nil
	}
	if s.Type != slide.TypeQuote {
		s.Quote = nil
	}
}

// canonical maps alias keys to their canonical path and de-duplicates.
// Unknown keys are kept for the fact validator to report.
func canonical(keys []string, idx *facts.Index) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if c, ok := idx.Canonical(k); ok {
			k = c
		}
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// resolvable keeps only keys that exist in the index, in canonical form.
func resolvable(keys []string, idx *facts.Index) []string {
	var out []string
	seen := map[string]bool{}
	for _, k := range keys {
		c, ok := idx.Canonical(strings.TrimSpace(k))
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func onlyAllowed(images, allowed []string) []string {
	var out []string
	for _, img := range images {
		for _, a := range allowed {
			if img == a {
				out = append(out, img)
				break
			}
		}
	}
	return out
}

func cloneBullets(in []slide.Bullet) []slide.Bullet {
	out := make([]slide.Bullet, len(in))
	for i, b := range in {
		b.SourceKeys = append([]string(nil), b.SourceKeys...)
		out[i] = b
	}
	return out
}

// notesFor lists the resolvable fact paths a slide draws on.
func notesFor(s slide.Slide, idx *facts.Index) string {
	keys := resolvable(s.AllSourceKeys(), idx)
	if len(keys) == 0 {
		return ""
	}
	return "Sources: " + strings.Join(keys, "; ")
}
