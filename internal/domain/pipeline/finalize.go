package pipeline

import (
	"strings"

	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// finalize assembles cover, paginated agenda and content slides and runs the
// final validation. Any error left is a hard failure.
func (r *run) finalize(content []slide.Slide) (slide.Spec, []validation.Issue, error) {
	start := r.p.now()
	title := strings.TrimSpace(r.in.Draft.Title)
	if title == "" {
		title = slide.DefaultProfileTitle
	}

	deck := []slide.Slide{{
		Type:       slide.TypeTitle,
		Title:      title,
		LayoutHint: slide.LayoutHero,
		Tone:       r.p.cfg.Tone,
	}}
	if items := agendaItems(content); len(items) >= 2 {
		deck = append(deck, slide.PaginateAgenda(slide.Slide{
			Type:       slide.TypeAgenda,
			Title:      slide.DefaultAgendaTitle,
			LayoutHint: slide.LayoutAgenda,
			Items:      items,
		})...)
	}
	for _, s := range content {
		s = s.Clone()
		if strings.TrimSpace(s.Notes) == "" {
			s.Notes = notesFor(s, r.in.Index)
		}
		deck = append(deck, s)
	}

	spec := slide.Spec{PresentationTitle: title, Slides: deck}
	res := r.validate(spec, StageFinalize)
	if !res.OK {
		r.finish(StageFinalize, start, 1,
			NewStageError(StageFinalize, ErrCodeUnresolved, "final validation failed", SeverityFatal))
		return slide.Spec{}, nil, newFailure("final validation failed", res.Errors(), r.p.cfg.TopIssueCodes)
	}
	r.finish(StageFinalize, start, 1, nil)

	var warnings []validation.Issue
	for _, is := range res.Issues {
		if is.Severity == validation.SeverityWarning {
			warnings = append(warnings, is)
		}
	}
	return spec, warnings, nil
}

// agendaItems lists content slide titles once each, in order.
func agendaItems(content []slide.Slide) []string {
	var items []string
	seen := map[string]bool{}
	for _, s := range content {
		t := strings.TrimSpace(s.Title)
		if t == "" || seen[t] || strings.HasSuffix(t, slide.ContinuationSuffix) {
			continue
		}
		seen[t] = true
		items = append(items, t)
	}
	return items
}
