package pipeline

import (
	"context"
	"strings"

	"github.com/janhq/deck-server/internal/domain/icons"
	"github.com/janhq/deck-server/internal/domain/slide"
)

// planner asks for per-section goals. The draft's own sections are the
// fallback.
func (r *run) planner(ctx context.Context) []PlanSection {
	start := r.p.now()
	data := r.baseData()
	data.Draft = toJSON(r.in.Draft.Sections)
	data.SlideTypes = contentTypes()
	data.Schema = schemaFor("plan")

	var out PlannerOutput
	serr := r.call(ctx, StagePlanner, "planner", data, false, &out)
	var sections []PlanSection
	if serr == nil {
		sections = sanitizePlan(out.Sections, r.in.Index, r.in.Draft.Images, r.p.cfg.MaxSections)
		if len(sections) == 0 {
			serr = NewStageError(StagePlanner, ErrCodeEmptyOutput, "plan has no usable sections", SeverityFallback)
		}
	}
	if serr != nil {
		sections = planFromDraft(r.in.Draft)
	}
	r.finish(StagePlanner, start, attempted(serr), serr)
	return sections
}

// storyboard writes the first complete slide list. On failure the slides are
// built directly from the draft.
func (r *run) storyboard(ctx context.Context, plan []PlanSection) []slide.Slide {
	start := r.p.now()
	data := r.baseData()
	data.Plan = toJSON(plan)
	data.Images = imageList(r.in.Draft.Images)
	data.Schema = schemaFor("slides")

	var out SlidesOutput
	serr := r.call(ctx, StageStoryboard, "storyboard", data, false, &out)
	var slides []slide.Slide
	if serr == nil {
		slides = normalizeSlides(out.Slides, r.in.Index)
		for i := range slides {
			slides[i].Images = onlyAllowed(slides[i].Images, r.in.Draft.Images)
			fitVariant(&slides[i])
		}
		if len(slides) == 0 {
			serr = NewStageError(StageStoryboard, ErrCodeEmptyOutput, "storyboard returned no content slides", SeverityFallback)
		}
	}
	if serr != nil {
		slides = storyboardFromDraft(r.in.Draft)
	}
	r.finish(StageStoryboard, start, attempted(serr), serr)
	return slides
}

// polish rewrites wording only. The second attempt uses the stricter system
// prompt and a lower temperature; if both fail the input is kept.
func (r *run) polish(ctx context.Context, slides []slide.Slide) []slide.Slide {
	start := r.p.now()
	data := r.baseData()
	data.Slides = toJSON(slides)
	data.SlideCount = len(slides)
	data.Schema = schemaFor("slides")

	var (
		serr     *StageError
		failed   *StageError
		attempts int
	)
	for attempt := 0; attempt < 2; attempt++ {
		var out SlidesOutput
		serr = r.call(ctx, StagePolish, "polish", data, attempt > 0, &out)
		if serr != nil && serr.Severity == SeveritySkippable {
			break
		}
		attempts++
		if serr == nil && len(out.Slides) != len(slides) {
			serr = NewStageError(StagePolish, ErrCodeEmptyOutput, "polish changed the slide count", SeverityFallback)
		}
		if serr != nil {
			failed = serr
			continue
		}
		polished := mergePolish(slides, out.Slides)
		r.finish(StagePolish, start, attempts, nil)
		return polished
	}
	if failed != nil {
		r.flags.PolishFailed = true
		serr = failed
	}
	r.finish(StagePolish, start, attempts, serr)
	return slides
}

// icons assigns catalog icons. It cannot fail.
func (r *run) icons(slides []slide.Slide) []slide.Slide {
	start := r.p.now()
	spec := icons.Assign(slide.Spec{Slides: slides})
	r.finish(StageIcons, start, 1, nil)
	return spec.Slides
}

// mergePolish takes the polished wording and nothing else: types, order,
// citations, images and payload shape stay those of orig.
func mergePolish(orig, polished []slide.Slide) []slide.Slide {
	out := make([]slide.Slide, len(orig))
	for i, o := range orig {
		s := o.Clone()
		p := polished[i]
		if t := strings.TrimSpace(p.Title); t != "" {
			s.Title = t
		}
		if km := strings.TrimSpace(p.KeyMessage); km != "" && s.KeyMessage != "" {
			s.KeyMessage = km
		}
		if st := strings.TrimSpace(p.Subtitle); st != "" && s.Subtitle != "" {
			s.Subtitle = st
		}
		if len(p.Bullets) == len(s.Bullets) {
			for j := range s.Bullets {
				text := strings.TrimSpace(p.Bullets[j].Text)
				if text == "" {
					continue
				}
				if s.Bullets[j].IsInsight() && !strings.HasPrefix(text, slide.InsightMarker) {
					text = slide.InsightMarker + text
				}
				s.Bullets[j].Text = text
			}
		}
		if s.Type == slide.TypeCards && len(p.Cards) == len(s.Cards) {
			for j := range s.Cards {
				if t := strings.TrimSpace(p.Cards[j].Title); t != "" {
					s.Cards[j].Title = t
				}
				if t := strings.TrimSpace(p.Cards[j].Text); t != "" {
					s.Cards[j].Text = t
				}
			}
		}
		if s.Type == slide.TypeTimeline && len(p.Events) == len(s.Events) {
			for j := range s.Events {
				if t := strings.TrimSpace(p.Events[j].Text); t != "" {
					s.Events[j].Text = t
				}
			}
		}
		out[i] = s
	}
	return out
}

func attempted(serr *StageError) int {
	if serr != nil && serr.Severity == SeveritySkippable {
		return 0
	}
	return 1
}

func contentTypes() string {
	var names []string
	for _, t := range slide.Types {
		if t == slide.TypeTitle || t == slide.TypeAgenda {
			continue
		}
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func imageList(images []string) string {
	if len(images) == 0 {
		return "(none)"
	}
	return "- " + strings.Join(images, "\n- ")
}
