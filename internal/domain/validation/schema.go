package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/domain/slide"
)

var (
	reJSONish     = regexp.MustCompile(`^\s*[\[{].*[\]}]\s*$`)
	reQuotedKey   = regexp.MustCompile(`"[^"]+"\s*:`)
	reSnakeKey    = regexp.MustCompile(`^\s*[a-z0-9]+(?:_[a-z0-9]+)+\s*[:=]`)
	reKeyValue    = regexp.MustCompile(`[\p{L}][\p{L}\p{N} _/]{0,30}\s*[:=]\s*\S`)
	reKVSplitter  = regexp.MustCompile(`[,;\n|]`)
	// digit:digit reads as a version, ratio or time ("ISO 9001:2015", "16:9").
	reNumericPair = regexp.MustCompile(`(\p{N})\s*[:=]\s*(\p{N})`)
)

// weakLeads are openers that make a bullet read like filler.
var weakLeads = []string{
	"there is", "there are", "it is", "this is", "we are", "we have", "very", "really",
	"various", "things", "stuff", "basically", "some", "etc",
}

// LooksStructured reports whether text reads like raw key:value or JSON data
// instead of prose.
func LooksStructured(text string) bool {
	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), slide.InsightMarker))
	if t == "" {
		return false
	}
	if reJSONish.MatchString(t) && strings.Contains(t, ":") {
		return true
	}
	if reQuotedKey.MatchString(t) || reSnakeKey.MatchString(t) {
		return true
	}
	pairs := 0
	for _, part := range reKVSplitter.Split(reNumericPair.ReplaceAllString(t, "$1.$2"), -1) {
		if reKeyValue.MatchString(strings.TrimSpace(part)) && !strings.Contains(part, "://") {
			pairs++
		}
	}
	return pairs >= 2
}

// WeakLead reports whether an English bullet opens with a filler phrase.
func WeakLead(text string) bool {
	t := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(text, slide.InsightMarker)))
	for _, lead := range weakLeads {
		if t == lead || strings.HasPrefix(t, lead+" ") || strings.HasPrefix(t, lead+",") {
			return true
		}
	}
	return false
}

// Schema checks structural shape and readability rules.
func Schema(spec slide.Spec, vctx Context) Result {
	var issues []Issue
	if len(spec.Slides) == 0 {
		issues = append(issues, Issue{
			SlideIndex: -1, Code: CodeEmptySpec, Message: "deck has no slides", Severity: SeverityError,
		})
	}
	if strings.TrimSpace(spec.PresentationTitle) == "" {
		issues = append(issues, Issue{
			SlideIndex: -1, Code: CodeMissingPresentation, Message: "presentation title is empty", Severity: SeverityError,
		})
	}
	for i, s := range spec.Slides {
		issues = append(issues, schemaSlide(i, s, vctx)...)
	}
	return NewResult(issues)
}

func schemaSlide(i int, s slide.Slide, vctx Context) []Issue {
	var issues []Issue
	add := func(code Code, path, msg string, sev Severity) {
		issues = append(issues, Issue{SlideIndex: i, Code: code, Message: msg, Path: path, Severity: sev})
	}

	if !s.Type.Valid() {
		add(CodeInvalidSlideType, "type", fmt.Sprintf("unknown slide type %q", s.Type), SeverityError)
	}
	if !s.LayoutHint.Valid() {
		add(CodeInvalidLayoutHint, "layoutHint", fmt.Sprintf("unknown layout hint %q", s.LayoutHint), SeverityError)
	}
	if !s.Tone.Valid() {
		add(CodeInvalidTone, "tone", fmt.Sprintf("unknown tone %q", s.Tone), SeverityError)
	}
	if !s.Density.Valid() {
		add(CodeInvalidDensity, "density", fmt.Sprintf("unknown density %q", s.Density), SeverityError)
	}
	if strings.TrimSpace(s.Title) == "" {
		add(CodeMissingTitle, "title", "slide title is empty", SeverityError)
	}

	if km := strings.TrimSpace(s.KeyMessage); km != "" {
		if n := SentenceCount(km); n > 1 {
			add(CodeMultiSentence, "keyMessage", fmt.Sprintf("key message has %d sentences", n), SeverityError)
		}
		if LooksStructured(km) {
			add(CodeRawStructuredText, "keyMessage", "key message looks like raw data", SeverityError)
		}
	}

	c := s.Constraints.Normalized()
	if len(s.Bullets) > c.MaxBulletsPerSlide {
		add(CodeTooManyBullets, "bullets",
			fmt.Sprintf("%d bullets exceeds limit of %d", len(s.Bullets), c.MaxBulletsPerSlide), SeverityError)
	}
	for j, b := range s.Bullets {
		path := fmt.Sprintf("bullets[%d]", j)
		text := strings.TrimSpace(b.Text)
		if text == "" {
			add(CodeEmptyBullet, path, "bullet is empty", SeverityError)
			continue
		}
		if n := utf8.RuneCountInString(text); n > c.MaxCharsPerBullet {
			add(CodeBulletTooLong, path,
				fmt.Sprintf("bullet has %d characters, limit is %d", n, c.MaxCharsPerBullet), SeverityError)
		}
		if LooksStructured(text) {
			add(CodeRawStructuredText, path, "bullet looks like raw data", SeverityError)
		}
		if b.IsInsight() && !strings.HasPrefix(text, slide.InsightMarker) {
			add(CodeInsightNotMarked, path, fmt.Sprintf("insight bullet must start with %q", slide.InsightMarker), SeverityError)
		}
		if startsLatin(text) && WeakLead(text) {
			add(CodeWeakBulletLead, path, "bullet opens with a filler phrase", SeverityWarning)
		}
	}

	if len(s.Images) > slide.MaxImagesPerSlide {
		add(CodeTooManyImages, "images",
			fmt.Sprintf("%d images exceeds limit of %d", len(s.Images), slide.MaxImagesPerSlide), SeverityError)
	}
	for j, img := range s.Images {
		if !vctx.imageAllowed(img) {
			add(CodeImageNotAllowed, fmt.Sprintf("images[%d]", j), "image is not a source-derived URL", SeverityError)
		}
	}

	for _, is := range variantIssues(s, c) {
		add(is.Code, is.Path, is.Message, SeverityError)
	}
	return issues
}

func variantIssues(s slide.Slide, c slide.Constraints) []Issue {
	missing := func(path, what string) []Issue {
		return []Issue{{Code: CodeMissingContent, Path: path, Message: fmt.Sprintf("%s slide needs %s", s.Type, what)}}
	}
	switch s.Type {
	case slide.TypeAgenda:
		if len(s.Items) == 0 {
			return missing("items", "at least one item")
		}
		if len(s.Items) > slide.MaxAgendaItemsPage {
			return []Issue{{Code: CodeTooManyAgendaItems, Path: "items",
				Message: fmt.Sprintf("%d agenda items exceeds %d per page", len(s.Items), slide.MaxAgendaItemsPage)}}
		}
	case slide.TypeCards:
		if len(s.Cards) == 0 && len(s.Bullets) == 0 {
			return missing("cards", "cards or bullets")
		}
		if len(s.Cards) > c.MaxBulletsPerSlide {
			return []Issue{{Code: CodeTooManyBullets, Path: "cards",
				Message: fmt.Sprintf("%d cards exceeds limit of %d", len(s.Cards), c.MaxBulletsPerSlide)}}
		}
	case slide.TypeProfile:
		if s.Profile == nil || strings.TrimSpace(s.Profile.Name) == "" {
			return missing("profile", "a profile name")
		}
	case slide.TypeSplitImage:
		if len(s.Images) == 0 {
			return missing("images", "an image")
		}
	case slide.TypeBigNumber:
		if s.BigNumber == nil || strings.TrimSpace(s.BigNumber.Value) == "" {
			return missing("bigNumber", "a value")
		}
	case slide.TypeTimeline:
		if len(s.Events) == 0 {
			return missing("events", "at least one event")
		}
		if len(s.Events) > c.MaxBulletsPerSlide {
			return []Issue{{Code: CodeTooManyBullets, Path: "events",
				Message: fmt.Sprintf("%d events exceeds limit of %d", len(s.Events), c.MaxBulletsPerSlide)}}
		}
	case slide.TypeQuote:
		if s.Quote == nil || strings.TrimSpace(s.Quote.Text) == "" {
			return missing("quote", "quote text")
		}
	case slide.TypeSummary, slide.TypeText:
		if len(s.Bullets) == 0 && strings.TrimSpace(s.KeyMessage) == "" {
			return missing("bullets", "bullets or a key message")
		}
	}
	return nil
}

func startsLatin(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}
