// Package slide defines the deck description passed between generation,
// validation, layout and rendering.
package slide

import (
	"encoding/json"
	"strings"
)

// Type discriminates the slide variants.
type Type string

const (
	TypeTitle      Type = "title"
	TypeSection    Type = "section"
	TypeSummary    Type = "summary"
	TypeAgenda     Type = "agenda"
	TypeCards      Type = "cards"
	TypeProfile    Type = "profile"
	TypeSplitImage Type = "split-image"
	TypeBigNumber  Type = "bigNumber"
	TypeTimeline   Type = "timeline"
	TypeQuote      Type = "quote"
	TypeText       Type = "text"
)

// Types lists every supported slide type.
var Types = []Type{
	TypeTitle, TypeSection, TypeSummary, TypeAgenda, TypeCards, TypeProfile,
	TypeSplitImage, TypeBigNumber, TypeTimeline, TypeQuote, TypeText,
}

// Valid reports whether t is a known slide type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Density is the intended amount of content on a slide.
type Density string

const (
	DensityLow    Density = "low"
	DensityMedium Density = "medium"
	DensityHigh   Density = "high"
)

// Valid reports whether d is empty or a known density.
func (d Density) Valid() bool {
	switch d {
	case "", DensityLow, DensityMedium, DensityHigh:
		return true
	}
	return false
}

// Tone is the copy register requested for a slide.
type Tone string

const (
	ToneNeutral    Tone = "neutral"
	ToneConfident  Tone = "confident"
	ToneFormal     Tone = "formal"
	ToneFriendly   Tone = "friendly"
	TonePersuasive Tone = "persuasive"
)

// Valid reports whether t is empty or a known tone.
func (t Tone) Valid() bool {
	switch t {
	case "", ToneNeutral, ToneConfident, ToneFormal, ToneFriendly, TonePersuasive:
		return true
	}
	return false
}

// LayoutHint names a layout archetype a slide would prefer.
type LayoutHint string

const (
	LayoutAuto       LayoutHint = "auto"
	LayoutHero       LayoutHint = "hero"
	LayoutAgenda     LayoutHint = "agenda"
	LayoutSplitImage LayoutHint = "split-image"
	LayoutImageTop   LayoutHint = "image-top"
	LayoutCards      LayoutHint = "cards"
	LayoutProfile    LayoutHint = "profile"
	LayoutBigNumber  LayoutHint = "big-number"
	LayoutTimeline   LayoutHint = "timeline"
	LayoutQuote      LayoutHint = "quote"
	LayoutText       LayoutHint = "text"
)

// Valid reports whether h is empty or a known layout.
func (h LayoutHint) Valid() bool {
	switch h {
	case "", LayoutAuto, LayoutHero, LayoutAgenda, LayoutSplitImage, LayoutImageTop, LayoutCards,
		LayoutProfile, LayoutBigNumber, LayoutTimeline, LayoutQuote, LayoutText:
		return true
	}
	return false
}

// BulletKind separates fact-backed bullets from disclosed interpretation.
type BulletKind string

const (
	KindFact    BulletKind = "fact"
	KindInsight BulletKind = "insight"
)

// InsightMarker prefixes every insight bullet so readers can tell it apart
// from sourced facts.
const InsightMarker = "Insight: "

// Bullet is one line of body copy.
type Bullet struct {
	Text       string     `json:"text"`
	SourceKeys []string   `json:"sourceKeys,omitempty"`
	Kind       BulletKind `json:"kind,omitempty"`
}

// UnmarshalJSON also accepts a bare string, which models emit often enough.
func (b *Bullet) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*b = Bullet{Text: text}
		return nil
	}
	type alias Bullet
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = Bullet(a)
	return nil
}

// IsInsight reports whether the bullet is interpretation rather than fact.
func (b Bullet) IsInsight() bool {
	return b.Kind == KindInsight
}

// EmphasisNumber is a highlighted figure.
type EmphasisNumber struct {
	Value      string   `json:"value"`
	Label      string   `json:"label,omitempty"`
	SourceKeys []string `json:"sourceKeys,omitempty"`
}

// Emphasis lists phrases and figures the renderer should highlight.
type Emphasis struct {
	Phrases []string         `json:"phrases,omitempty"`
	Numbers []EmphasisNumber `json:"numbers,omitempty"`
}

// ImagePlan describes how a slide intends to use imagery.
type ImagePlan struct {
	Mode string `json:"mode,omitempty"` // none | inline | hero
	Note string `json:"note,omitempty"`
}

// Constraints caps the body copy of a slide.
type Constraints struct {
	MaxBulletsPerSlide int `json:"maxBulletsPerSlide,omitempty"`
	MaxCharsPerBullet  int `json:"maxCharsPerBullet,omitempty"`
}

const (
	DefaultMaxBullets   = 6
	DefaultMaxChars     = 120
	MaxImagesPerSlide   = 2
	MaxAgendaItemsPage  = 8
	ContinuationSuffix  = " (cont.)"
	DefaultAgendaTitle  = "Agenda"
	DefaultProfileTitle = "Company Profile"
)

// Normalized fills zero caps with defaults.
func (c Constraints) Normalized() Constraints {
	if c.MaxBulletsPerSlide <= 0 {
		c.MaxBulletsPerSlide = DefaultMaxBullets
	}
	if c.MaxCharsPerBullet <= 0 {
		c.MaxCharsPerBullet = DefaultMaxChars
	}
	return c
}

// Card is one tile of a cards slide.
type Card struct {
	Title      string   `json:"title"`
	Text       string   `json:"text,omitempty"`
	SourceKeys []string `json:"sourceKeys,omitempty"`
	Icon       string   `json:"icon,omitempty"`
}

// Profile is the subject block of a profile slide.
type Profile struct {
	Name       string   `json:"name"`
	Role       string   `json:"role,omitempty"`
	Image      string   `json:"image,omitempty"`
	SourceKeys []string `json:"sourceKeys,omitempty"`
}

// BigNumber is the hero figure of a bigNumber slide.
type BigNumber struct {
	Value      string   `json:"value"`
	Label      string   `json:"label,omitempty"`
	SourceKeys []string `json:"sourceKeys,omitempty"`
}

// Event is one entry on a timeline.
type Event struct {
	Label      string   `json:"label"`
	Text       string   `json:"text"`
	SourceKeys []string `json:"sourceKeys,omitempty"`
}

// Quote is the pull quote of a quote slide.
type Quote struct {
	Text        string   `json:"text"`
	Attribution string   `json:"attribution,omitempty"`
	SourceKeys  []string `json:"sourceKeys,omitempty"`
}

// Slide is a closed tagged union discriminated by Type. Only the payload
// matching Type is meaningful; the rest is ignored downstream.
type Slide struct {
	Type                 Type        `json:"type"`
	Title                string      `json:"title"`
	Subtitle             string      `json:"subtitle,omitempty"`
	KeyMessage           string      `json:"keyMessage,omitempty"`
	KeyMessageSourceKeys []string    `json:"keyMessageSourceKeys,omitempty"`
	Density              Density     `json:"density,omitempty"`
	Tone                 Tone        `json:"tone,omitempty"`
	LayoutHint           LayoutHint  `json:"layoutHint,omitempty"`
	Bullets              []Bullet    `json:"bullets,omitempty"`
	Emphasis             Emphasis    `json:"emphasis,omitempty"`
	ImagePlan            *ImagePlan  `json:"imagePlan,omitempty"`
	Icons                []string    `json:"icons,omitempty"`
	Images               []string    `json:"images,omitempty"`
	Constraints          Constraints `json:"constraints,omitempty"`
	Notes                string      `json:"notes,omitempty"`

	Items     []string   `json:"items,omitempty"`
	Cards     []Card     `json:"cards,omitempty"`
	Profile   *Profile   `json:"profile,omitempty"`
	BigNumber *BigNumber `json:"bigNumber,omitempty"`
	Events    []Event    `json:"events,omitempty"`
	Quote     *Quote     `json:"quote,omitempty"`
}

// Spec is the full deck description.
type Spec struct {
	PresentationTitle string  `json:"presentationTitle"`
	Slides            []Slide `json:"slides"`
}

// Clone returns a deep copy so stages can return new values without
// aliasing their input.
func (s Spec) Clone() Spec {
	out := Spec{PresentationTitle: s.PresentationTitle, Slides: make([]Slide, len(s.Slides))}
	for i, sl := range s.Slides {
		out.Slides[i] = sl.Clone()
	}
	return out
}

// Clone returns a deep copy of the slide.
func (s Slide) Clone() Slide {
	out := s
	out.KeyMessageSourceKeys = cloneStrings(s.KeyMessageSourceKeys)
	out.Icons = cloneStrings(s.Icons)
	out.Images = cloneStrings(s.Images)
	out.Items = cloneStrings(s.Items)
	out.Emphasis.Phrases = cloneStrings(s.Emphasis.Phrases)
	if s.Emphasis.Numbers != nil {
		out.Emphasis.Numbers = make([]EmphasisNumber, len(s.Emphasis.Numbers))
		for i, n := range s.Emphasis.Numbers {
			n.SourceKeys = cloneStrings(n.SourceKeys)
			out.Emphasis.Numbers[i] = n
		}
	}
	if s.Bullets != nil {
		out.Bullets = make([]Bullet, len(s.Bullets))
		for i, b := range s.Bullets {
			b.SourceKeys = cloneStrings(b.SourceKeys)
			out.Bullets[i] = b
		}
	}
	if s.Cards != nil {
		out.Cards = make([]Card, len(s.Cards))
		for i, c := range s.Cards {
			c.SourceKeys = cloneStrings(c.SourceKeys)
			out.Cards[i] = c
		}
	}
	if s.Events != nil {
		out.Events = make([]Event, len(s.Events))
		for i, e := range s.Events {
			e.SourceKeys = cloneStrings(e.SourceKeys)
			out.Events[i] = e
		}
	}
	if s.ImagePlan != nil {
		p := *s.ImagePlan
		out.ImagePlan = &p
	}
	if s.Profile != nil {
		p := *s.Profile
		p.SourceKeys = cloneStrings(p.SourceKeys)
		out.Profile = &p
	}
	if s.BigNumber != nil {
		b := *s.BigNumber
		b.SourceKeys = cloneStrings(b.SourceKeys)
		out.BigNumber = &b
	}
	if s.Quote != nil {
		q := *s.Quote
		q.SourceKeys = cloneStrings(q.SourceKeys)
		out.Quote = &q
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// ContinuationTitle returns the title used for follow-on pages of a split slide.
func ContinuationTitle(title string) string {
	title = strings.TrimSpace(title)
	if strings.HasSuffix(title, ContinuationSuffix) {
		return title
	}
	return title + ContinuationSuffix
}

// AllSourceKeys returns every source key referenced anywhere on the slide,
// de-duplicated in first-seen order.
func (s Slide) AllSourceKeys() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range s.TextFields() {
		for _, k := range f.SourceKeys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
