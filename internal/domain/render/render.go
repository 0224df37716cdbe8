package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/domain/icons"
	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/theme"
)

// ErrNoSlides is returned when there is nothing to draw.
var ErrNoSlides = errors.New("render: no slides")

const bulletMarker = "•"

// Options tunes a Renderer.
type Options struct {
	// Notes attaches each slide's notes to its page.
	Notes bool
}

// Stats summarizes one render.
type Stats struct {
	Slides       int `json:"slides"`
	Images       int `json:"images"`
	Placeholders int `json:"placeholders"`
}

// Renderer draws planned slides with one theme.
type Renderer struct {
	theme    theme.Theme
	measurer layout.Measurer
	opts     Options
	log      zerolog.Logger
}

// New creates a renderer. m must be the measurer the slides were planned with
// so icon badges line up with wrapped paragraphs.
func New(t theme.Theme, m layout.Measurer, log zerolog.Logger, opts Options) *Renderer {
	if m == nil {
		m = layout.HeuristicMeasurer{CharWidth: t.CharWidth}
	}
	return &Renderer{
		theme:    t,
		measurer: m,
		opts:     opts,
		log:      log.With().Str("component", "renderer").Logger(),
	}
}

// Render draws every slide onto c in order. The canvas is not closed.
func (r *Renderer) Render(ctx context.Context, slides []layout.PlannedSlide, images *ImageCache, c Canvas) (Stats, error) {
	if len(slides) == 0 {
		return Stats{}, ErrNoSlides
	}
	if images == nil {
		var err error
		if images, err = NewImageCache(nil, 0, r.log); err != nil {
			return Stats{}, err
		}
	}

	var st Stats
	agendaNext := 1
	for i, ps := range slides {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		pg := &page{r: r, c: c, ctx: ctx, images: images, s: ps.Slide, plan: ps.Plan}
		if ps.Slide.Type == slide.TypeAgenda {
			if !strings.HasSuffix(ps.Slide.Title, slide.ContinuationSuffix) {
				agendaNext = 1
			}
			pg.ordinal = agendaNext
			agendaNext += len(ps.Slide.Items)
		}
		if err := pg.draw(); err != nil {
			return st, fmt.Errorf("render slide %d: %w", i+1, err)
		}
		if r.opts.Notes && strings.TrimSpace(ps.Slide.Notes) != "" {
			c.Notes(ps.Slide.Notes)
		}
		st.Slides++
	}
	st.Images, st.Placeholders = images.Counts()
	r.log.Debug().Int("slides", st.Slides).Int("images", st.Images).Int("placeholders", st.Placeholders).Msg("deck rendered")
	return st, nil
}

// page draws one slide.
type page struct {
	r       *Renderer
	c       Canvas
	ctx     context.Context
	images  *ImageCache
	s       slide.Slide
	plan    layout.Plan
	ordinal int
}

func (p *page) box(name string) (layout.Box, bool) {
	b, ok := p.plan.Boxes[name]
	return b, ok && b.W > 0 && b.H > 0
}

func (p *page) size(role string) float64 {
	if v, ok := p.plan.Sizes[role]; ok && v > 0 {
		return v
	}
	f := p.r.theme.Fonts
	switch role {
	case layout.RoleTitle:
		return f.Title.Max
	case layout.RoleSubtitle:
		return f.Subtitle.Max
	case layout.RoleCaption:
		return f.Caption.Max
	case layout.RoleBigNumber:
		return f.BigNumber.Max
	case layout.RoleQuote:
		return f.Quote.Max
	default:
		return f.Body.Max
	}
}

func (p *page) style(role string, c Color) TextStyle {
	return TextStyle{Size: p.size(role), LineHeight: p.r.theme.LineHeight, Color: c}
}

func (p *page) colors() (bg, surface, text, muted, accent, accentText Color) {
	cs := p.r.theme.Colors
	return Hex(cs.Background), Hex(cs.Surface), Hex(cs.Text), Hex(cs.Muted), Hex(cs.Accent), Hex(cs.AccentText)
}

func (p *page) draw() error {
	bg, _, _, _, _, _ := p.colors()
	p.c.AddSlide(bg)

	switch p.plan.ChosenLayout {
	case slide.LayoutHero:
		p.hero()
		return nil
	case slide.LayoutAgenda:
		p.header()
		p.agenda()
		return nil
	case slide.LayoutSplitImage, slide.LayoutImageTop:
		p.header()
		p.bullets("body", p.s.BodyLines(), layout.BulletIndent)
		return p.pictures()
	case slide.LayoutCards:
		p.header()
		p.cards()
		return nil
	case slide.LayoutProfile:
		p.header()
		return p.profile()
	case slide.LayoutBigNumber:
		p.header()
		p.bigNumber()
		return nil
	case slide.LayoutTimeline:
		p.header()
		p.timeline()
		return nil
	case slide.LayoutQuote:
		p.header()
		p.quote()
		return nil
	default:
		p.header()
		p.text()
		return nil
	}
}

func (p *page) header() {
	_, _, text, muted, _, _ := p.colors()
	if b, ok := p.box("title"); ok {
		st := p.style(layout.RoleTitle, text)
		st.Bold = true
		st.MaxLines = p.r.theme.MaxTitleLines
		p.c.Text(b, Plain(p.s.Title), st)
	}
	if b, ok := p.box("keyMessage"); ok {
		st := p.style(layout.RoleSubtitle, muted)
		st.MaxLines = 2
		p.c.Text(b, Plain(p.s.KeyMessage), st)
	}
}

func (p *page) hero() {
	_, _, text, muted, accent, _ := p.colors()
	if b, ok := p.box("accent"); ok {
		p.c.Rect(b, accent)
	}
	if b, ok := p.box("title"); ok {
		st := p.style(layout.RoleTitle, text)
		st.Bold = true
		st.MaxLines = p.r.theme.MaxTitleLines
		p.c.Text(b, Plain(p.s.Title), st)
	}
	if b, ok := p.box("subtitle"); ok {
		sub := strings.TrimSpace(p.s.Subtitle)
		if sub == "" {
			sub = strings.TrimSpace(p.s.KeyMessage)
		}
		st := p.style(layout.RoleSubtitle, muted)
		st.MaxLines = 2
		p.c.Text(b, Plain(sub), st)
	}
}

// bullets draws lines into a body box with a marker per paragraph.
func (p *page) bullets(name string, lines []string, indent float64) {
	b, ok := p.box(name)
	if !ok || len(lines) == 0 {
		return
	}
	_, _, text, _, _, _ := p.colors()
	st := p.style(layout.RoleBody, text)
	st.Indent = indent
	st.ParagraphGap = layout.ParagraphGap
	p.c.Text(b, p.paragraphs(lines, bulletMarker), st)
}

func (p *page) paragraphs(lines []string, marker string) []Paragraph {
	out := make([]Paragraph, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, Paragraph{Marker: marker, Text: l, Bold: p.emphasized(l)})
	}
	return out
}

// emphasized reports whether line carries one of the slide's emphasis
// figures.
func (p *page) emphasized(line string) bool {
	for _, n := range p.s.Emphasis.Numbers {
		if v := strings.TrimSpace(n.Value); v != "" && strings.Contains(line, v) {
			return true
		}
	}
	return false
}

func (p *page) text() {
	lines := p.s.BodyLines()
	p.bullets("body", lines, layout.BulletIndent)

	col, ok := p.box("icons")
	body, bodyOK := p.box("body")
	if !ok || !bodyOK || len(p.s.Icons) == 0 {
		return
	}
	// One badge per paragraph when icons map onto the drawn lines, otherwise
	// a single badge beside the first line.
	names := p.s.Icons
	if len(names) != len(lines) {
		names = names[:1]
	}
	size := p.size(layout.RoleBody)
	lh := layout.LineHeight(size, p.r.theme.LineHeight)
	width := body.W - layout.BulletIndent
	y := body.Y
	for i, name := range names {
		if y+lh > col.Y+col.H+1e-6 {
			break
		}
		p.badge(layout.Box{X: col.X, Y: y, W: min(col.W, lh), H: lh}, name)
		if i < len(lines) {
			n := p.r.measurer.Lines(lines[i], size, width)
			y += float64(n)*lh + layout.ParagraphGap*lh
		}
	}
}

// badge draws an icon symbol on an accent square.
func (p *page) badge(b layout.Box, name string) {
	_, _, _, _, accent, accentText := p.colors()
	p.c.Rect(b, accent)
	st := p.style(layout.RoleCaption, accentText)
	st.Bold = true
	st.Align = AlignCenter
	st.MaxLines = 1
	p.c.Text(b, Plain(icons.Lookup(name).Symbol), st)
}

func (p *page) agenda() {
	b, ok := p.box("body")
	if !ok {
		return
	}
	_, _, text, _, _, _ := p.colors()
	paras := make([]Paragraph, 0, len(p.s.Items))
	n := p.ordinal
	if n < 1 {
		n = 1
	}
	for _, item := range p.s.Items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		paras = append(paras, Paragraph{Marker: strconv.Itoa(n) + ".", Text: item})
		n++
	}
	st := p.style(layout.RoleBody, text)
	st.Indent = layout.NumberIndent
	st.ParagraphGap = layout.ParagraphGap
	p.c.Text(b, paras, st)
}

func (p *page) pictures() error {
	refs := p.s.Images
	if len(refs) > slide.MaxImagesPerSlide {
		refs = refs[:slide.MaxImagesPerSlide]
	}
	for i, ref := range refs {
		b, ok := p.box(fmt.Sprintf("image%d", i+1))
		if !ok {
			continue
		}
		if err := p.c.Image(b, p.images.Get(p.ctx, ref)); err != nil {
			return err
		}
	}
	return nil
}

func (p *page) cards() {
	_, surface, text, _, _, _ := p.colors()
	for i, card := range layout.CardItems(p.s) {
		b, ok := p.box(fmt.Sprintf("card%d", i+1))
		if !ok {
			continue
		}
		p.c.Rect(b, surface)

		name := card.Icon
		if name == "" && i < len(p.s.Icons) {
			name = p.s.Icons[i]
		}
		if name == "" {
			name = icons.Match(card.Title + " " + card.Text)
		}
		side := min(layout.CardIcon*0.8, min(b.W, b.H)-layout.CardPad)
		if side > 0 {
			p.badge(layout.Box{X: b.X + layout.CardPad, Y: b.Y + layout.CardPad, W: side, H: side}, name)
		}

		var paras []Paragraph
		if card.Title != "" {
			paras = append(paras, Paragraph{Text: card.Title, Bold: true})
		}
		if card.Text != "" {
			paras = append(paras, Paragraph{Text: card.Text})
		}
		st := p.style(layout.RoleBody, text)
		st.PadX = layout.CardPad
		st.PadTop = layout.CardPad + layout.CardIcon
		st.ParagraphGap = layout.ParagraphGap
		p.c.Text(b, paras, st)
	}
}

func (p *page) profile() error {
	_, surface, text, muted, _, _ := p.colors()
	pr := p.s.Profile
	if pr == nil {
		p.text()
		return nil
	}
	if b, ok := p.box("avatar"); ok {
		if pr.Image != "" {
			if err := p.c.Image(b, p.images.Get(p.ctx, pr.Image)); err != nil {
				return err
			}
		} else {
			p.c.Rect(b, surface)
			st := p.style(layout.RoleBigNumber, muted)
			st.Bold = true
			st.Align = AlignCenter
			st.MaxLines = 1
			st.PadTop = max(0, (b.H-layout.LineHeight(st.Size, st.LineHeight))/2)
			p.c.Text(b, Plain(initials(pr.Name)), st)
		}
	}
	if b, ok := p.box("name"); ok {
		paras := []Paragraph{{Text: pr.Name, Bold: true}}
		if pr.Role != "" {
			paras = append(paras, Paragraph{Text: pr.Role})
		}
		st := p.style(layout.RoleSubtitle, text)
		st.MaxLines = 3
		p.c.Text(b, paras, st)
	}
	p.bullets("body", bulletTexts(p.s.Bullets), layout.BulletIndent)
	return nil
}

func (p *page) bigNumber() {
	_, _, _, muted, accent, _ := p.colors()
	bn := p.s.BigNumber
	if bn == nil {
		return
	}
	if b, ok := p.box("bigNumber"); ok {
		st := p.style(layout.RoleBigNumber, accent)
		st.Bold = true
		st.MaxLines = 1
		p.c.Text(b, Plain(bn.Value), st)
	}
	if b, ok := p.box("label"); ok {
		st := p.style(layout.RoleSubtitle, muted)
		st.MaxLines = 2
		p.c.Text(b, Plain(bn.Label), st)
	}
	p.bullets("body", bulletTexts(p.s.Bullets), layout.BulletIndent)
}

func (p *page) timeline() {
	_, _, text, _, accent, _ := p.colors()
	if b, ok := p.box("axis"); ok {
		p.c.Rect(b, accent)
	}
	for i, e := range p.s.Events {
		if b, ok := p.box(fmt.Sprintf("event%d.label", i+1)); ok {
			st := p.style(layout.RoleSubtitle, accent)
			st.Bold = true
			st.MaxLines = 2
			p.c.Text(b, Plain(e.Label), st)
		}
		if b, ok := p.box(fmt.Sprintf("event%d", i+1)); ok {
			p.c.Text(b, Plain(e.Text), p.style(layout.RoleBody, text))
		}
	}
}

func (p *page) quote() {
	_, _, text, muted, _, _ := p.colors()
	q := p.s.Quote
	if q == nil {
		return
	}
	if b, ok := p.box("quote"); ok {
		st := p.style(layout.RoleQuote, text)
		st.Italic = true
		p.c.Text(b, Plain(q.Text), st)
	}
	if b, ok := p.box("attribution"); ok {
		st := p.style(layout.RoleCaption, muted)
		st.MaxLines = 2
		p.c.Text(b, Plain(q.Attribution), st)
	}
}

func bulletTexts(bs []slide.Bullet) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Text
	}
	return out
}

// initials returns up to two leading letters of name.
func initials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(w)
		out = append(out, r)
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
