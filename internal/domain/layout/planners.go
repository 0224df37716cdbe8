package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/theme"
)

const (
	gap         = 0.15
	maxKeyLines = 2
	maxCards    = 6
	maxEvents   = 6
)

// Insets in inches, shared with renderers so drawn text lands where it was
// measured. ParagraphGap is a fraction of a line.
const (
	BulletIndent = 0.25
	NumberIndent = 0.45
	IconColumn   = 0.4
	CardPad      = 0.15
	CardIcon     = 0.45
	ParagraphGap = 0.35
)

// textBlock is copy that must fit inside a named box.
type textBlock struct {
	box       string
	texts     []string
	role      string
	indent    float64
	padX      float64
	padTop    float64
	padBottom float64
	maxLines  int
	// gap between paragraphs as a fraction of a line
	gap float64
}

type frame struct {
	t     theme.Theme
	sizes map[string]float64
	m     Measurer
}

func (f frame) lh(role string) float64 {
	return LineHeight(f.sizes[role], f.t.LineHeight)
}

func (f frame) lines(text, role string, width float64) int {
	return f.m.Lines(text, f.sizes[role], width)
}

func clampLines(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// planner computes the boxes and text blocks of one archetype. It reports
// false when the slide lacks the content the archetype needs.
type planner func(f frame, s slide.Slide) (map[string]Box, []textBlock, bool)

var planners = map[slide.LayoutHint]planner{
	slide.LayoutHero:       planHero,
	slide.LayoutAgenda:     planAgenda,
	slide.LayoutSplitImage: planSplitImage,
	slide.LayoutImageTop:   planImageTop,
	slide.LayoutCards:      planCards,
	slide.LayoutProfile:    planProfile,
	slide.LayoutBigNumber:  planBigNumber,
	slide.LayoutTimeline:   planTimeline,
	slide.LayoutQuote:      planQuote,
	slide.LayoutText:       planText,
}

// header places the title and optional key message and returns the top of
// the body area.
func (f frame) header(s slide.Slide, boxes map[string]Box, blocks *[]textBlock) float64 {
	m := f.t.Grid.Margin
	w := f.t.ContentWidth()

	n := clampLines(f.lines(s.Title, RoleTitle, w), f.t.MaxTitleLines)
	titleH := float64(n) * f.lh(RoleTitle)
	boxes["title"] = Box{X: m, Y: m, W: w, H: titleH}
	*blocks = append(*blocks, textBlock{box: "title", texts: []string{s.Title}, role: RoleTitle, maxLines: f.t.MaxTitleLines})
	y := m + titleH + gap

	if km := strings.TrimSpace(s.KeyMessage); km != "" {
		n := clampLines(f.lines(km, RoleSubtitle, w), maxKeyLines)
		h := float64(n) * f.lh(RoleSubtitle)
		boxes["keyMessage"] = Box{X: m, Y: y, W: w, H: h}
		*blocks = append(*blocks, textBlock{box: "keyMessage", texts: []string{km}, role: RoleSubtitle, maxLines: maxKeyLines})
		y += h + gap
	}
	return y + gap
}

// body returns the area between top and the bottom margin.
func (f frame) body(top float64) Box {
	m := f.t.Grid.Margin
	bottom := f.t.Canvas.Height - m
	if top > bottom {
		top = bottom
	}
	return Box{X: m, Y: top, W: f.t.ContentWidth(), H: bottom - top}
}

func bulletBlock(box string, lines []string, indent float64) textBlock {
	return textBlock{box: box, texts: lines, role: RoleBody, indent: indent, gap: ParagraphGap}
}

func planHero(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	boxes := map[string]Box{}
	var blocks []textBlock
	m := f.t.Grid.Margin
	w := f.t.ContentWidth()

	titleH := float64(clampLines(f.lines(s.Title, RoleTitle, w), f.t.MaxTitleLines)) * f.lh(RoleTitle)
	sub := strings.TrimSpace(s.Subtitle)
	if sub == "" {
		sub = strings.TrimSpace(s.KeyMessage)
	}
	subH := 0.0
	if sub != "" {
		subH = float64(clampLines(f.lines(sub, RoleSubtitle, w), maxKeyLines)) * f.lh(RoleSubtitle)
	}
	total := titleH
	if subH > 0 {
		total += 2*gap + subH
	}

	y := (f.t.Canvas.Height - total) / 2
	if y < m+0.4 {
		y = m + 0.4
	}
	boxes["accent"] = Box{X: m, Y: y - 0.3, W: 1.2, H: 0.08}
	boxes["title"] = Box{X: m, Y: y, W: w, H: titleH}
	blocks = append(blocks, textBlock{box: "title", texts: []string{s.Title}, role: RoleTitle, maxLines: f.t.MaxTitleLines})
	if subH > 0 {
		boxes["subtitle"] = Box{X: m, Y: y + titleH + 2*gap, W: w, H: subH}
		blocks = append(blocks, textBlock{box: "subtitle", texts: []string{sub}, role: RoleSubtitle, maxLines: maxKeyLines})
	}
	return boxes, blocks, true
}

func planText(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	lines := s.BodyLines()
	if len(lines) == 0 {
		return boxes, blocks, true
	}
	if len(s.Icons) > 0 {
		boxes["icons"] = Box{X: area.X, Y: area.Y, W: IconColumn - 0.1, H: area.H}
		area.X += IconColumn
		area.W -= IconColumn
	}
	boxes["body"] = area
	blocks = append(blocks, bulletBlock("body", lines, BulletIndent))
	return boxes, blocks, true
}

func planAgenda(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	if len(s.Items) == 0 {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))
	boxes["body"] = area
	blocks = append(blocks, bulletBlock("body", s.Items, NumberIndent))
	return boxes, blocks, true
}

func images(s slide.Slide) []string {
	imgs := s.Images
	if len(imgs) > slide.MaxImagesPerSlide {
		imgs = imgs[:slide.MaxImagesPerSlide]
	}
	return imgs
}

func planSplitImage(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	imgs := images(s)
	if len(imgs) == 0 {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	textCols := f.t.Grid.Columns * 7 / 12
	if textCols < 1 {
		textCols = 1
	}
	imgCols := f.t.Grid.Columns - textCols
	if imgCols < 1 {
		return nil, nil, false
	}
	boxes["body"] = Box{X: f.t.ColumnX(0), Y: area.Y, W: f.t.SpanWidth(textCols), H: area.H}
	blocks = append(blocks, bulletBlock("body", s.BodyLines(), BulletIndent))

	n := float64(len(imgs))
	h := (area.H - gap*(n-1)) / n
	if h < 0 {
		h = 0
	}
	for i := range imgs {
		boxes[fmt.Sprintf("image%d", i+1)] = Box{
			X: f.t.ColumnX(textCols),
			Y: area.Y + float64(i)*(h+gap),
			W: f.t.SpanWidth(imgCols),
			H: h,
		}
	}
	return boxes, blocks, true
}

func planImageTop(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	imgs := images(s)
	if len(imgs) == 0 {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	imgH := area.H * 0.42
	n := float64(len(imgs))
	w := (area.W - gap*(n-1)) / n
	for i := range imgs {
		boxes[fmt.Sprintf("image%d", i+1)] = Box{X: area.X + float64(i)*(w+gap), Y: area.Y, W: w, H: imgH}
	}
	bodyH := area.H - imgH - gap
	if bodyH < 0 {
		bodyH = 0
	}
	boxes["body"] = Box{X: area.X, Y: area.Y + area.H - bodyH, W: area.W, H: bodyH}
	blocks = append(blocks, bulletBlock("body", s.BodyLines(), BulletIndent))
	return boxes, blocks, true
}

// CardItems returns the cards a cards layout draws: the slide's cards, or
// one untitled card per bullet.
func CardItems(s slide.Slide) []slide.Card {
	if len(s.Cards) > 0 {
		return s.Cards
	}
	cards := make([]slide.Card, 0, len(s.Bullets))
	for _, b := range s.Bullets {
		cards = append(cards, slide.Card{Text: b.Text, SourceKeys: b.SourceKeys})
	}
	return cards
}

func cardGrid(n int) (cols, rows int) {
	switch {
	case n <= 3:
		return n, 1
	case n == 4:
		return 2, 2
	default:
		return 3, int(math.Ceil(float64(n) / 3))
	}
}

func planCards(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	cards := CardItems(s)
	if len(cards) == 0 || len(cards) > maxCards {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	cols, rows := cardGrid(len(cards))
	w := (area.W - gap*float64(cols-1)) / float64(cols)
	h := (area.H - gap*float64(rows-1)) / float64(rows)
	if h < 0 {
		h = 0
	}
	for i, c := range cards {
		name := fmt.Sprintf("card%d", i+1)
		col, row := i%cols, i/cols
		boxes[name] = Box{X: area.X + float64(col)*(w+gap), Y: area.Y + float64(row)*(h+gap), W: w, H: h}

		var texts []string
		if c.Title != "" {
			texts = append(texts, c.Title)
		}
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
		blocks = append(blocks, textBlock{
			box: name, texts: texts, role: RoleBody,
			padX: CardPad, padTop: CardPad + CardIcon, padBottom: CardPad, gap: ParagraphGap,
		})
	}
	return boxes, blocks, true
}

func planProfile(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	if s.Profile == nil || strings.TrimSpace(s.Profile.Name) == "" {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	leftCols := f.t.Grid.Columns / 3
	if leftCols < 1 {
		leftCols = 1
	}
	leftW := f.t.SpanWidth(leftCols)
	nameH := 3 * f.lh(RoleSubtitle)
	avatar := math.Min(leftW, area.H-nameH-gap)
	if avatar < 0 {
		avatar = 0
	}
	boxes["avatar"] = Box{X: area.X, Y: area.Y, W: leftW, H: avatar}
	boxes["name"] = Box{X: area.X, Y: area.Y + avatar + gap, W: leftW, H: math.Max(0, math.Min(nameH, area.H-avatar-gap))}

	nameTexts := []string{s.Profile.Name}
	if s.Profile.Role != "" {
		nameTexts = append(nameTexts, s.Profile.Role)
	}
	blocks = append(blocks, textBlock{box: "name", texts: nameTexts, role: RoleSubtitle, maxLines: 3})

	if len(s.Bullets) > 0 {
		lines := make([]string, len(s.Bullets))
		for i, b := range s.Bullets {
			lines[i] = b.Text
		}
		x := f.t.ColumnX(leftCols)
		boxes["body"] = Box{X: x, Y: area.Y, W: area.X + area.W - x, H: area.H}
		blocks = append(blocks, bulletBlock("body", lines, BulletIndent))
	}
	return boxes, blocks, true
}

func planBigNumber(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	if s.BigNumber == nil || strings.TrimSpace(s.BigNumber.Value) == "" {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	numH := f.lh(RoleBigNumber)
	boxes["bigNumber"] = Box{X: area.X, Y: area.Y, W: area.W, H: math.Min(numH, area.H)}
	blocks = append(blocks, textBlock{box: "bigNumber", texts: []string{s.BigNumber.Value}, role: RoleBigNumber, maxLines: 1})
	y := area.Y + numH + gap/2

	if label := strings.TrimSpace(s.BigNumber.Label); label != "" {
		h := float64(clampLines(f.lines(label, RoleSubtitle, area.W), maxKeyLines)) * f.lh(RoleSubtitle)
		boxes["label"] = Box{X: area.X, Y: math.Min(y, area.Y+area.H), W: area.W, H: math.Max(0, math.Min(h, area.Y+area.H-y))}
		blocks = append(blocks, textBlock{box: "label", texts: []string{label}, role: RoleSubtitle, maxLines: maxKeyLines})
		y += h + gap
	}

	if len(s.Bullets) > 0 {
		lines := make([]string, len(s.Bullets))
		for i, b := range s.Bullets {
			lines[i] = b.Text
		}
		bottom := area.Y + area.H
		top := math.Min(y+gap, bottom)
		boxes["body"] = Box{X: area.X, Y: top, W: area.W, H: bottom - top}
		blocks = append(blocks, bulletBlock("body", lines, BulletIndent))
	}
	return boxes, blocks, true
}

func planTimeline(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	if len(s.Events) == 0 || len(s.Events) > maxEvents {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	n := float64(len(s.Events))
	w := (area.W - gap*(n-1)) / n
	labelH := 2 * f.lh(RoleSubtitle)
	axisY := area.Y + labelH + gap
	if axisY > area.Y+area.H {
		axisY = area.Y + area.H
	}
	boxes["axis"] = Box{X: area.X, Y: axisY, W: area.W, H: math.Min(0.04, area.Y+area.H-axisY)}

	textTop := math.Min(axisY+0.25, area.Y+area.H)
	for i, e := range s.Events {
		x := area.X + float64(i)*(w+gap)
		label := fmt.Sprintf("event%d.label", i+1)
		name := fmt.Sprintf("event%d", i+1)
		boxes[label] = Box{X: x, Y: area.Y, W: w, H: math.Min(labelH, area.H)}
		boxes[name] = Box{X: x, Y: textTop, W: w, H: area.Y + area.H - textTop}
		blocks = append(blocks,
			textBlock{box: label, texts: []string{e.Label}, role: RoleSubtitle, maxLines: 2},
			textBlock{box: name, texts: []string{e.Text}, role: RoleBody},
		)
	}
	return boxes, blocks, true
}

func planQuote(f frame, s slide.Slide) (map[string]Box, []textBlock, bool) {
	if s.Quote == nil || strings.TrimSpace(s.Quote.Text) == "" {
		return nil, nil, false
	}
	boxes := map[string]Box{}
	var blocks []textBlock
	area := f.body(f.header(s, boxes, &blocks))

	inset := math.Min(0.6, area.W/4)
	attrH := 0.0
	if s.Quote.Attribution != "" {
		attrH = 2 * f.lh(RoleCaption)
	}
	quoteH := area.H - attrH - gap
	if quoteH < 0 {
		quoteH = 0
	}
	boxes["quote"] = Box{X: area.X + inset, Y: area.Y, W: area.W - 2*inset, H: quoteH}
	blocks = append(blocks, textBlock{box: "quote", texts: []string{s.Quote.Text}, role: RoleQuote})
	if attrH > 0 {
		top := math.Max(area.Y, area.Y+area.H-attrH)
		boxes["attribution"] = Box{X: area.X + inset, Y: top, W: area.W - 2*inset, H: area.Y + area.H - top}
		blocks = append(blocks, textBlock{box: "attribution", texts: []string{s.Quote.Attribution}, role: RoleCaption, maxLines: 2})
	}
	return boxes, blocks, true
}
