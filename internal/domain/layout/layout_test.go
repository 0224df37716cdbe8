package layout_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/theme"
)

const smallTheme = `
name: small
canvas: {width: 6, height: 4}
grid: {columns: 6, margin: 0.3, gutter: 0.1}
fonts:
  title: {min: 20, max: 24}
  subtitle: {min: 12, max: 14}
  body: {min: 10, max: 12}
  caption: {min: 8, max: 9}
  bigNumber: {min: 30, max: 40}
  quote: {min: 12, max: 14}
lineHeight: 1.2
charWidth: 0.5
maxTitleLines: 2
colors: {background: "#FFFFFF", surface: "#EEEEEE", text: "#000000", muted: "#666666", accent: "#0000FF", accentText: "#FFFFFF"}
`

func small(t *testing.T) theme.Theme {
	t.Helper()
	th, err := theme.Parse([]byte(smallTheme))
	require.NoError(t, err)
	return th
}

// a 99-character bullet that wraps to two lines at every body size of the
// small theme
func longBullets(n int) []slide.Bullet {
	out := make([]slide.Bullet, n)
	for i := range out {
		out[i] = slide.Bullet{Text: strings.TrimSpace(strings.Repeat("fact ", 20)), SourceKeys: []string{fmt.Sprintf("k%d", i)}}
	}
	return out
}

func assertInBounds(t *testing.T, th theme.Theme, planned []layout.PlannedSlide) {
	t.Helper()
	for _, ps := range planned {
		for name, b := range ps.Plan.Boxes {
			assert.GreaterOrEqual(t, b.X, -1e-6, "%s.%s x", ps.Slide.Title, name)
			assert.GreaterOrEqual(t, b.Y, -1e-6, "%s.%s y", ps.Slide.Title, name)
			assert.LessOrEqual(t, b.X+b.W, th.Canvas.Width+1e-6, "%s.%s right", ps.Slide.Title, name)
			assert.LessOrEqual(t, b.Y+b.H, th.Canvas.Height+1e-6, "%s.%s bottom", ps.Slide.Title, name)
		}
	}
}

func TestHeuristicMeasurer(t *testing.T) {
	m := layout.HeuristicMeasurer{CharWidth: 0.5}
	// 1 inch at 12pt holds 12 average characters
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one line", "hello world", 1},
		{"wraps", "hello world again", 2},
		{"long word breaks", strings.Repeat("x", 30), 3},
		{"cjk counts double", "公司英文名公司英文名", 2},
		{"newline", "a\nb", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Lines(tt.text, 12, 1))
		})
	}
}

func TestInitialAndNextLayout(t *testing.T) {
	assert.Equal(t, slide.LayoutHero, layout.InitialLayout(slide.Slide{Type: slide.TypeTitle, LayoutHint: slide.LayoutCards}))
	assert.Equal(t, slide.LayoutCards, layout.InitialLayout(slide.Slide{Type: slide.TypeText, LayoutHint: slide.LayoutCards}))
	assert.Equal(t, slide.LayoutText, layout.InitialLayout(slide.Slide{Type: slide.TypeSummary, LayoutHint: slide.LayoutAuto}))
	assert.Equal(t, slide.LayoutBigNumber, layout.InitialLayout(slide.Slide{Type: slide.TypeBigNumber}))

	assert.Equal(t, slide.LayoutImageTop, layout.NextLayout(slide.LayoutSplitImage))
	assert.Equal(t, slide.LayoutText, layout.NextLayout(slide.LayoutImageTop))
	assert.Equal(t, slide.LayoutText, layout.NextLayout(slide.LayoutCards))
	assert.Equal(t, slide.LayoutHint(""), layout.NextLayout(slide.LayoutText))
}

func TestPlanSlide_Archetypes(t *testing.T) {
	th := theme.Default()
	e := layout.NewEngine(th, nil)

	slides := []slide.Slide{
		{Type: slide.TypeTitle, Title: "Acme Studio", Subtitle: "Company profile"},
		{Type: slide.TypeAgenda, Title: "Agenda", Items: []string{"Overview", "Products", "Team"}},
		{Type: slide.TypeCards, Title: "Certifications", Cards: []slide.Card{{Title: "ISO 9001", Text: "Quality"}, {Title: "CE", Text: "Safety"}, {Title: "RoHS", Text: "Materials"}, {Title: "UL", Text: "Electrical"}}},
		{Type: slide.TypeProfile, Title: "Leadership", Profile: &slide.Profile{Name: "Jane Doe", Role: "CEO"}, Bullets: []slide.Bullet{{Text: "Founded the company"}}},
		{Type: slide.TypeSplitImage, Title: "Factory", Images: []string{"https://cdn.acme.com/f.png"}, Bullets: []slide.Bullet{{Text: "Two production lines"}}},
		{Type: slide.TypeBigNumber, Title: "Scale", BigNumber: &slide.BigNumber{Value: "12,500", Label: "units shipped"}},
		{Type: slide.TypeTimeline, Title: "History", Events: []slide.Event{{Label: "2010", Text: "Founded"}, {Label: "2015", Text: "Export"}}},
		{Type: slide.TypeQuote, Title: "Customers", Quote: &slide.Quote{Text: "Reliable partner.", Attribution: "A buyer"}},
		{Type: slide.TypeText, Title: "Overview", KeyMessage: "Acme builds robot arms.", Bullets: []slide.Bullet{{Text: "Based in Shenzhen"}}, Icons: []string{"pin"}},
	}
	want := []slide.LayoutHint{
		slide.LayoutHero, slide.LayoutAgenda, slide.LayoutCards, slide.LayoutProfile, slide.LayoutSplitImage,
		slide.LayoutBigNumber, slide.LayoutTimeline, slide.LayoutQuote, slide.LayoutText,
	}
	for i, s := range slides {
		t.Run(string(s.Type), func(t *testing.T) {
			planned := e.PlanSlide(s, "")
			require.Len(t, planned, 1)
			p := planned[0].Plan
			assert.True(t, p.Fits)
			assert.Equal(t, want[i], p.ChosenLayout)
			assert.Equal(t, layout.StrategyNone, p.Strategy)
			assert.Contains(t, p.Boxes, "title")
			assertInBounds(t, th, planned)
			assert.Empty(t, e.Check(planned[0], nil))
		})
	}
}

func TestPlanSlide_MissingPayloadFallsBackToText(t *testing.T) {
	e := layout.NewEngine(theme.Default(), nil)
	planned := e.PlanSlide(slide.Slide{Type: slide.TypeSplitImage, Title: "No image", Bullets: []slide.Bullet{{Text: "a"}}}, "")
	require.Len(t, planned, 1)
	assert.Equal(t, slide.LayoutText, planned[0].Plan.ChosenLayout)
	assert.Equal(t, layout.StrategySwitch, planned[0].Plan.Strategy)
}

func TestPlanSlide_Shrink(t *testing.T) {
	th := small(t)
	e := layout.NewEngine(th, nil)
	planned := e.PlanSlide(slide.Slide{Type: slide.TypeText, Title: "X", Bullets: longBullets(6)}, "")
	require.Len(t, planned, 1)
	p := planned[0].Plan
	assert.True(t, p.Fits)
	assert.Equal(t, layout.StrategyShrink, p.Strategy)
	assert.Less(t, p.Sizes[layout.RoleBody], th.Fonts.Body.Max)
	assertInBounds(t, th, planned)
}

func TestPlanSlide_ShrinkSwitchSplit(t *testing.T) {
	th := small(t)
	e := layout.NewEngine(th, nil)
	s := slide.Slide{
		Type:    slide.TypeSplitImage,
		Title:   "X",
		Images:  []string{"https://cdn.acme.com/x.png"},
		Bullets: longBullets(8),
	}
	planned := e.PlanSlide(s, "")
	require.Len(t, planned, 2)
	assert.Equal(t, "X", planned[0].Slide.Title)
	assert.Equal(t, "X (cont.)", planned[1].Slide.Title)
	assert.Len(t, planned[0].Slide.Bullets, 4)
	assert.Len(t, planned[1].Slide.Bullets, 4)
	assert.Empty(t, planned[1].Slide.Images)
	for _, ps := range planned {
		assert.True(t, ps.Plan.Fits)
		assert.Equal(t, layout.StrategySplit, ps.Plan.Strategy)
		assert.Empty(t, e.Check(ps, nil))
	}
	assertInBounds(t, th, planned)
}

func TestPlanDeck_PaginatesAgenda(t *testing.T) {
	e := layout.NewEngine(theme.Default(), nil)
	agenda := slide.Slide{Type: slide.TypeAgenda}
	for i := 0; i < 17; i++ {
		agenda.Items = append(agenda.Items, fmt.Sprintf("Section %d", i+1))
	}
	res := e.PlanDeck([]slide.Slide{{Type: slide.TypeTitle, Title: "Deck"}, agenda}, nil)
	require.Len(t, res.Slides, 4)
	assert.Equal(t, "Agenda", res.Slides[1].Slide.Title)
	assert.Equal(t, "Agenda (cont.)", res.Slides[2].Slide.Title)
	assert.Equal(t, "Agenda (cont.)", res.Slides[3].Slide.Title)
	assert.Equal(t, 1, res.Passes)
	assert.Zero(t, res.Safe)
	for _, ps := range res.Slides[1:] {
		assert.LessOrEqual(t, len(ps.Slide.Items), 8)
		assert.Equal(t, slide.LayoutAgenda, ps.Plan.ChosenLayout)
	}
}

// pessimist claims every non-empty text needs far more lines than the
// heuristic estimate, so plans made with the heuristic never verify.
type pessimist struct{ factor int }

func (p pessimist) Lines(text string, size, width float64) int {
	n := layout.HeuristicMeasurer{CharWidth: 0.5}.Lines(text, size, width)
	if n == 0 {
		return 0
	}
	return n * p.factor
}

func TestPlanDeck_FallsBackToSafePlan(t *testing.T) {
	th := small(t)
	e := layout.NewEngine(th, nil)
	verify := pessimist{factor: 2}

	s := slide.Slide{Type: slide.TypeText, Title: "X", KeyMessage: "Acme builds robot arms.", Bullets: longBullets(6)}
	res := e.PlanDeck([]slide.Slide{s}, verify)

	assert.Equal(t, layout.MaxPasses, res.Passes)
	assert.Equal(t, 1, res.Safe)
	require.NotEmpty(t, res.Slides)
	total := 0
	for _, ps := range res.Slides {
		assert.Equal(t, layout.StrategySafe, ps.Plan.Strategy)
		assert.Equal(t, slide.LayoutText, ps.Plan.ChosenLayout)
		assert.True(t, ps.Plan.Fits)
		assert.Empty(t, e.Check(ps, verify))
		assert.Equal(t, 0, ps.SourceIndex)
		total += len(ps.Slide.Bullets)
	}
	assertInBounds(t, th, res.Slides)
	assert.Equal(t, "X", res.Slides[0].Slide.Title)
	assert.Greater(t, len(res.Slides), 1)
	assert.Equal(t, "X (cont.)", res.Slides[1].Slide.Title)
	assert.Equal(t, 6, total)
}

func TestSafePlan_TruncatesLongTitle(t *testing.T) {
	th := small(t)
	e := layout.NewEngine(th, nil)
	s := slide.Slide{Type: slide.TypeText, Title: strings.Repeat("Extremely long heading ", 10), Bullets: []slide.Bullet{{Text: "a"}}}
	planned := e.SafePlan(s, nil)
	require.Len(t, planned, 1)
	assert.True(t, strings.HasSuffix(planned[0].Slide.Title, "…"))
	assert.True(t, planned[0].Plan.Fits)
	assert.Empty(t, e.Check(planned[0], nil))
}
