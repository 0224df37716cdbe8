package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/validation"
)

func testIndex(t *testing.T) *facts.Index {
	t.Helper()
	idx, err := facts.BuildFromJSON([]byte(`{
		"company": {"name": "Acme Studio", "employees": 1200, "growth": "45%"},
		"logo": "https://cdn.acme.com/logo.png"
	}`))
	require.NoError(t, err)
	return idx
}

func codes(r validation.Result) []validation.Code {
	var out []validation.Code
	for _, is := range r.Issues {
		out = append(out, is.Code)
	}
	return out
}

func TestSentenceCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"single", "Acme builds robots.", 1},
		{"two", "Acme builds robots. It sells them worldwide.", 2},
		{"abbreviation", "Acme serves many sectors, e.g. retail and logistics.", 1},
		{"decimal", "Revenue grew 3.5% last year.", 1},
		{"url", "Visit https://acme.com/about.html for details.", 1},
		{"url then sentence", "See www.acme.com. Then call us.", 2},
		{"initial", "Founded by J. Smith in Ohio.", 1},
		{"cjk", "公司成立于2010年。员工超过1200人。", 2},
		{"no terminator", "Acme builds robots", 1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validation.SentenceCount(tt.text); got != tt.want {
				t.Errorf("SentenceCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Acme builds robots.", validation.FirstSentence("Acme builds robots. It sells them."))
	assert.Equal(t, "plain", validation.FirstSentence("plain"))
}

func TestLooksStructured(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{`{"name": "Acme"}`, true},
		{"company_name: Acme", true},
		{"Name: Acme, Founded: 2010", true},
		{"Acme was founded in 2010", false},
		{"Insight: Acme leads its niche", false},
		{"Revenue: strong and rising", false},
		{"Certifications include ISO 9001:2015, ISO 14001:2015 and CE", false},
		{"Screens ship in 16:9, 4:3 and 21:9 formats", false},
		{"Founded: 2010, Team size: 85", true},
	}
	for _, tt := range tests {
		if got := validation.LooksStructured(tt.text); got != tt.want {
			t.Errorf("LooksStructured(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSchema(t *testing.T) {
	vctx := validation.Context{AllowedImages: []string{"https://cdn.acme.com/logo.png"}}

	t.Run("valid slide", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type:       slide.TypeText,
			Title:      "Overview",
			KeyMessage: "Acme builds robots.",
			Bullets:    []slide.Bullet{{Text: "Acme employs 1200 people"}},
			Images:     []string{"https://cdn.acme.com/logo.png"},
		}}}
		r := validation.Schema(spec, vctx)
		assert.True(t, r.OK, "issues: %v", r.Issues)
	})

	t.Run("collects every problem", func(t *testing.T) {
		long := make([]byte, 130)
		for i := range long {
			long[i] = 'a'
		}
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type:       "poster",
			Title:      "",
			KeyMessage: "One. Two.",
			Tone:       "angry",
			Bullets: []slide.Bullet{
				{Text: string(long)},
				{Text: "company_name: Acme"},
				{Text: "Acme is growing", Kind: slide.KindInsight},
			},
			Images: []string{"https://evil.example/x.png"},
		}}}
		r := validation.Schema(spec, vctx)
		assert.False(t, r.OK)
		got := codes(r)
		for _, want := range []validation.Code{
			validation.CodeInvalidSlideType,
			validation.CodeMissingTitle,
			validation.CodeMultiSentence,
			validation.CodeInvalidTone,
			validation.CodeBulletTooLong,
			validation.CodeRawStructuredText,
			validation.CodeInsightNotMarked,
			validation.CodeImageNotAllowed,
		} {
			assert.Contains(t, got, want)
		}
	})

	t.Run("weak lead is only a warning", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type: slide.TypeText, Title: "Overview",
			Bullets: []slide.Bullet{{Text: "There are many products"}},
		}}}
		r := validation.Schema(spec, vctx)
		assert.True(t, r.OK)
		assert.Equal(t, []validation.Code{validation.CodeWeakBulletLead}, codes(r))
	})

	t.Run("variant content", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{
			{Type: slide.TypeBigNumber, Title: "Scale"},
			{Type: slide.TypeAgenda, Title: "Agenda", Items: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}},
		}}
		r := validation.Schema(spec, vctx)
		assert.Equal(t, []validation.Code{validation.CodeMissingContent, validation.CodeTooManyAgendaItems}, codes(r))
	})
}

func TestFacts(t *testing.T) {
	idx := testIndex(t)

	t.Run("missing source path is rejected in strict mode", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type: slide.TypeText, Title: "Team",
			Bullets: []slide.Bullet{{Text: "Acme has a strong team", SourceKeys: []string{"company.team"}}},
		}}}
		r := validation.Facts(spec, validation.Context{Index: idx, Strict: true})
		require.False(t, r.OK)
		assert.Equal(t, validation.CodeSourcePathNotFound, r.Issues[0].Code)
		assert.Equal(t, "bullets[0]", r.Issues[0].Path)
		assert.True(t, r.HasFactErrors())
	})

	t.Run("lenient mode downgrades trace issues", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type: slide.TypeText, Title: "Team",
			Bullets: []slide.Bullet{{Text: "Acme has a strong team"}},
		}}}
		r := validation.Facts(spec, validation.Context{Index: idx})
		assert.True(t, r.OK)
		assert.Equal(t, []validation.Code{validation.CodeMissingSourceKeys}, codes(r))
	})

	t.Run("numbers must appear in cited facts", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type: slide.TypeText, Title: "Scale",
			KeyMessage:           "Acme grew 45% with 1,200 staff.",
			KeyMessageSourceKeys: []string{"company.growth", "company.employees"},
			Bullets: []slide.Bullet{
				{Text: "Acme employs 1200 people", SourceKeys: []string{"company.employees"}},
				{Text: "Acme employs 1500 people", SourceKeys: []string{"company.employees"}},
				{Text: "Acme grew 45%", SourceKeys: []string{"company.name"}},
			},
		}}}
		r := validation.Facts(spec, validation.Context{Index: idx, Strict: true})
		assert.Equal(t, []validation.Code{validation.CodeNumberNotInSource, validation.CodeNumberNotInSource}, codes(r))
		assert.Equal(t, "bullets[1]", r.Issues[0].Path)
		assert.Equal(t, "bullets[2]", r.Issues[1].Path)
	})

	t.Run("uncited number in key message", func(t *testing.T) {
		spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{{
			Type: slide.TypeText, Title: "Scale", KeyMessage: "Acme employs 1200 people.",
			Bullets: []slide.Bullet{{Text: "Acme is large", SourceKeys: []string{"company.employees"}}},
		}}}
		r := validation.Facts(spec, validation.Context{Index: idx, Strict: true})
		assert.Equal(t, []validation.Code{validation.CodeUnsupportedNumber}, codes(r))
	})
}

func TestNumbers(t *testing.T) {
	idx := testIndex(t)
	spec := slide.Spec{PresentationTitle: "Acme in 2030", Slides: []slide.Slide{{
		Type: slide.TypeText, Title: "Scale",
		Bullets: []slide.Bullet{
			{Text: "Acme employs 1,200 people"},
			{Text: "Acme ships 900 units, see https://acme.com/v/2024/987"},
		},
		Notes: "Growth of 45% year on year",
	}}}

	r := validation.Numbers(spec, validation.Context{Index: idx})
	require.Len(t, r.Issues, 2)
	assert.Equal(t, -1, r.Issues[0].SlideIndex)
	assert.Equal(t, "bullets[1]", r.Issues[1].Path)

	extra := facts.NumberSet{}
	extra.AddText("make it about 2030 and 900 units")
	r = validation.Numbers(spec, validation.Context{Index: idx, ExtraNumbers: extra})
	assert.True(t, r.OK)
}

func TestTopCodes(t *testing.T) {
	issues := []validation.Issue{
		{Code: validation.CodeBulletTooLong, Severity: validation.SeverityError},
		{Code: validation.CodeSourcePathNotFound, Severity: validation.SeverityError},
		{Code: validation.CodeSourcePathNotFound, Severity: validation.SeverityError},
		{Code: validation.CodeWeakBulletLead, Severity: validation.SeverityWarning},
		{Code: validation.CodeMissingTitle, Severity: validation.SeverityError},
	}
	assert.Equal(t, []string{"SOURCE_PATH_NOT_FOUND", "BULLET_TOO_LONG"}, validation.TopCodes(issues, 2))
}

func TestAll_MergesBySlide(t *testing.T) {
	idx := testIndex(t)
	spec := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{
		{Type: slide.TypeText, Title: "A", Bullets: []slide.Bullet{{Text: "Acme has 7777 robots", SourceKeys: []string{"company.name"}}}},
		{Type: slide.TypeText, Title: ""},
	}}
	r := validation.All(spec, validation.Context{Index: idx, Strict: true})
	assert.False(t, r.OK)
	assert.Equal(t, []int{0, 1}, r.FailingSlides())
	for i := 1; i < len(r.Issues); i++ {
		assert.LessOrEqual(t, r.Issues[i-1].SlideIndex, r.Issues[i].SlideIndex)
	}
}
