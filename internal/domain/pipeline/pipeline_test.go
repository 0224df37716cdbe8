package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/outline"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/validation"
)

const supplierFacts = `{
  "Company English Name / 公司英文名": "Acme Studio",
  "company_profile": {
    "founded": 2010,
    "headquarters": "Shenzhen, China",
    "description": "Acme Studio designs and manufactures industrial robot arms for electronics assembly lines worldwide."
  },
  "products": [
    {"name": "Arm X1", "price": "USD 12,500"},
    {"name": "Arm X2"}
  ],
  "certifications": ["ISO 9001", "CE"],
  "logo": "https://cdn.acme.com/logo.png",
  "main_markets": "Europe and North America",
  "team_size": 85
}`

// scriptedCompleter answers each stage from a queue. A queued error is
// returned as is; a string is decoded into out. Stages with an empty queue fail.
type scriptedCompleter struct {
	replies map[string][]any
	calls   []llm.JSONRequest
}

func (c *scriptedCompleter) CompleteJSON(ctx context.Context, req llm.JSONRequest, out any) error {
	c.calls = append(c.calls, req)
	queue := c.replies[req.Stage]
	if len(queue) == 0 {
		return errors.New("upstream unavailable")
	}
	next := queue[0]
	c.replies[req.Stage] = queue[1:]
	switch v := next.(type) {
	case error:
		return v
	case string:
		return llm.DecodeJSON(v, out)
	}
	return errors.New("bad script")
}

func (c *scriptedCompleter) callsFor(stage pipeline.Stage) int {
	n := 0
	for _, req := range c.calls {
		if req.Stage == string(stage) {
			n++
		}
	}
	return n
}

func setup(t *testing.T) (*facts.Index, outline.Draft) {
	t.Helper()
	idx, err := facts.BuildFromJSON([]byte(supplierFacts))
	require.NoError(t, err)
	return idx, outline.Build(idx)
}

func newPipeline(t *testing.T, c llm.Completer, cfg pipeline.Config) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(c, cfg, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func stateOf(out *pipeline.Output, stage pipeline.Stage) pipeline.Report {
	for _, r := range out.Trace {
		if r.Stage == stage {
			return r
		}
	}
	return pipeline.Report{}
}

func assertValid(t *testing.T, spec slide.Spec, idx *facts.Index, strict bool) {
	t.Helper()
	res := validation.All(spec, validation.Context{Index: idx, AllowedImages: []string{"https://cdn.acme.com/logo.png"}, Strict: strict})
	assert.True(t, res.OK, "issues: %v", res.Errors())
	for _, s := range spec.Slides {
		for _, k := range s.AllSourceKeys() {
			assert.True(t, idx.Has(k), "unresolved key %q", k)
		}
	}
}

func TestRun_AllStagesFail(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{}}
	p := newPipeline(t, c, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{
		Instruction: "Make a supplier profile deck",
		Index:       idx,
		Draft:       draft,
		Strict:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Studio", out.Spec.PresentationTitle)
	require.NotEmpty(t, out.Spec.Slides)
	assert.Equal(t, slide.TypeTitle, out.Spec.Slides[0].Type)
	assert.Equal(t, "Acme Studio", out.Spec.Slides[0].Title)
	assert.Equal(t, slide.TypeAgenda, out.Spec.Slides[1].Type)
	assert.Len(t, out.Spec.Slides, 2+len(draft.Sections))
	assertValid(t, out.Spec, idx, true)

	assert.True(t, out.Flags.PolishFailed)
	assert.Equal(t, pipeline.StateFallback, stateOf(out, pipeline.StagePlanner).State)
	assert.Equal(t, pipeline.StateFallback, stateOf(out, pipeline.StageStoryboard).State)
	assert.Equal(t, pipeline.StateFallback, stateOf(out, pipeline.StagePolish).State)
	assert.Equal(t, 2, stateOf(out, pipeline.StagePolish).Attempts)
	assert.Equal(t, pipeline.StateSucceeded, stateOf(out, pipeline.StageIcons).State)
	assert.Equal(t, pipeline.StateSucceeded, stateOf(out, pipeline.StageFinalize).State)
	assert.Equal(t, 2, c.callsFor(pipeline.StagePolish))

	for _, s := range out.Spec.Slides[2:] {
		assert.True(t, strings.HasPrefix(s.Notes, "Sources: "), s.Title)
		assert.NotEmpty(t, s.Icons, s.Title)
	}
}

func TestRun_BudgetExhaustedSkipsStages(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{}}
	cfg := pipeline.DefaultConfig()
	cfg.Budget = pipeline.BudgetConfig{Total: time.Second, MinStage: 3 * time.Second, MaxStage: 10 * time.Second}
	p := newPipeline(t, c, cfg)

	var seen []pipeline.Stage
	out, err := p.Run(context.Background(), pipeline.Input{
		Index:    idx,
		Draft:    draft,
		Progress: func(s pipeline.Stage) { seen = append(seen, s) },
	})
	require.NoError(t, err)

	assert.Empty(t, c.calls)
	assert.Equal(t, pipeline.Stages, seen)
	for _, stage := range []pipeline.Stage{pipeline.StagePlanner, pipeline.StageStoryboard, pipeline.StagePolish} {
		r := stateOf(out, stage)
		assert.Equal(t, pipeline.StateSkipped, r.State, stage)
		assert.Equal(t, pipeline.ErrCodeBudget, r.Code, stage)
	}
	assert.False(t, out.Flags.PolishFailed)
	assertValid(t, out.Spec, idx, false)
}

func TestRun_Offline(t *testing.T) {
	idx, draft := setup(t)
	p := newPipeline(t, nil, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ErrCodeOffline, stateOf(out, pipeline.StagePlanner).Code)
	assert.Equal(t, pipeline.StateSkipped, stateOf(out, pipeline.StageStoryboard).State)
	assertValid(t, out.Spec, idx, false)
}

func TestRun_OfflineKeepsVersionedCertifications(t *testing.T) {
	idx, err := facts.BuildFromJSON([]byte(`{
		"company_name": "Acme Studio",
		"certifications": ["ISO 9001:2015", "ISO 14001:2015", "CE"]
	}`))
	require.NoError(t, err)
	p := newPipeline(t, nil, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: outline.Build(idx), Strict: true})
	require.NoError(t, err)

	assert.False(t, out.Flags.SafetyReduced)
	assert.Zero(t, out.Flags.DroppedSlides)
	var found bool
	for _, s := range out.Spec.Slides {
		for _, b := range s.Bullets {
			if strings.Contains(b.Text, "ISO 9001:2015") && strings.Contains(b.Text, "ISO 14001:2015") {
				found = true
			}
		}
	}
	assert.True(t, found, "certifications missing from %+v", out.Spec.Slides)
	assertValid(t, out.Spec, idx, true)
}

func TestRun_FactRepairDeletesUnresolvedContent(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{
		"storyboard": {`{"slides":[
			{"type":"text","title":"Company Overview","keyMessage":"Acme Studio builds robot arms.","bullets":[
				{"text":"Founded in 2010","sourceKeys":["company profile.founded"],"kind":"fact"},
				{"text":"Led by a veteran engineer","sourceKeys":["company profile.ceo"],"kind":"fact"}]},
			{"type":"text","title":"Markets","bullets":[
				{"text":"Sells across Europe and North America","sourceKeys":["main_markets"],"kind":"fact"}]}
		]}`},
		// the repair tries to swap in a path the slide never cited
		"critic": {`{"patches":[{"index":0,"slide":{"type":"text","title":"Company Overview","bullets":[
			{"text":"Founded in 2010","sourceKeys":["company profile.founded"]},
			{"text":"Led by a veteran engineer","sourceKeys":["main markets"]}]}}]}`},
	}}
	p := newPipeline(t, c, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft, Strict: true})
	require.NoError(t, err)

	require.Len(t, out.Spec.Slides, 4)
	overview := out.Spec.Slides[2]
	require.Len(t, overview.Bullets, 1)
	assert.Equal(t, "Founded in 2010", overview.Bullets[0].Text)
	assert.Equal(t, []string{"company profile.founded"}, overview.Bullets[0].SourceKeys)
	for _, s := range out.Spec.Slides {
		assert.NotContains(t, s.AllSourceKeys(), "company profile.ceo")
		assert.NotContains(t, s.Notes, "ceo")
	}
	assert.Equal(t, []string{"main markets"}, out.Spec.Slides[3].Bullets[0].SourceKeys)
	assert.Equal(t, "Sources: company profile.founded", overview.Notes)

	assert.Equal(t, 1, c.callsFor(pipeline.StageCritic))
	assert.Equal(t, 0, out.Flags.PatchedSlides)
	assert.Equal(t, 1, out.Flags.CriticRounds)
	assert.Equal(t, pipeline.StateSucceeded, stateOf(out, pipeline.StageCritic).State)
	assert.Equal(t, pipeline.StateSkipped, stateOf(out, pipeline.StageSafety).State)
	assertValid(t, out.Spec, idx, true)
}

func TestRun_CriticPatchesOnlyFailingSlides(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{
		"storyboard": {`{"slides":[
			{"type":"text","title":"Overview","bullets":[{"text":"Founded in 2010","sourceKeys":["company profile.founded"]}]},
			{"type":"text","title":"Markets","keyMessage":"Acme sells abroad. Europe leads.","bullets":[
				{"text":"Sells across Europe and North America","sourceKeys":["main markets"]}]}
		]}`},
		"critic": {`{"patches":[
			{"index":0,"slide":{"type":"text","title":"Rewritten","bullets":[{"text":"Founded in 2010","sourceKeys":["company profile.founded"]}]}},
			{"index":1,"slide":{"type":"text","title":"Markets","keyMessage":"Acme sells across two continents.","bullets":[
				{"text":"Sells across Europe and North America","sourceKeys":["main markets"]}]}}
		]}`},
	}}
	p := newPipeline(t, c, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft})
	require.NoError(t, err)

	content := out.Spec.Slides[2:]
	require.Len(t, content, 2)
	assert.Equal(t, "Overview", content[0].Title)
	assert.Equal(t, "Acme sells across two continents.", content[1].KeyMessage)
	assert.Equal(t, 1, out.Flags.PatchedSlides)
	assert.Equal(t, pipeline.StateSucceeded, stateOf(out, pipeline.StageCritic).State)

	var criticReq llm.JSONRequest
	for _, req := range c.calls {
		if req.Stage == string(pipeline.StageCritic) {
			criticReq = req
		}
	}
	require.Len(t, criticReq.Messages, 2)
	assert.Contains(t, criticReq.Messages[1].Content, "KEY_MESSAGE_MULTI_SENTENCE")
	assert.NotContains(t, criticReq.Messages[1].Content, `0: {`)
}

func TestRun_PolishKeepsCitations(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{
		"storyboard": {`{"slides":[
			{"type":"text","title":"Overview","bullets":[{"text":"The company was founded in 2010","sourceKeys":["company profile.founded"]}]}
		]}`},
		"polish": {
			errors.New("timeout"),
			`{"slides":[{"type":"cards","title":"About Acme","bullets":[{"text":"Founded in 2010","sourceKeys":["team size"]}]}]}`,
		},
	}}
	p := newPipeline(t, c, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft})
	require.NoError(t, err)

	assert.False(t, out.Flags.PolishFailed)
	r := stateOf(out, pipeline.StagePolish)
	assert.Equal(t, pipeline.StateSucceeded, r.State)
	assert.Equal(t, 2, r.Attempts)

	s := out.Spec.Slides[1]
	assert.Equal(t, slide.TypeText, s.Type)
	assert.Equal(t, "About Acme", s.Title)
	assert.Equal(t, "Founded in 2010", s.Bullets[0].Text)
	assert.Equal(t, []string{"company profile.founded"}, s.Bullets[0].SourceKeys)
}

func TestRun_FailsWhenNothingSurvives(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{
		"storyboard": {`{"slides":[
			{"type":"text","title":"Leadership","bullets":[{"text":"Run by a founder with 30 years in robotics","sourceKeys":["company profile.ceo"]}]}
		]}`},
	}}
	p := newPipeline(t, c, pipeline.DefaultConfig())

	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft, Strict: true})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, pipeline.IsFailure(err))

	var fe *pipeline.FailureError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Codes, string(validation.CodeMissingContent))
	assert.Contains(t, err.Error(), "no valid slides")
}

func TestRun_RequiresIndex(t *testing.T) {
	p := newPipeline(t, nil, pipeline.DefaultConfig())
	_, err := p.Run(context.Background(), pipeline.Input{})
	require.Error(t, err)
	assert.False(t, pipeline.IsFailure(err))
}

func TestStageError_Classification(t *testing.T) {
	idx, draft := setup(t)
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", context.DeadlineExceeded, pipeline.ErrCodeTimeout},
		{"rate limit", &llm.ProviderError{Provider: "jan", StatusCode: 429}, pipeline.ErrCodeRateLimit},
		{"server error", &llm.ProviderError{Provider: "jan", StatusCode: 502}, pipeline.ErrCodeProvider},
		{"not json", llm.ErrNoJSON, pipeline.ErrCodeInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedCompleter{replies: map[string][]any{"planner": {tt.err}}}
			p := newPipeline(t, c, pipeline.DefaultConfig())
			out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft})
			require.NoError(t, err)
			r := stateOf(out, pipeline.StagePlanner)
			assert.Equal(t, pipeline.StateFallback, r.State)
			assert.Equal(t, tt.code, r.Code)
		})
	}
}

func TestPlannerOutputIsSanitized(t *testing.T) {
	idx, draft := setup(t)
	c := &scriptedCompleter{replies: map[string][]any{
		"planner": {`{"sections":[
			{"id":"a","title":"Who we are","goal":"intro","slideType":"agenda","sourceKeys":["company_profile.founded","nope"],"images":["https://evil.example/x.png"]},
			{"id":"b","title":"  ","slideType":"text"}
		]}`},
	}}
	p := newPipeline(t, c, pipeline.DefaultConfig())
	out, err := p.Run(context.Background(), pipeline.Input{Index: idx, Draft: draft})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateSucceeded, stateOf(out, pipeline.StagePlanner).State)

	var storyboardReq llm.JSONRequest
	for _, req := range c.calls {
		if req.Stage == string(pipeline.StageStoryboard) {
			storyboardReq = req
		}
	}
	user := storyboardReq.Messages[1].Content
	start := strings.Index(user, "PLAN:\n") + len("PLAN:\n")
	end := strings.Index(user, "\n\nFACTS")
	var plan []pipeline.PlanSection
	require.NoError(t, json.Unmarshal([]byte(user[start:end]), &plan))
	require.Len(t, plan, 1)
	assert.Equal(t, slide.TypeText, plan[0].SlideType)
	assert.Equal(t, []string{"company profile.founded"}, plan[0].SourceKeys)
	assert.Empty(t, plan[0].Images)
}
