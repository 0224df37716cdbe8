package remote

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/slide"
)

func TestMapStatus(t *testing.T) {
	tests := map[string]Status{
		"queued":      StatusPending,
		"":            StatusPending,
		"PROCESSING":  StatusRunning,
		"in_progress": StatusRunning,
		"Succeeded":   StatusCompleted,
		"done":        StatusCompleted,
		"canceled":    StatusFailed,
		"error":       StatusFailed,
		"thinking":    StatusRunning,
	}
	for raw, want := range tests {
		assert.Equal(t, want, MapStatus(raw), raw)
	}
}

func TestSyntheticProgress(t *testing.T) {
	expected := 60 * time.Second
	assert.Zero(t, SyntheticProgress(0, expected))

	prev := 0
	for s := 1; s <= 1200; s += 7 {
		p := SyntheticProgress(time.Duration(s)*time.Second, expected)
		assert.GreaterOrEqual(t, p, prev)
		assert.LessOrEqual(t, p, MaxSynthetic)
		prev = p
	}
	assert.Equal(t, 60, SyntheticProgress(expected, expected))
	assert.Equal(t, MaxSynthetic, SyntheticProgress(time.Hour, expected))
}

type scripted struct {
	polls []Generation
	errs  []error
	calls int
}

func (s *scripted) Create(context.Context, Request) (string, error) { return "gen-1", nil }

func (s *scripted) Poll(context.Context, string) (Generation, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Generation{}, s.errs[i]
	}
	if i >= len(s.polls) {
		return Generation{Status: StatusRunning}, nil
	}
	return s.polls[i], nil
}

func testPoller(svc Service, cfg PollerConfig) *Poller {
	p := NewPoller(svc, cfg, zerolog.Nop())
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }
	p.sleep = func(_ context.Context, d time.Duration) error {
		clock = clock.Add(d)
		return nil
	}
	return p
}

func TestPoller_ProgressIsMonotonicAndCapped(t *testing.T) {
	reported := 80
	svc := &scripted{polls: []Generation{
		{Status: StatusPending},
		{Status: StatusRunning},
		{Status: StatusRunning, Progress: &reported},
		{Status: StatusRunning},
		{Status: StatusCompleted, URL: "https://gen/1", ExportURL: "https://gen/1.pdf"},
	}}
	p := testPoller(svc, PollerConfig{Interval: 10 * time.Second, Expected: 30 * time.Second})

	var seen []int
	g, err := p.Submit(context.Background(), Request{}, func(pct int) { seen = append(seen, pct) })
	require.NoError(t, err)
	assert.Equal(t, "gen-1", g.ID)
	assert.Equal(t, "https://gen/1.pdf", g.ExportURL)

	require.Len(t, seen, 4)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 80, seen[2])
	assert.Equal(t, 80, seen[3], "synthetic progress never goes below a reported value")
}

func TestPoller_Failures(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		svc := &scripted{polls: []Generation{{Status: StatusFailed, Error: "quota"}}}
		_, err := testPoller(svc, PollerConfig{}).Wait(context.Background(), "gen-1", nil)
		var ge *GenerationError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "quota", ge.Reason)
	})
	t.Run("timeout", func(t *testing.T) {
		svc := &scripted{}
		_, err := testPoller(svc, PollerConfig{Interval: time.Second, Timeout: 5 * time.Second}).Wait(context.Background(), "gen-1", nil)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 6, svc.calls)
	})
	t.Run("poll errors", func(t *testing.T) {
		boom := errors.New("502")
		svc := &scripted{errs: []error{boom, boom, boom}}
		_, err := testPoller(svc, PollerConfig{MaxPollErrors: 3}).Wait(context.Background(), "gen-1", nil)
		assert.ErrorIs(t, err, boom)
	})
	t.Run("transient poll error", func(t *testing.T) {
		svc := &scripted{errs: []error{errors.New("502")}, polls: []Generation{{}, {Status: StatusCompleted}}}
		g, err := testPoller(svc, PollerConfig{}).Wait(context.Background(), "gen-1", nil)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, g.Status)
	})
}

func TestBuildRequest(t *testing.T) {
	spec := slide.Spec{
		PresentationTitle: "Acme Studio",
		Slides: []slide.Slide{
			{Type: slide.TypeTitle, Title: "Acme Studio", Subtitle: "Supplier profile"},
			{Type: slide.TypeAgenda, Title: "Agenda", Items: []string{"Overview", "Products"}},
			{Type: slide.TypeAgenda, Title: "Agenda (cont.)", Items: []string{"Contact"}},
			{Type: slide.TypeText, Title: "Overview", KeyMessage: "Founded in\n2009.", Bullets: []slide.Bullet{{Text: "Team of 85"}}, Images: []string{"https://img/a.png"}},
			{Type: slide.TypeBigNumber, Title: "Scale", BigNumber: &slide.BigNumber{Value: "85", Label: "employees"}},
		},
	}
	req := BuildRequest(spec, BuildOptions{Theme: "default"})

	assert.Equal(t, "Acme Studio", req.Title)
	assert.Equal(t, 5, req.NumCards)
	assert.Equal(t, "pdf", req.ExportAs)
	assert.Equal(t, "inputText", req.ImageOptions.Source)

	cards := strings.Split(req.InputText, CardBreak)
	require.Len(t, cards, 5)
	assert.Equal(t, "# Acme Studio\n\nSupplier profile\n", cards[0])
	assert.Contains(t, cards[1], "1. Overview\n2. Products")
	assert.Contains(t, cards[2], "3. Contact", "numbering continues on agenda pages")
	assert.Contains(t, cards[3], "**Founded in 2009.**")
	assert.Contains(t, cards[3], "- Team of 85")
	assert.Contains(t, cards[3], "![](https://img/a.png)")
	assert.Contains(t, cards[4], "## 85\nemployees")
}
