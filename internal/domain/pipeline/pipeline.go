// Package pipeline refines the deterministic outline into a validated slide
// spec through a fixed sequence of generative stages. Every generative stage
// has a deterministic fallback; only validation issues that survive the
// repair loop and the safety reduction fail a run.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/outline"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// Observer receives stage outcomes and validation issues, e.g. for metrics.
type Observer interface {
	ObserveStage(stage Stage, state State, d time.Duration)
	ObserveIssues(stage Stage, issues []validation.Issue)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(Stage, State, time.Duration) {}
func (nopObserver) ObserveIssues(Stage, []validation.Issue)  {}

// Config tunes a pipeline.
type Config struct {
	Budget          BudgetConfig
	MaxCriticRounds int
	// TopIssueCodes is how many issue codes a FailureError carries.
	TopIssueCodes int
	MaxSections   int
	Tone          slide.Tone
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Budget:          DefaultBudget(),
		MaxCriticRounds: 2,
		TopIssueCodes:   5,
		MaxSections:     8,
		Tone:            slide.ToneConfident,
	}
}

// Input is one generation request.
type Input struct {
	Instruction string
	Index       *facts.Index
	Draft       outline.Draft
	// Strict makes missing or unresolved source keys validation errors.
	Strict bool
	// Progress, if set, is called after each stage settles.
	Progress func(Stage)
}

// Flags summarize recoverable events of a run.
type Flags struct {
	PolishFailed  bool `json:"polishFailed"`
	SafetyReduced bool `json:"safetyReduced"`
	CriticRounds  int  `json:"criticRounds"`
	PatchedSlides int  `json:"patchedSlides"`
	DroppedSlides int  `json:"droppedSlides"`
}

// Output is the result of a successful run.
type Output struct {
	Spec     slide.Spec         `json:"spec"`
	Trace    []Report           `json:"trace"`
	Flags    Flags              `json:"flags"`
	Warnings []validation.Issue `json:"warnings,omitempty"`
}

// Pipeline runs the generative stages.
type Pipeline struct {
	completer llm.Completer
	prompts   *Prompts
	cfg       Config
	log       zerolog.Logger
	observer  Observer
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports stage outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline. A nil completer runs offline: every generative
// stage is skipped and the deterministic fallbacks are used.
func New(completer llm.Completer, cfg Config, log zerolog.Logger, opts ...Option) (*Pipeline, error) {
	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}
	def := DefaultConfig()
	if cfg.Budget.Total <= 0 {
		cfg.Budget = def.Budget
	}
	if cfg.MaxCriticRounds <= 0 {
		cfg.MaxCriticRounds = def.MaxCriticRounds
	}
	if cfg.TopIssueCodes <= 0 {
		cfg.TopIssueCodes = def.TopIssueCodes
	}
	if cfg.MaxSections <= 0 {
		cfg.MaxSections = def.MaxSections
	}
	if !cfg.Tone.Valid() || cfg.Tone == "" {
		cfg.Tone = def.Tone
	}
	p := &Pipeline{
		completer: completer,
		prompts:   prompts,
		cfg:       cfg,
		log:       log.With().Str("component", "pipeline").Logger(),
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes every stage in order and returns the final spec, or a
// *FailureError when validation issues survive the safety reduction.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Output, error) {
	if in.Index == nil {
		return nil, errors.New("pipeline: fact index is required")
	}
	extra := facts.NumberSet{}
	extra.AddText(in.Instruction)

	r := &run{
		p:      p,
		in:     in,
		budget: NewBudget(p.cfg.Budget, p.now),
		trace:  newTrace(),
		vctx: validation.Context{
			Index:         in.Index,
			AllowedImages: in.Draft.Images,
			Strict:        in.Strict,
			ExtraNumbers:  extra,
		},
	}

	plan := r.planner(ctx)
	slides := r.storyboard(ctx, plan)
	slides = r.polish(ctx, slides)
	slides = r.icons(slides)
	slides, res := r.critic(ctx, slides)
	slides, err := r.safety(slides, res)
	if err != nil {
		return nil, err
	}
	spec, warnings, err := r.finalize(slides)
	if err != nil {
		return nil, err
	}
	return &Output{Spec: spec, Trace: r.trace.Reports(), Flags: r.flags, Warnings: warnings}, nil
}

// run is the state of one Run call.
type run struct {
	p      *Pipeline
	in     Input
	vctx   validation.Context
	budget *Budget
	trace  *Trace
	flags  Flags

	factsDoc string
	numbers  facts.NumberSet
}

// stage shares of the usable remaining budget
var shares = map[Stage]float64{
	StagePlanner:    0.25,
	StageStoryboard: 0.4,
	StagePolish:     0.35,
	StageCritic:     0.5,
}

// call renders prompt and asks the completer for one JSON object. The budget
// is checked first; a stage that cannot get its minimum timeout is skipped.
func (r *run) call(ctx context.Context, stage Stage, prompt string, data promptData, retry bool, out any) *StageError {
	if r.p.completer == nil {
		return NewStageError(stage, ErrCodeOffline, "no text generation configured", SeveritySkippable)
	}
	if err := ctx.Err(); err != nil {
		return NewStageError(stage, ErrCodeBudget, "request cancelled", SeveritySkippable).WithCause(err)
	}
	timeout, ok := r.budget.StageTimeout(shares[stage])
	if !ok {
		return NewStageError(stage, ErrCodeBudget, "time budget exhausted", SeveritySkippable)
	}
	pr, err := r.p.prompts.Get(prompt)
	if err != nil {
		return NewStageError(stage, ErrCodeInvalidOutput, "prompt unavailable", SeverityFallback).WithCause(err)
	}
	msgs, err := pr.Messages(data, retry)
	if err != nil {
		return NewStageError(stage, ErrCodeInvalidOutput, "prompt rendering failed", SeverityFallback).WithCause(err)
	}
	req := llm.JSONRequest{
		Stage:       string(stage),
		Messages:    msgs,
		Temperature: pr.TemperatureFor(retry),
		Timeout:     timeout,
	}
	if err := r.p.completer.CompleteJSON(ctx, req, out); err != nil {
		return classify(stage, err)
	}
	return nil
}

// finish settles a stage in the trace, then logs and observes it.
func (r *run) finish(stage Stage, start time.Time, attempts int, serr *StageError) {
	rep := Report{Stage: stage, State: StateSucceeded, Attempts: attempts, Duration: r.p.now().Sub(start)}
	if serr != nil {
		rep.State = StateFallback
		if serr.Severity == SeveritySkippable {
			rep.State = StateSkipped
		}
		rep.Reason = serr.Message
		rep.Code = serr.Code
	}
	if err := r.trace.settle(rep); err != nil {
		r.p.log.Error().Err(err).Str("stage", string(stage)).Msg("stage settled twice")
		return
	}

	ev := r.p.log.Info()
	if serr != nil && rep.State == StateFallback {
		ev = r.p.log.Warn().Err(serr.Cause)
	}
	ev.Str("stage", string(stage)).
		Str("state", string(rep.State)).
		Int("attempts", attempts).
		Int64("duration_ms", rep.Duration.Milliseconds()).
		Str("reason", rep.Reason).
		Msg("pipeline stage finished")

	r.p.observer.ObserveStage(stage, rep.State, rep.Duration)
	if r.in.Progress != nil {
		r.in.Progress(stage)
	}
}

// skip settles a stage that had nothing to do.
func (r *run) skip(stage Stage, reason string) {
	r.finish(stage, r.p.now(), 0, NewStageError(stage, "", reason, SeveritySkippable))
}

func (r *run) validate(spec slide.Spec, stage Stage) validation.Result {
	res := validation.All(spec, r.vctx)
	if len(res.Issues) > 0 {
		r.p.observer.ObserveIssues(stage, res.Issues)
	}
	return res
}

// content wraps content slides in a spec for validation. The real cover
// title is used so deck-level checks behave as they will after finalize.
func (r *run) content(slides []slide.Slide) slide.Spec {
	return slide.Spec{PresentationTitle: r.in.Draft.Title, Slides: slides}
}

func (r *run) facts() string {
	if r.factsDoc != "" {
		return r.factsDoc
	}
	var sb strings.Builder
	for _, e := range r.in.Index.Vocabulary() {
		fmt.Fprintf(&sb, "%s: %s\n", e.Path, e.Value)
	}
	r.factsDoc = sb.String()
	return r.factsDoc
}

func (r *run) baseData() promptData {
	return promptData{
		Instruction:   strings.TrimSpace(r.in.Instruction),
		Title:         r.in.Draft.Title,
		Facts:         r.facts(),
		Tone:          string(r.p.cfg.Tone),
		InsightMarker: slide.InsightMarker,
		MaxSections:   r.p.cfg.MaxSections,
		MaxBullets:    slide.DefaultMaxBullets,
		MaxChars:      slide.DefaultMaxChars,
	}
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// indexed renders selected slides as "index: json" lines.
func indexed(slides []slide.Slide, only []int) string {
	var sb strings.Builder
	for _, i := range only {
		data, err := json.Marshal(slides[i])
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%d: %s\n", i, data)
	}
	return sb.String()
}

func issueList(issues []validation.Issue) string {
	var sb strings.Builder
	for _, is := range issues {
		if is.Severity != validation.SeverityError {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(is.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
