// Package deck runs one generation request end to end: facts, outline,
// generative pipeline, layout, then either local rendering and storage or a
// remote generation service.
package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/outline"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/remote"
	"github.com/janhq/deck-server/internal/domain/render"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/theme"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// Progress checkpoints reported to callers.
const (
	ProgressFacts   = 5
	ProgressOutline = 10
	ProgressLayout  = 85
	ProgressRender  = 90
	ProgressStored  = 99
	ProgressDone    = 100
)

var stageProgress = map[pipeline.Stage]int{
	pipeline.StagePlanner:    20,
	pipeline.StageStoryboard: 35,
	pipeline.StagePolish:     50,
	pipeline.StageIcons:      55,
	pipeline.StageCritic:     70,
	pipeline.StageSafety:     75,
	pipeline.StageFinalize:   80,
}

// ErrRemoteUnavailable is returned for remote requests when no generation
// service is configured.
var ErrRemoteUnavailable = errors.New("remote generation service is not configured")

// Backend produces a binary deck from drawing calls.
type Backend interface {
	NewCanvas(t theme.Theme) (render.Canvas, error)
	// Measurer measures text the way the canvas draws it. It is used to
	// verify layouts after planning.
	Measurer(t theme.Theme) layout.Measurer
	ContentType() string
	Extension() string
}

// ArtifactStore keeps rendered decks.
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Observer receives layout and render outcomes, e.g. for metrics.
type Observer interface {
	ObserveLayout(res layout.Result)
	ObserveRender(stats render.Stats, d time.Duration)
}

// Request is one deck to produce.
type Request struct {
	ID     string
	Prompt string
	Input  []byte
	Mode   job.Mode
	Theme  string
}

// Result is everything a run produced.
type Result struct {
	Spec     slide.Spec            `json:"spec"`
	Planned  []layout.PlannedSlide `json:"planned"`
	Layout   LayoutSummary         `json:"layout"`
	Theme    string                `json:"theme"`
	Flags    pipeline.Flags        `json:"flags"`
	Trace    []pipeline.Report     `json:"trace"`
	Warnings []validation.Issue    `json:"warnings,omitempty"`

	FilePath string             `json:"filePath,omitempty"`
	Render   *render.Stats      `json:"render,omitempty"`
	Remote   *remote.Generation `json:"remote,omitempty"`
}

// LayoutSummary reports how the layout pass degraded.
type LayoutSummary struct {
	Passes     int                     `json:"passes"`
	Replanned  int                     `json:"replanned"`
	Safe       int                     `json:"safe"`
	Strategies map[layout.Strategy]int `json:"strategies"`
}

// Config tunes a Generator.
type Config struct {
	Strict         bool
	NotesPages     bool
	ImageCacheSize int
	// ExportAs is the format requested from the remote service.
	ExportAs string
}

// Generator wires the domain packages together.
type Generator struct {
	pipeline *pipeline.Pipeline
	themes   *theme.Registry
	backend  Backend
	images   render.ImageSource
	store    ArtifactStore
	poller   *remote.Poller
	cfg      Config
	log      zerolog.Logger
	observer Observer
}

// Dependencies groups the collaborators of a Generator. Backend and Store
// are required for local mode, Poller for remote mode.
type Dependencies struct {
	Pipeline *pipeline.Pipeline
	Themes   *theme.Registry
	Backend  Backend
	Images   render.ImageSource
	Store    ArtifactStore
	Poller   *remote.Poller
	Observer Observer
}

// NewGenerator creates a generator.
func NewGenerator(deps Dependencies, cfg Config, log zerolog.Logger) (*Generator, error) {
	if deps.Pipeline == nil {
		return nil, errors.New("deck: pipeline is required")
	}
	if deps.Themes == nil {
		return nil, errors.New("deck: theme registry is required")
	}
	return &Generator{
		pipeline: deps.Pipeline,
		themes:   deps.Themes,
		backend:  deps.Backend,
		images:   deps.Images,
		store:    deps.Store,
		poller:   deps.Poller,
		cfg:      cfg,
		log:      log.With().Str("component", "deck-generator").Logger(),
		observer: deps.Observer,
	}, nil
}

// Preview builds and lays out the deck without producing an artifact.
func (g *Generator) Preview(ctx context.Context, req Request, progress func(int)) (*Result, error) {
	report := reporter(progress)

	idx, err := facts.BuildFromJSON(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	report(ProgressFacts)

	draft := outline.Build(idx)
	report(ProgressOutline)

	out, err := g.pipeline.Run(ctx, pipeline.Input{
		Instruction: req.Prompt,
		Index:       idx,
		Draft:       draft,
		Strict:      g.cfg.Strict,
		Progress:    func(s pipeline.Stage) { report(stageProgress[s]) },
	})
	if err != nil {
		return nil, err
	}

	t := g.themes.Resolve(req.Theme)
	var verify layout.Measurer
	if g.backend != nil {
		verify = g.backend.Measurer(t)
	}
	engine := layout.NewEngine(t, layout.HeuristicMeasurer{CharWidth: t.CharWidth})
	planned := engine.PlanDeck(out.Spec.Slides, verify)
	if g.observer != nil {
		g.observer.ObserveLayout(planned)
	}
	report(ProgressLayout)

	g.log.Info().
		Str("job_id", req.ID).
		Int("slides", len(planned.Slides)).
		Int("layout_passes", planned.Passes).
		Int("layout_safe", planned.Safe).
		Bool("polish_failed", out.Flags.PolishFailed).
		Bool("safety_reduced", out.Flags.SafetyReduced).
		Msg("deck planned")

	return &Result{
		Spec:    out.Spec,
		Planned: planned.Slides,
		Layout: LayoutSummary{
			Passes:     planned.Passes,
			Replanned:  planned.Replanned,
			Safe:       planned.Safe,
			Strategies: planned.Strategies(),
		},
		Theme:    t.Name,
		Flags:    out.Flags,
		Trace:    out.Trace,
		Warnings: out.Warnings,
	}, nil
}

// Generate runs Preview and then produces the deck in req.Mode.
func (g *Generator) Generate(ctx context.Context, req Request, progress func(int)) (*Result, error) {
	if req.Mode == job.ModeRemote && g.poller == nil {
		return nil, ErrRemoteUnavailable
	}
	res, err := g.Preview(ctx, req, progress)
	if err != nil {
		return nil, err
	}
	report := reporter(progress)

	if req.Mode == job.ModeRemote {
		if err := g.generateRemote(ctx, req, res, report); err != nil {
			return nil, err
		}
		return res, nil
	}
	if err := g.renderLocal(ctx, req, res, report); err != nil {
		return nil, err
	}
	return res, nil
}

func (g *Generator) renderLocal(ctx context.Context, req Request, res *Result, report func(int)) error {
	if g.backend == nil || g.store == nil {
		return errors.New("deck: local rendering is not configured")
	}
	t := g.themes.Resolve(res.Theme)
	report(ProgressRender)

	start := time.Now()
	canvas, err := g.backend.NewCanvas(t)
	if err != nil {
		return fmt.Errorf("open canvas: %w", err)
	}
	cache, err := render.NewImageCache(g.images, g.cfg.ImageCacheSize, g.log)
	if err != nil {
		return err
	}
	r := render.New(t, g.backend.Measurer(t), g.log, render.Options{Notes: g.cfg.NotesPages})
	stats, err := r.Render(ctx, res.Planned, cache, canvas)
	if err != nil {
		return fmt.Errorf("render deck: %w", err)
	}
	var buf bytes.Buffer
	if err := canvas.Close(&buf); err != nil {
		return fmt.Errorf("write deck: %w", err)
	}
	if g.observer != nil {
		g.observer.ObserveRender(stats, time.Since(start))
	}
	report(ProgressRender + 5)

	key := ArtifactKey(req.ID, g.backend.Extension())
	if err := g.store.Put(ctx, key, &buf, int64(buf.Len()), g.backend.ContentType()); err != nil {
		return fmt.Errorf("store deck: %w", err)
	}
	report(ProgressStored)

	res.FilePath = key
	res.Render = &stats
	return nil
}

func (g *Generator) generateRemote(ctx context.Context, req Request, res *Result, report func(int)) error {
	report(ProgressRender)
	body := remote.BuildRequest(res.Spec, remote.BuildOptions{Theme: res.Theme, ExportAs: g.cfg.ExportAs, Instructions: req.Prompt})
	gen, err := g.poller.Submit(ctx, body, func(pct int) {
		report(ProgressRender + pct*(ProgressStored-ProgressRender)/100)
	})
	if err != nil {
		return err
	}
	report(ProgressStored)
	res.Remote = &gen
	return nil
}

// ArtifactKey is the storage key of a job's deck.
func ArtifactKey(jobID, ext string) string {
	if jobID == "" {
		jobID = "preview"
	}
	return "decks/" + jobID + ext
}

// reporter drops nil callbacks and zero checkpoints.
func reporter(progress func(int)) func(int) {
	return func(p int) {
		if progress != nil && p > 0 {
			progress(p)
		}
	}
}
