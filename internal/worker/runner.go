package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/domain/deck"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/infrastructure/metrics"
	"github.com/janhq/deck-server/internal/infrastructure/observability"
	"github.com/janhq/deck-server/internal/utils/redact"
)

// Jobs is the part of the job service the workers use.
type Jobs interface {
	Claim(ctx context.Context) (*job.Job, error)
	Progress(ctx context.Context, id string, pct int) (*job.Job, error)
	Update(ctx context.Context, id string, p job.Patch) (*job.Job, error)
	Fail(ctx context.Context, id string, msg string) (*job.Job, error)
}

// Generator produces a deck for a request.
type Generator interface {
	Generate(ctx context.Context, req deck.Request, progress func(int)) (*deck.Result, error)
}

// Runner executes one claimed job and records its outcome.
type Runner struct {
	jobs      Jobs
	generator Generator
	log       zerolog.Logger
}

// NewRunner creates a runner.
func NewRunner(jobs Jobs, generator Generator, log zerolog.Logger) *Runner {
	return &Runner{jobs: jobs, generator: generator, log: log}
}

// Run generates j's deck. Status updates use ctx's parent values but not its
// deadline, so a timed out job is still marked failed.
func (r *Runner) Run(ctx context.Context, j *job.Job) {
	start := time.Now()
	ctx, span := observability.StartJobSpan(ctx, j.ID, string(j.Mode), j.Theme)
	defer span.End()
	observability.AddStatusTransition(span, string(job.StatusPending), string(job.StatusRunning))

	log := r.log.With().Str("job_id", j.ID).Str("mode", string(j.Mode)).Logger()
	log.Info().Str("prompt", redact.Preview(j.Prompt, j.ID, 0)).Msg("processing deck job")

	store := context.WithoutCancel(ctx)
	progress := func(pct int) {
		observability.AddProgressEvent(span, pct)
		if _, err := r.jobs.Progress(store, j.ID, pct); err != nil {
			log.Warn().Err(err).Int("progress", pct).Msg("failed to record progress")
		}
	}

	res, err := r.generator.Generate(ctx, deck.Request{
		ID:     j.ID,
		Prompt: j.Prompt,
		Input:  j.Input,
		Mode:   j.Mode,
		Theme:  j.Theme,
	}, progress)
	if err != nil {
		msg := failureMessage(err)
		observability.RecordError(span, err)
		observability.AddStatusTransition(span, string(job.StatusRunning), string(job.StatusFailed))
		log.Error().Err(err).Msg("deck job failed")
		if _, ferr := r.jobs.Fail(store, j.ID, msg); ferr != nil {
			log.Error().Err(ferr).Msg("failed to mark job as failed")
		}
		metrics.RecordJob(string(j.Mode), string(job.StatusFailed), time.Since(start).Seconds())
		return
	}

	if _, err := r.jobs.Update(store, j.ID, donePatch(res)); err != nil {
		log.Error().Err(err).Msg("failed to mark job as done")
		metrics.RecordJob(string(j.Mode), string(job.StatusFailed), time.Since(start).Seconds())
		return
	}
	observability.AddStatusTransition(span, string(job.StatusRunning), string(job.StatusDone))
	metrics.RecordJob(string(j.Mode), string(job.StatusDone), time.Since(start).Seconds())
	log.Info().
		Int("slides", len(res.Spec.Slides)).
		Int("pages", len(res.Planned)).
		Dur("duration", time.Since(start)).
		Msg("deck job completed")
}

func donePatch(res *deck.Result) job.Patch {
	done := job.StatusDone
	spec := res.Spec
	p := job.Patch{Status: &done, SlideSpec: &spec}
	if res.FilePath != "" {
		p.FilePath = &res.FilePath
	}
	if g := res.Remote; g != nil {
		p.RemoteID = &g.ID
		p.RemoteURL = &g.URL
		p.ExportURL = &g.ExportURL
	}
	return p
}

func failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "deck generation timed out: " + err.Error()
	}
	return err.Error()
}
