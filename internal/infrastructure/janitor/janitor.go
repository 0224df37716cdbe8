// Package janitor runs scheduled maintenance on the job table.
package janitor

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

// StaleReason is recorded on jobs failed by the sweep.
const StaleReason = "stale job: worker did not report progress"

// SweepTimeout bounds one sweep.
const SweepTimeout = time.Minute

// StaleFailer fails running jobs that have not been updated recently.
type StaleFailer interface {
	FailStale(ctx context.Context, olderThan time.Duration, reason string) (int64, error)
}

// Janitor periodically fails stale jobs.
type Janitor struct {
	ctab     *crontab.Crontab
	jobs     StaleFailer
	schedule string
	after    time.Duration
	log      zerolog.Logger
	onSwept  func(n int64)
}

// New creates a janitor. onSwept may be nil.
func New(jobs StaleFailer, schedule string, after time.Duration, onSwept func(int64), log zerolog.Logger) *Janitor {
	return &Janitor{
		ctab:     crontab.New(),
		jobs:     jobs,
		schedule: schedule,
		after:    after,
		log:      log.With().Str("component", "janitor").Logger(),
		onSwept:  onSwept,
	}
}

// Run sweeps once, then on the schedule until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	j.Sweep(ctx)

	if err := j.ctab.AddJob(j.schedule, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), SweepTimeout)
		defer cancel()
		j.Sweep(sweepCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add stale job sweep")
	}
	j.log.Info().Str("schedule", j.schedule).Dur("stale_after", j.after).Msg("stale job sweep scheduled")

	<-ctx.Done()
	j.ctab.Shutdown()
	return nil
}

// Sweep fails every running job not updated within the stale window.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	n, err := j.jobs.FailStale(ctx, j.after, StaleReason)
	if err != nil {
		j.log.Error().Err(err).Msg("stale job sweep failed")
		return 0
	}
	if n > 0 {
		j.log.Warn().Int64("jobs", n).Msg("failed stale jobs")
	}
	if j.onSwept != nil {
		j.onSwept(n)
	}
	return n
}
