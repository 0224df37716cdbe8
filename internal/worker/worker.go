package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Worker claims pending jobs and runs them one at a time.
type Worker struct {
	id           int
	jobs         Jobs
	runner       *Runner
	pollInterval time.Duration
	taskTimeout  time.Duration
	log          zerolog.Logger
	stopChan     chan struct{}
}

// NewWorker creates a new background worker.
func NewWorker(id int, jobs Jobs, runner *Runner, pollInterval, taskTimeout time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		id:           id,
		jobs:         jobs,
		runner:       runner,
		pollInterval: pollInterval,
		taskTimeout:  taskTimeout,
		log:          log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:     make(chan struct{}),
	}
}

// Start processes jobs until ctx is done or Stop is called. After a job it
// claims again immediately instead of waiting for the next tick.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			for w.processNext(ctx) {
				select {
				case <-ctx.Done():
					return
				case <-w.stopChan:
					return
				default:
				}
			}
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

// processNext runs one job and reports whether one was claimed.
func (w *Worker) processNext(ctx context.Context) bool {
	j, err := w.jobs.Claim(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to claim job")
		return false
	}
	if j == nil {
		return false
	}

	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()
	w.runner.Run(taskCtx, j)
	return true
}
