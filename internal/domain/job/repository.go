package job

import (
	"context"
	"time"
)

// Repository persists jobs. Implementations must make ClaimNextPending atomic
// so a pending job is handed to at most one caller.
type Repository interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// Update loads the job, applies patch with Job.Apply and stores it.
	Update(ctx context.Context, id string, patch Patch) (*Job, error)
	// ClaimNextPending moves the oldest pending job to running and returns
	// it, or nil when none is pending.
	ClaimNextPending(ctx context.Context) (*Job, error)
	// FailStale fails running jobs not updated since before.
	FailStale(ctx context.Context, before time.Time, reason string) (int64, error)
}
