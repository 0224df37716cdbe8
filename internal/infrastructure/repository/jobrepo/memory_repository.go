package jobrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

// MemoryRepository is a thread-safe job.Repository for tests, the CLI and
// single-process deployments without a database.
type MemoryRepository struct {
	mu   sync.Mutex
	jobs map[string]*job.Job
	now  func() time.Time
}

var _ job.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: map[string]*job.Job{}, now: time.Now}
}

func notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "job not found", nil)
}

// Create stores a copy of j.
func (r *MemoryRepository) Create(ctx context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; ok {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "job already exists", nil)
	}
	r.jobs[j.ID] = j.Clone()
	return nil
}

// Get returns a copy of the stored job.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, notFound(ctx)
	}
	return j.Clone(), nil
}

// Update applies patch to the stored job.
func (r *MemoryRepository) Update(ctx context.Context, id string, patch job.Patch) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, notFound(ctx)
	}
	next := j.Clone()
	if err := next.Apply(patch, r.now().UTC()); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, err.Error(), err)
	}
	r.jobs[id] = next
	return next.Clone(), nil
}

// ClaimNextPending moves the oldest pending job to running.
func (r *MemoryRepository) ClaimNextPending(ctx context.Context) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*job.Job
	for _, j := range r.jobs {
		if j.Status == job.StatusPending {
			pending = append(pending, j)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.Slice(pending, func(a, b int) bool {
		if pending[a].CreatedAt.Equal(pending[b].CreatedAt) {
			return pending[a].ID < pending[b].ID
		}
		return pending[a].CreatedAt.Before(pending[b].CreatedAt)
	})
	running := job.StatusRunning
	if err := pending[0].Apply(job.Patch{Status: &running}, r.now().UTC()); err != nil {
		return nil, err
	}
	return pending[0].Clone(), nil
}

// FailStale fails running jobs not updated since before.
func (r *MemoryRepository) FailStale(ctx context.Context, before time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, j := range r.jobs {
		if j.Status != job.StatusRunning || !j.UpdatedAt.Before(before) {
			continue
		}
		if err := j.Apply(job.Failed(reason), r.now().UTC()); err == nil {
			n++
		}
	}
	return n, nil
}
