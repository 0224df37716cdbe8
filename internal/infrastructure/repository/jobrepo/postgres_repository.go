package jobrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/infrastructure/database/entities"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

// PostgresRepository implements job.Repository with GORM.
type PostgresRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ job.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a PostgreSQL-backed job repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func dbError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "job not found", err)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, msg, err)
}

// Create inserts a new job.
func (r *PostgresRepository) Create(ctx context.Context, j *job.Job) error {
	e, err := toEntity(j)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "encode job", err)
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return dbError(ctx, err, "failed to create job")
	}
	return nil
}

// Get loads a job by public ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*job.Job, error) {
	var e entities.Job
	if err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&e).Error; err != nil {
		return nil, dbError(ctx, err, "failed to load job")
	}
	return r.decode(ctx, &e)
}

// Update applies patch under a row lock so concurrent progress writes and
// terminal transitions are serialized.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch job.Patch) (*job.Job, error) {
	var out *job.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e entities.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("public_id = ?", id).First(&e).Error; err != nil {
			return dbError(ctx, err, "failed to lock job")
		}
		j, err := r.decode(ctx, &e)
		if err != nil {
			return err
		}
		if err := j.Apply(patch, r.now().UTC()); err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, err.Error(), err)
		}
		updated, err := toEntity(j)
		if err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "encode job", err)
		}
		updated.ID = e.ID
		if err := tx.Save(updated).Error; err != nil {
			return dbError(ctx, err, "failed to update job")
		}
		out = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const claimSQL = `
UPDATE deck_api.deck_jobs SET status = ?, updated_at = ?
WHERE id = (
    SELECT id FROM deck_api.deck_jobs
    WHERE status = ?
    ORDER BY created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING *`

// ClaimNextPending atomically moves the oldest pending job to running.
func (r *PostgresRepository) ClaimNextPending(ctx context.Context) (*job.Job, error) {
	var e entities.Job
	err := r.db.WithContext(ctx).
		Raw(claimSQL, string(job.StatusRunning), r.now().UTC(), string(job.StatusPending)).
		Scan(&e).Error
	if err != nil {
		return nil, dbError(ctx, err, "failed to claim job")
	}
	if e.ID == 0 {
		return nil, nil
	}
	return r.decode(ctx, &e)
}

// FailStale fails running jobs whose last update is older than before.
func (r *PostgresRepository) FailStale(ctx context.Context, before time.Time, reason string) (int64, error) {
	now := r.now().UTC()
	res := r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("status = ? AND updated_at < ?", string(job.StatusRunning), before).
		Updates(map[string]any{
			"status":       string(job.StatusFailed),
			"error":        reason,
			"updated_at":   now,
			"completed_at": now,
		})
	if res.Error != nil {
		return 0, dbError(ctx, res.Error, "failed to expire stale jobs")
	}
	return res.RowsAffected, nil
}

func (r *PostgresRepository) decode(ctx context.Context, e *entities.Job) (*job.Job, error) {
	j, err := toDomain(e)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal, "decode job", err)
	}
	return j, nil
}
