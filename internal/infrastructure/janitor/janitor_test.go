package janitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/infrastructure/repository/jobrepo"
)

type fakeJobs struct {
	n      int64
	err    error
	after  time.Duration
	reason string
}

func (f *fakeJobs) FailStale(_ context.Context, olderThan time.Duration, reason string) (int64, error) {
	f.after, f.reason = olderThan, reason
	return f.n, f.err
}

func TestSweep(t *testing.T) {
	jobs := &fakeJobs{n: 2}
	var swept []int64
	j := New(jobs, "* * * * *", 15*time.Minute, func(n int64) { swept = append(swept, n) }, zerolog.Nop())

	assert.Equal(t, int64(2), j.Sweep(context.Background()))
	assert.Equal(t, 15*time.Minute, jobs.after)
	assert.Equal(t, StaleReason, jobs.reason)
	assert.Equal(t, []int64{2}, swept)

	jobs.err = errors.New("db down")
	assert.Zero(t, j.Sweep(context.Background()))
	assert.Len(t, swept, 1)
}

func TestSweep_FailsRunningJobs(t *testing.T) {
	ctx := context.Background()
	svc := job.NewService(jobrepo.NewMemoryRepository(), func(string) bool { return true })
	created, err := svc.Create(ctx, job.CreateParams{Prompt: "p", Input: []byte(`{"a":1}`)})
	require.NoError(t, err)
	_, err = svc.Claim(ctx)
	require.NoError(t, err)
	_, err = svc.Create(ctx, job.CreateParams{Prompt: "still pending", Input: []byte(`{"a":1}`)})
	require.NoError(t, err)

	// a negative window makes every running job stale
	j := New(svc, "* * * * *", -time.Hour, nil, zerolog.Nop())
	assert.Equal(t, int64(1), j.Sweep(ctx))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, StaleReason, got.Error)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := &fakeJobs{}
	assert.NoError(t, New(jobs, "*/5 * * * *", time.Minute, nil, zerolog.Nop()).Run(ctx))
	assert.Equal(t, StaleReason, jobs.reason)

	assert.Error(t, New(jobs, "not a schedule", time.Minute, nil, zerolog.Nop()).Run(ctx))
}
