package jobrepo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/slide"
)

func seed(t *testing.T, r *MemoryRepository, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, r.Create(context.Background(), &job.Job{
			ID:        fmt.Sprintf("deck_%02d", i),
			Status:    job.StatusPending,
			Input:     []byte(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base,
		}))
	}
}

func TestMemoryRepository_ClaimIsExclusive(t *testing.T) {
	r := NewMemoryRepository()
	seed(t, r, 20)

	var (
		mu      sync.Mutex
		claimed = map[string]int{}
		wg      sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				j, err := r.ClaimNextPending(context.Background())
				if err != nil || j == nil {
					return
				}
				mu.Lock()
				claimed[j.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, 20)
	for id, n := range claimed {
		assert.Equal(t, 1, n, id)
	}
}

func TestMemoryRepository_ClaimsOldestFirst(t *testing.T) {
	r := NewMemoryRepository()
	seed(t, r, 3)
	j, err := r.ClaimNextPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deck_00", j.ID)
}

func TestMemoryRepository_FailStale(t *testing.T) {
	r := NewMemoryRepository()
	seed(t, r, 2)
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, err := r.ClaimNextPending(context.Background())
	require.NoError(t, err)

	n, err := r.FailStale(context.Background(), now.Add(time.Minute), "stale job")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	j, err := r.Get(context.Background(), "deck_00")
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.Equal(t, "stale job", j.Error)

	pending, err := r.Get(context.Background(), "deck_01")
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, pending.Status, "only running jobs expire")
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepository()
	seed(t, r, 1)
	j, err := r.Get(context.Background(), "deck_00")
	require.NoError(t, err)
	j.Status = job.StatusDone

	stored, err := r.Get(context.Background(), "deck_00")
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, stored.Status)
}

func TestMapping_RoundTrip(t *testing.T) {
	done := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	in := &job.Job{
		ID: "deck_a", Status: job.StatusDone, Progress: 100, Input: []byte(`{"a":1}`),
		Mode: job.ModeLocal, SlideSpec: &slide.Spec{PresentationTitle: "Acme"}, CompletedAt: &done,
	}
	e, err := toEntity(in)
	require.NoError(t, err)
	out, err := toDomain(e)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, "Acme", out.SlideSpec.PresentationTitle)
	assert.Equal(t, done, *out.CompletedAt)
}
