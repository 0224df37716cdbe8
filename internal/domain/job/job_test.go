package job_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/infrastructure/repository/jobrepo"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to job.Status
		ok       bool
	}{
		{job.StatusPending, job.StatusRunning, true},
		{job.StatusPending, job.StatusFailed, true},
		{job.StatusRunning, job.StatusDone, true},
		{job.StatusRunning, job.StatusFailed, true},
		{job.StatusPending, job.StatusDone, false},
		{job.StatusRunning, job.StatusPending, false},
		{job.StatusDone, job.StatusFailed, false},
		{job.StatusFailed, job.StatusRunning, false},
	}
	for _, tt := range tests {
		got, err := tt.from.TransitionTo(tt.to)
		if tt.ok {
			require.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, got)
		} else {
			assert.ErrorIs(t, err, job.ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, got)
		}
	}
	assert.True(t, job.StatusDone.IsTerminal())
	assert.False(t, job.StatusRunning.IsTerminal())
}

func TestJob_Apply(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j := &job.Job{ID: "deck_x", Status: job.StatusRunning, Progress: 40}

	require.NoError(t, j.Apply(job.Progress(20), now))
	assert.Equal(t, 40, j.Progress, "progress never decreases")

	require.NoError(t, j.Apply(job.Progress(250), now))
	assert.Equal(t, 100, j.Progress, "clamped")

	j = &job.Job{Status: job.StatusRunning, Progress: 70}
	require.NoError(t, j.Apply(job.Failed("boom"), now))
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.Equal(t, 70, j.Progress, "failure keeps progress")
	assert.Equal(t, "boom", j.Error)
	require.NotNil(t, j.CompletedAt)
	assert.Equal(t, now, *j.CompletedAt)

	err := j.Apply(job.Patch{Status: ptr(job.StatusDone)}, now)
	assert.ErrorIs(t, err, job.ErrInvalidTransition)

	j = &job.Job{Status: job.StatusRunning, Progress: 90}
	spec := slide.Spec{PresentationTitle: "Acme"}
	require.NoError(t, j.Apply(job.Patch{Status: ptr(job.StatusDone), SlideSpec: &spec, FilePath: ptr("decks/a.pdf")}, now))
	assert.Equal(t, 100, j.Progress)
	assert.Equal(t, "decks/a.pdf", j.FilePath)
	require.NotNil(t, j.SlideSpec)
	assert.Equal(t, "Acme", j.SlideSpec.PresentationTitle)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := job.NewService(jobrepo.NewMemoryRepository(), func(name string) bool { return name == "default" })

	tests := []struct {
		name    string
		params  job.CreateParams
		wantErr string
	}{
		{"valid", job.CreateParams{Prompt: "supplier deck", Input: json.RawMessage(`{"a": 1}`)}, ""},
		{"array input", job.CreateParams{Input: json.RawMessage(`[1,2]`)}, "JSON object"},
		{"broken json", job.CreateParams{Input: json.RawMessage(`{"a":`)}, "JSON object"},
		{"empty input", job.CreateParams{}, "JSON object"},
		{"bad mode", job.CreateParams{Input: json.RawMessage(`{}`), Mode: "cloud"}, "mode"},
		{"unknown theme", job.CreateParams{Input: json.RawMessage(`{}`), Theme: "neon"}, "unknown theme"},
		{"long prompt", job.CreateParams{Input: json.RawMessage(`{}`), Prompt: strings.Repeat("x", job.MaxPromptRunes+1)}, "prompt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := svc.Create(ctx, tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, job.StatusPending, j.Status)
			assert.Equal(t, job.ModeLocal, j.Mode)
			assert.JSONEq(t, `{"a":1}`, string(j.Input))

			got, err := svc.Get(ctx, j.ID)
			require.NoError(t, err)
			assert.Equal(t, j.ID, got.ID)
		})
	}
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := job.NewService(jobrepo.NewMemoryRepository(), nil)

	created, err := svc.Create(ctx, job.CreateParams{Input: json.RawMessage(`{"name":"Acme"}`), Mode: job.ModeRemote})
	require.NoError(t, err)

	claimed, err := svc.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, created.ID, claimed.ID)
	assert.Equal(t, job.StatusRunning, claimed.Status)

	again, err := svc.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, again, "a claimed job is not handed out twice")

	_, err = svc.Progress(ctx, created.ID, 55)
	require.NoError(t, err)
	failed, err := svc.Fail(ctx, created.ID, "final validation failed")
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, failed.Status)
	assert.Equal(t, 55, failed.Progress)

	_, err = svc.Get(ctx, "deck_01hzx3k9b7g6y2v1q0w8e5r4t3")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	_, err = svc.Get(ctx, "nope")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func ptr[T any](v T) *T { return &v }
