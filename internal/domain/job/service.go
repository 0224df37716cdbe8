package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/utils/deckid"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

const (
	MaxPromptRunes = 4000
	MaxInputBytes  = 1 << 20
)

// CreateParams contains parameters for creating a new job.
type CreateParams struct {
	Prompt string
	Input  json.RawMessage
	Mode   Mode
	Theme  string
}

// Service validates requests and moves jobs through their lifecycle.
type Service struct {
	repo    Repository
	themeOK func(name string) bool
	now     func() time.Time
	newID   func() string
}

// NewService creates a job service. themeOK reports whether a requested
// theme exists; nil accepts any name.
func NewService(repo Repository, themeOK func(name string) bool) *Service {
	return &Service{repo: repo, themeOK: themeOK, now: time.Now, newID: deckid.NewJob}
}

// Create validates params and stores a pending job.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Job, error) {
	if err := s.validate(params); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil)
	}
	mode := params.Mode
	if mode == "" {
		mode = ModeLocal
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, params.Input); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "input is not valid JSON", err)
	}

	now := s.now().UTC()
	j := &Job{
		ID:        s.newID(),
		Status:    StatusPending,
		Prompt:    strings.TrimSpace(params.Prompt),
		Input:     compact.Bytes(),
		Mode:      mode,
		Theme:     strings.TrimSpace(params.Theme),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create job")
	}
	return j, nil
}

func (s *Service) validate(p CreateParams) error {
	if utf8.RuneCountInString(p.Prompt) > MaxPromptRunes {
		return fmt.Errorf("prompt exceeds %d characters", MaxPromptRunes)
	}
	if len(p.Input) > MaxInputBytes {
		return fmt.Errorf("input exceeds %d bytes", MaxInputBytes)
	}
	trimmed := bytes.TrimSpace(p.Input)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return fmt.Errorf("input must be a JSON object")
	}
	if p.Mode != "" && !p.Mode.Valid() {
		return fmt.Errorf("mode must be %q or %q", ModeLocal, ModeRemote)
	}
	if t := strings.TrimSpace(p.Theme); t != "" && s.themeOK != nil && !s.themeOK(t) {
		return fmt.Errorf("unknown theme %q", t)
	}
	return nil
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	if !deckid.IsJob(id) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "job not found", nil)
	}
	return s.repo.Get(ctx, id)
}

// Claim hands the oldest pending job to the caller, or nil.
func (s *Service) Claim(ctx context.Context) (*Job, error) {
	return s.repo.ClaimNextPending(ctx)
}

// Progress raises a running job's progress.
func (s *Service) Progress(ctx context.Context, id string, pct int) (*Job, error) {
	return s.repo.Update(ctx, id, Progress(pct))
}

// Update applies an arbitrary patch.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Job, error) {
	return s.repo.Update(ctx, id, p)
}

// Fail records a terminal failure. Progress is preserved.
func (s *Service) Fail(ctx context.Context, id string, msg string) (*Job, error) {
	return s.repo.Update(ctx, id, Failed(msg))
}

// FailStale fails running jobs that stopped reporting progress.
func (s *Service) FailStale(ctx context.Context, olderThan time.Duration, reason string) (int64, error) {
	return s.repo.FailStale(ctx, s.now().UTC().Add(-olderThan), reason)
}
