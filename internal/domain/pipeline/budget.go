package pipeline

import "time"

// BudgetConfig bounds the generative part of a run.
type BudgetConfig struct {
	// Total is the global soft deadline for all stages.
	Total time.Duration
	// MinStage is the shortest timeout worth starting a stage with.
	MinStage time.Duration
	// MaxStage caps any single stage.
	MaxStage time.Duration
	// Reserve is kept back for the deterministic tail of the run.
	Reserve time.Duration
}

// DefaultBudget returns the budget used when none is configured.
func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		Total:    90 * time.Second,
		MinStage: 3 * time.Second,
		MaxStage: 30 * time.Second,
		Reserve:  2 * time.Second,
	}
}

// Budget tracks the remaining time of one run.
type Budget struct {
	cfg      BudgetConfig
	deadline time.Time
	now      func() time.Time
}

// NewBudget starts the clock.
func NewBudget(cfg BudgetConfig, now func() time.Time) *Budget {
	if now == nil {
		now = time.Now
	}
	return &Budget{cfg: cfg, deadline: now().Add(cfg.Total), now: now}
}

// Remaining is the time left before the soft deadline.
func (b *Budget) Remaining() time.Duration {
	left := b.deadline.Sub(b.now())
	if left < 0 {
		return 0
	}
	return left
}

// StageTimeout returns the timeout for a stage allowed to use share of the
// usable remaining time. It reports false when that cannot cover MinStage,
// in which case the stage must be skipped.
func (b *Budget) StageTimeout(share float64) (time.Duration, bool) {
	usable := b.Remaining() - b.cfg.Reserve
	if usable < b.cfg.MinStage {
		return 0, false
	}
	if share <= 0 || share > 1 {
		share = 1
	}
	timeout := time.Duration(float64(usable) * share)
	if timeout < b.cfg.MinStage {
		timeout = b.cfg.MinStage
	}
	if b.cfg.MaxStage > 0 && timeout > b.cfg.MaxStage {
		timeout = b.cfg.MaxStage
	}
	return timeout, true
}
