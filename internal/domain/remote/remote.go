// Package remote hands a finished slide spec to an external generation
// service and waits for the result.
package remote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Status is the closed set of generation states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether polling can stop.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// provider vocabularies seen in the wild, lowercased
var statusWords = map[string]Status{
	"pending": StatusPending, "queued": StatusPending, "waiting": StatusPending,
	"created": StatusPending, "submitted": StatusPending, "scheduled": StatusPending,
	"running": StatusRunning, "processing": StatusRunning, "in_progress": StatusRunning,
	"in-progress": StatusRunning, "inprogress": StatusRunning, "generating": StatusRunning,
	"started": StatusRunning, "working": StatusRunning, "rendering": StatusRunning,
	"completed": StatusCompleted, "complete": StatusCompleted, "done": StatusCompleted,
	"succeeded": StatusCompleted, "success": StatusCompleted, "finished": StatusCompleted,
	"ready":  StatusCompleted,
	"failed": StatusFailed, "failure": StatusFailed, "error": StatusFailed, "errored": StatusFailed,
	"cancelled": StatusFailed, "canceled": StatusFailed, "timeout": StatusFailed,
	"timed_out": StatusFailed, "rejected": StatusFailed, "expired": StatusFailed,
}

// MapStatus maps a provider status onto Status. Unknown words count as
// running so polling continues until the deadline.
func MapStatus(raw string) Status {
	if s, ok := statusWords[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	if strings.TrimSpace(raw) == "" {
		return StatusPending
	}
	return StatusRunning
}

// Generation is one poll result.
type Generation struct {
	ID        string `json:"generationId"`
	Status    Status `json:"status"`
	URL       string `json:"url,omitempty"`
	ExportURL string `json:"exportUrl,omitempty"`
	Error     string `json:"error,omitempty"`
	// Progress is the provider's own percentage, when it reports one.
	Progress *int `json:"progress,omitempty"`
}

// Service is an external deck generation service.
type Service interface {
	Create(ctx context.Context, req Request) (string, error)
	Poll(ctx context.Context, id string) (Generation, error)
}

// ErrTimeout is returned when the generation does not finish in time.
var ErrTimeout = errors.New("remote generation timed out")

// GenerationError is a generation the provider reported as failed.
type GenerationError struct {
	ID     string
	Reason string
}

func (e *GenerationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("remote generation %s failed", e.ID)
	}
	return fmt.Sprintf("remote generation %s failed: %s", e.ID, e.Reason)
}

// PollerConfig tunes a Poller.
type PollerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	// Expected is the typical generation time progress is synthesized against.
	Expected time.Duration
	// MaxPollErrors consecutive poll failures abort the wait.
	MaxPollErrors int
}

// Poller waits for generations to finish.
type Poller struct {
	svc   Service
	cfg   PollerConfig
	log   zerolog.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller with defaults for zero config values.
func NewPoller(svc Service, cfg PollerConfig, log zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Expected <= 0 {
		cfg.Expected = 90 * time.Second
	}
	if cfg.MaxPollErrors <= 0 {
		cfg.MaxPollErrors = 5
	}
	return &Poller{
		svc:   svc,
		cfg:   cfg,
		log:   log.With().Str("component", "remote-poller").Logger(),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit creates a generation for req and waits for it. onProgress receives
// non-decreasing percentages below 100.
func (p *Poller) Submit(ctx context.Context, req Request, onProgress func(int)) (Generation, error) {
	id, err := p.svc.Create(ctx, req)
	if err != nil {
		return Generation{}, fmt.Errorf("create remote generation: %w", err)
	}
	if id == "" {
		return Generation{}, errors.New("create remote generation: empty generation id")
	}
	return p.Wait(ctx, id, onProgress)
}

// Wait polls id until it completes, fails or the timeout elapses.
func (p *Poller) Wait(ctx context.Context, id string, onProgress func(int)) (Generation, error) {
	start := p.now()
	deadline := start.Add(p.cfg.Timeout)
	tracker := progressTracker{expected: p.cfg.Expected}
	failures := 0

	for {
		g, err := p.svc.Poll(ctx, id)
		switch {
		case err != nil:
			failures++
			p.log.Warn().Err(err).Str("generation_id", id).Int("failures", failures).Msg("poll failed")
			if failures >= p.cfg.MaxPollErrors {
				return Generation{ID: id, Status: StatusFailed}, fmt.Errorf("poll remote generation: %w", err)
			}
		default:
			failures = 0
			g.ID = id
			switch g.Status {
			case StatusCompleted:
				return g, nil
			case StatusFailed:
				return g, &GenerationError{ID: id, Reason: g.Error}
			}
			if onProgress != nil {
				onProgress(tracker.next(p.now().Sub(start), g.Progress))
			}
		}

		if !p.now().Before(deadline) {
			return Generation{ID: id, Status: StatusFailed}, ErrTimeout
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return Generation{ID: id, Status: StatusFailed}, err
		}
	}
}

// MaxSynthetic caps synthesized progress; 100 is reserved for completion.
const MaxSynthetic = 95

// SyntheticProgress maps elapsed wait time onto 0..MaxSynthetic along an
// asymptotic curve that reaches about 63% of the cap at expected.
func SyntheticProgress(elapsed, expected time.Duration) int {
	if elapsed <= 0 || expected <= 0 {
		return 0
	}
	x := elapsed.Seconds() / expected.Seconds()
	pct := int(MaxSynthetic * (1 - math.Exp(-x)))
	return min(max(pct, 0), MaxSynthetic)
}

// progressTracker keeps reported progress monotonic.
type progressTracker struct {
	expected time.Duration
	last     int
}

func (t *progressTracker) next(elapsed time.Duration, reported *int) int {
	pct := SyntheticProgress(elapsed, t.expected)
	if reported != nil {
		pct = min(max(*reported, 0), 99)
	}
	if pct > t.last {
		t.last = pct
	}
	return t.last
}
