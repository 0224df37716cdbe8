// Package job defines the persisted lifecycle of one deck generation request.
package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/janhq/deck-server/internal/domain/slide"
)

// Mode selects where the deck is produced.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLocal || m == ModeRemote
}

// Job is one generation request and its outcome.
type Job struct {
	ID        string          `json:"id"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress"`
	Prompt    string          `json:"prompt"`
	Input     json.RawMessage `json:"input,omitempty"`
	Mode      Mode            `json:"mode"`
	Theme     string          `json:"theme,omitempty"`
	SlideSpec *slide.Spec     `json:"slide_spec,omitempty"`
	FilePath  string          `json:"file_path,omitempty"`
	// Remote mode only.
	RemoteID  string `json:"remote_id,omitempty"`
	RemoteURL string `json:"remote_url,omitempty"`
	ExportURL string `json:"export_url,omitempty"`

	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Status    *Status
	Progress  *int
	SlideSpec *slide.Spec
	FilePath  *string
	RemoteID  *string
	RemoteURL *string
	ExportURL *string
	Error     *string
}

// Apply validates and applies p at time now. Progress never decreases and is
// clamped to 0..100; reaching done sets it to 100. A failed job keeps the
// progress it reached.
func (j *Job) Apply(p Patch, now time.Time) error {
	if p.Status != nil && *p.Status != j.Status {
		next, err := j.Status.TransitionTo(*p.Status)
		if err != nil {
			return fmt.Errorf("%w: %s -> %s", err, j.Status, *p.Status)
		}
		j.Status = next
		if next.IsTerminal() {
			t := now
			j.CompletedAt = &t
		}
	}
	if p.Progress != nil {
		pr := min(max(*p.Progress, 0), 100)
		if pr > j.Progress {
			j.Progress = pr
		}
	}
	if j.Status == StatusDone {
		j.Progress = 100
	}
	if p.SlideSpec != nil {
		spec := p.SlideSpec.Clone()
		j.SlideSpec = &spec
	}
	if p.FilePath != nil {
		j.FilePath = *p.FilePath
	}
	if p.RemoteID != nil {
		j.RemoteID = *p.RemoteID
	}
	if p.RemoteURL != nil {
		j.RemoteURL = *p.RemoteURL
	}
	if p.ExportURL != nil {
		j.ExportURL = *p.ExportURL
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	j.UpdatedAt = now
	return nil
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	c := *j
	c.Input = append(json.RawMessage(nil), j.Input...)
	if j.SlideSpec != nil {
		spec := j.SlideSpec.Clone()
		c.SlideSpec = &spec
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Progress returns a patch that only raises progress.
func Progress(p int) Patch {
	return Patch{Progress: &p}
}

// Failed returns a patch that fails the job with msg.
func Failed(msg string) Patch {
	s := StatusFailed
	return Patch{Status: &s, Error: &msg}
}
