package responses

import (
	"github.com/janhq/deck-server/internal/domain/deck"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// DeckJobResponse is the public view of a job.
type DeckJobResponse struct {
	ID          string      `json:"id"`
	Object      string      `json:"object"`
	Status      string      `json:"status"`
	Progress    int         `json:"progress"`
	Mode        string      `json:"mode"`
	Theme       string      `json:"theme,omitempty"`
	Error       string      `json:"error,omitempty"`
	SlideSpec   *slide.Spec `json:"slide_spec,omitempty"`
	DownloadURL string      `json:"download_url,omitempty"`
	RemoteID    string      `json:"remote_id,omitempty"`
	RemoteURL   string      `json:"remote_url,omitempty"`
	ExportURL   string      `json:"export_url,omitempty"`
	CreatedAt   int64       `json:"created_at"`
	UpdatedAt   int64       `json:"updated_at"`
	CompletedAt *int64      `json:"completed_at,omitempty"`
}

// ProgressEvent is one websocket snapshot of a job.
type ProgressEvent struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// PreviewResponse is the result of a synchronous preview.
type PreviewResponse struct {
	Object   string                `json:"object"`
	Theme    string                `json:"theme"`
	Spec     slide.Spec            `json:"slide_spec"`
	Planned  []layout.PlannedSlide `json:"planned_slides"`
	Layout   deck.LayoutSummary    `json:"layout"`
	Flags    pipeline.Flags        `json:"flags"`
	Trace    []pipeline.Report     `json:"trace"`
	Warnings []validation.Issue    `json:"warnings,omitempty"`
}

// ThemeListResponse lists theme names.
type ThemeListResponse struct {
	Object  string   `json:"object"`
	Default string   `json:"default"`
	Data    []string `json:"data"`
}

// MapJobToResponse converts a job into its public view.
func MapJobToResponse(j *job.Job) DeckJobResponse {
	resp := DeckJobResponse{
		ID:        j.ID,
		Object:    "deck.job",
		Status:    string(j.Status),
		Progress:  j.Progress,
		Mode:      string(j.Mode),
		Theme:     j.Theme,
		Error:     j.Error,
		SlideSpec: j.SlideSpec,
		RemoteID:  j.RemoteID,
		RemoteURL: j.RemoteURL,
		ExportURL: j.ExportURL,
		CreatedAt: j.CreatedAt.Unix(),
		UpdatedAt: j.UpdatedAt.Unix(),
	}
	if j.CompletedAt != nil {
		ts := j.CompletedAt.Unix()
		resp.CompletedAt = &ts
	}
	if j.Status == job.StatusDone && j.FilePath != "" {
		resp.DownloadURL = "/v1/decks/" + j.ID + "/download"
	}
	return resp
}

// MapJobToEvent converts a job into a progress snapshot.
func MapJobToEvent(j *job.Job) ProgressEvent {
	return ProgressEvent{
		Type:     "progress",
		ID:       j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Error:    j.Error,
	}
}

// MapPreview converts a generator result.
func MapPreview(res *deck.Result) PreviewResponse {
	return PreviewResponse{
		Object:   "deck.preview",
		Theme:    res.Theme,
		Spec:     res.Spec,
		Planned:  res.Planned,
		Layout:   res.Layout,
		Flags:    res.Flags,
		Trace:    res.Trace,
		Warnings: res.Warnings,
	}
}
