package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/domain/deck"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/infrastructure/observability"
	"github.com/janhq/deck-server/internal/infrastructure/storage"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/requests"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/responses"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

// JobService creates and reads deck jobs.
type JobService interface {
	Create(ctx context.Context, params job.CreateParams) (*job.Job, error)
	Get(ctx context.Context, id string) (*job.Job, error)
}

// Previewer plans a deck without rendering it.
type Previewer interface {
	Preview(ctx context.Context, req deck.Request, progress func(int)) (*deck.Result, error)
}

// ArtifactOpener reads stored decks.
type ArtifactOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// DeckHandler exposes HTTP entrypoints for deck jobs.
type DeckHandler struct {
	jobs          JobService
	previewer     Previewer
	store         ArtifactOpener
	contentType   string
	watchInterval time.Duration
	log           zerolog.Logger
}

// NewDeckHandler constructs the handler.
func NewDeckHandler(jobs JobService, previewer Previewer, store ArtifactOpener, cfg Config, log zerolog.Logger) *DeckHandler {
	if cfg.ArtifactContentType == "" {
		cfg.ArtifactContentType = "application/octet-stream"
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = 500 * time.Millisecond
	}
	return &DeckHandler{
		jobs:          jobs,
		previewer:     previewer,
		store:         store,
		contentType:   cfg.ArtifactContentType,
		watchInterval: cfg.WatchInterval,
		log:           log.With().Str("handler", "deck").Logger(),
	}
}

// Create handles POST /v1/decks
// @Summary Create a deck generation job
// @Description Validates the request and queues a pending job. Poll the job or watch it for progress.
// @Tags Decks
// @Accept json
// @Produce json
// @Param request body requests.CreateDeckRequest true "Deck request"
// @Success 202 {object} responses.DeckJobResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Failure 500 {object} platformerrors.HTTPErrorResponse
// @Router /v1/decks [post]
func (h *DeckHandler) Create(c *gin.Context) {
	var req requests.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "invalid request body: "+err.Error())
		return
	}

	j, err := h.jobs.Create(c.Request.Context(), job.CreateParams{
		Prompt: req.Prompt,
		Input:  req.Input,
		Mode:   job.Mode(req.Mode),
		Theme:  req.Theme,
	})
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	h.log.Info().Str("job_id", j.ID).Str("mode", string(j.Mode)).Msg("deck job queued")
	c.JSON(http.StatusAccepted, responses.MapJobToResponse(j))
}

// Get handles GET /v1/decks/:job_id
// @Summary Get a deck job
// @Description Returns status, progress, the slide spec once available and artifact links.
// @Tags Decks
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} responses.DeckJobResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/decks/{job_id} [get]
func (h *DeckHandler) Get(c *gin.Context) {
	j, err := h.jobs.Get(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.MapJobToResponse(j))
}

// Download handles GET /v1/decks/:job_id/download
// @Summary Download a rendered deck
// @Description Streams the deck file of a finished local job.
// @Tags Decks
// @Produce application/pdf
// @Param job_id path string true "Job ID"
// @Success 200 {file} binary
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Failure 409 {object} platformerrors.HTTPErrorResponse
// @Router /v1/decks/{job_id}/download [get]
func (h *DeckHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	j, err := h.jobs.Get(ctx, c.Param("job_id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}
	if j.Status != job.StatusDone || j.FilePath == "" {
		msg := "deck is not ready for download"
		if j.Mode == job.ModeRemote {
			msg = "remote decks are served by the generation service"
		}
		platformerrors.WriteError(c, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeConflict, msg, nil), h.log)
		return
	}

	rc, err := h.store.Open(ctx, j.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeNotFound, "deck file not found", err)
		}
		platformerrors.WriteError(c, err, h.log)
		return
	}
	defer rc.Close()

	filename := j.ID + path.Ext(j.FilePath)
	c.DataFromReader(http.StatusOK, -1, h.contentType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + filename + `"`,
	})
}

// Preview handles POST /v1/decks/preview
// @Summary Preview a deck
// @Description Runs facts, outline, the generation pipeline and layout synchronously without rendering.
// @Tags Decks
// @Accept json
// @Produce json
// @Param request body requests.PreviewDeckRequest true "Preview request"
// @Success 200 {object} responses.PreviewResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 504 {object} platformerrors.HTTPErrorResponse
// @Router /v1/decks/preview [post]
func (h *DeckHandler) Preview(c *gin.Context) {
	var req requests.PreviewDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if trimmed := bytes.TrimSpace(req.Input); len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		platformerrors.WriteValidationError(c, "input must be a JSON object")
		return
	}

	ctx := llm.ContextWithAuthToken(c.Request.Context(), c.GetHeader("Authorization"))
	ctx, span := observability.StartPreviewSpan(ctx, req.Theme)
	defer span.End()

	res, err := h.previewer.Preview(ctx, deck.Request{Prompt: req.Prompt, Input: req.Input, Theme: req.Theme}, func(pct int) {
		observability.AddProgressEvent(span, pct)
	})
	if err != nil {
		observability.RecordError(span, err)
		platformerrors.WriteError(c, previewError(ctx, err), h.log)
		return
	}
	c.JSON(http.StatusOK, responses.MapPreview(res))
}

func previewError(ctx context.Context, err error) error {
	var failure *pipeline.FailureError
	switch {
	case errors.As(err, &failure):
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, failure.Error(), err,
			map[string]any{"codes": failure.Codes})
	case errors.Is(err, context.DeadlineExceeded):
		return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeTimeout, "preview timed out", err)
	default:
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "preview failed")
	}
}
