// Package jobrepo persists deck jobs in PostgreSQL or in memory.
package jobrepo

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/slide"
	"github.com/janhq/deck-server/internal/infrastructure/database/entities"
)

func toEntity(j *job.Job) (*entities.Job, error) {
	e := &entities.Job{
		PublicID:    j.ID,
		Status:      string(j.Status),
		Progress:    j.Progress,
		Prompt:      j.Prompt,
		InputJSON:   datatypes.JSON(j.Input),
		Mode:        string(j.Mode),
		Theme:       j.Theme,
		FilePath:    j.FilePath,
		RemoteID:    j.RemoteID,
		RemoteURL:   j.RemoteURL,
		ExportURL:   j.ExportURL,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
	}
	if j.SlideSpec != nil {
		data, err := json.Marshal(j.SlideSpec)
		if err != nil {
			return nil, fmt.Errorf("encode slide spec: %w", err)
		}
		e.SlideSpec = datatypes.JSON(data)
	}
	return e, nil
}

func toDomain(e *entities.Job) (*job.Job, error) {
	j := &job.Job{
		ID:          e.PublicID,
		Status:      job.Status(e.Status),
		Progress:    e.Progress,
		Prompt:      e.Prompt,
		Input:       json.RawMessage(e.InputJSON),
		Mode:        job.Mode(e.Mode),
		Theme:       e.Theme,
		FilePath:    e.FilePath,
		RemoteID:    e.RemoteID,
		RemoteURL:   e.RemoteURL,
		ExportURL:   e.ExportURL,
		Error:       e.Error,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		CompletedAt: e.CompletedAt,
	}
	if len(e.SlideSpec) > 0 && string(e.SlideSpec) != "null" {
		var spec slide.Spec
		if err := json.Unmarshal(e.SlideSpec, &spec); err != nil {
			return nil, fmt.Errorf("decode slide spec: %w", err)
		}
		j.SlideSpec = &spec
	}
	return j, nil
}
