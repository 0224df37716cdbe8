package entities

import (
	"time"

	"gorm.io/datatypes"
)

// TableName specifies the table name for Job.
func (Job) TableName() string {
	return "deck_api.deck_jobs"
}

// Job is the persisted deck job record.
type Job struct {
	ID          uint           `gorm:"primaryKey"`
	PublicID    string         `gorm:"uniqueIndex;size:64"`
	Status      string         `gorm:"size:16;index:idx_deck_jobs_status_created"`
	Progress    int            `gorm:"default:0"`
	Prompt      string         `gorm:"type:text"`
	InputJSON   datatypes.JSON `gorm:"column:input_json;type:jsonb"`
	Mode        string         `gorm:"size:16"`
	Theme       string         `gorm:"size:64"`
	SlideSpec   datatypes.JSON `gorm:"type:jsonb"`
	FilePath    string         `gorm:"type:text"`
	RemoteID    string         `gorm:"size:128"`
	RemoteURL   string         `gorm:"type:text"`
	ExportURL   string         `gorm:"type:text"`
	Error       string         `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
