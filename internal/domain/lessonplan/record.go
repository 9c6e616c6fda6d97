package lessonplan

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonPlan is a persisted generation run: what was asked, what came back,
// and where the rendered document lives.
type LessonPlan struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Mode string    `gorm:"column:mode;not null;index" json:"mode"`

	Board   string `gorm:"column:board;index" json:"board"`
	Grade   string `gorm:"column:grade" json:"grade"`
	Subject string `gorm:"column:subject;index" json:"subject"`
	Chapter string `gorm:"column:chapter" json:"chapter"`

	Request datatypes.JSON `gorm:"column:request" json:"request"`
	Result  datatypes.JSON `gorm:"column:result" json:"result"`
	// Flattened is the exact text handed to the document renderer.
	Flattened string `gorm:"column:flattened;type:text" json:"flattened"`

	Units       int    `gorm:"column:units;not null;default:0" json:"units"`
	FailedUnits int    `gorm:"column:failed_units;not null;default:0" json:"failed_units"`
	ArtifactKey string `gorm:"column:artifact_key" json:"artifact_key,omitempty"`
	RequestID   string `gorm:"column:request_id;index" json:"request_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonPlan) TableName() string { return "lesson_plan" }
