// Package domain re-exports the persisted domain types so storage code can
// depend on one import.
package domain

import "github.com/yungbote/lessonplan-backend/internal/domain/lessonplan"

const (
	ModeBatch       = lessonplan.ModeBatch
	ModePrelearning = lessonplan.ModePrelearning
	ModeSupplied    = lessonplan.ModeSupplied
)

type LessonPlan = lessonplan.LessonPlan
