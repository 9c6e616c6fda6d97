package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/data/repos/lessonplan"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type LessonPlanRepo = lessonplan.LessonPlanRepo

type Repos struct {
	LessonPlans LessonPlanRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		LessonPlans: lessonplan.NewLessonPlanRepo(db, log),
	}
}
