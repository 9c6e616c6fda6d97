package lessonplan

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lessonplan-backend/internal/domain"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type LessonPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *types.LessonPlan) (*types.LessonPlan, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LessonPlan, error)
	UpdateArtifactKey(ctx context.Context, tx *gorm.DB, id uuid.UUID, key string) error
	ListRecent(ctx context.Context, tx *gorm.DB, mode string, limit int) ([]*types.LessonPlan, error)
}

type lessonPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonPlanRepo(db *gorm.DB, baseLog *logger.Logger) LessonPlanRepo {
	repoLog := baseLog.With("repo", "LessonPlanRepo")
	return &lessonPlanRepo{db: db, log: repoLog}
}

func (r *lessonPlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *types.LessonPlan) (*types.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if plan == nil {
		return nil, errors.New("lesson plan required")
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

// GetByID returns (nil, nil) when no row matches.
func (r *lessonPlanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}

	var out types.LessonPlan
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *lessonPlanRepo) UpdateArtifactKey(ctx context.Context, tx *gorm.DB, id uuid.UUID, key string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return errors.New("lesson plan id required")
	}
	res := transaction.WithContext(ctx).
		Model(&types.LessonPlan{}).
		Where("id = ?", id).
		Update("artifact_key", strings.TrimSpace(key))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *lessonPlanRepo) ListRecent(ctx context.Context, tx *gorm.DB, mode string, limit int) ([]*types.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := transaction.WithContext(ctx).Model(&types.LessonPlan{})
	if m := strings.TrimSpace(mode); m != "" {
		q = q.Where("mode = ?", m)
	}
	var results []*types.LessonPlan
	if err := q.Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
