package planning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

type LessonPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *domain.LessonPlan) (*domain.LessonPlan, error)
	GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*domain.LessonPlan, error)
	ActiveByTeacherDate(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, date string) (*domain.LessonPlan, error)
	DeactivateByTeacherDate(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, date string) error
}

type lessonPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonPlanRepo(db *gorm.DB, baseLog *logger.Logger) LessonPlanRepo {
	repoLog := baseLog.With("repo", "LessonPlanRepo")
	return &lessonPlanRepo{db: db, log: repoLog}
}

func (r *lessonPlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *domain.LessonPlan) (*domain.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *lessonPlanRepo) GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*domain.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.LessonPlan
	if err := transaction.WithContext(ctx).
		Where("id = ?", planID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *lessonPlanRepo) ActiveByTeacherDate(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, date string) (*domain.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.LessonPlan
	err := transaction.WithContext(ctx).
		Where("teacher_id = ? AND plan_date = ? AND active = ?", teacherID, date, true).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *lessonPlanRepo) DeactivateByTeacherDate(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID, date string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.LessonPlan{}).
		Where("teacher_id = ? AND plan_date = ? AND active = ?", teacherID, date, true).
		UpdateColumn("active", false).Error
}
