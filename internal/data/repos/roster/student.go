package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

type StudentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, students []*domain.Student) ([]*domain.Student, error)
	GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*domain.Student, error)
	ActiveByTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*domain.Student, error)
	IncrementExperience(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, delta int) error
	UpdateProgress(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, snap domain.ProgressSnapshot, source domain.ProgressSource, at time.Time) error
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	repoLog := baseLog.With("repo", "StudentRepo")
	return &studentRepo{db: db, log: repoLog}
}

func (r *studentRepo) Create(ctx context.Context, tx *gorm.DB, students []*domain.Student) ([]*domain.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(students) == 0 {
		return []*domain.Student{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepo) GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*domain.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.Student
	if err := transaction.WithContext(ctx).
		Where("id = ?", studentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *studentRepo) ActiveByTeacher(ctx context.Context, tx *gorm.DB, teacherID uuid.UUID) ([]*domain.Student, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Student
	if err := transaction.WithContext(ctx).
		Where("teacher_id = ? AND active = ?", teacherID, true).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *studentRepo) IncrementExperience(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if delta == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&domain.Student{}).
		Where("id = ?", studentID).
		UpdateColumn("experience_total", gorm.Expr("experience_total + ?", delta)).Error
}

func (r *studentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, snap domain.ProgressSnapshot, source domain.ProgressSource, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.Student{}).
		Where("id = ?", studentID).
		Updates(map[string]any{
			"current_progress":    datatypes.NewJSONType(snap),
			"progress_source":     source,
			"progress_updated_at": at,
		}).Error
}
