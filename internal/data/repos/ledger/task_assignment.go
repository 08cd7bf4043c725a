package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

type TaskAssignmentRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*domain.TaskAssignment) ([]*domain.TaskAssignment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.TaskAssignment, error)
	ListByStudentDate(ctx context.Context, tx *gorm.DB, schoolID, studentID uuid.UUID, date string) ([]*domain.TaskAssignment, error)
	ListByStudentsDate(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, studentIDs []uuid.UUID, date string) ([]*domain.TaskAssignment, error)

	// PurgeGenerated hard-deletes one generation of auto-published rows:
	// auto kinds only, overridden=false, settled_at IS NULL, matching
	// date stamp. Overridden and settled rows always survive.
	PurgeGenerated(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, studentIDs []uuid.UUID, date string) (int64, error)

	// UpdateStatusByIDs bulk-transitions rows within one school and marks
	// them overridden. submittedAt is stamped when non-nil.
	UpdateStatusByIDs(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, ids []uuid.UUID, status domain.TaskStatus, submittedAt *time.Time) (int64, error)

	// FastTrackPending completes every still-pending row of the given
	// kinds for one student and day.
	FastTrackPending(ctx context.Context, tx *gorm.DB, schoolID, studentID uuid.UUID, date string, kinds []domain.TaskKind, at time.Time) (int64, error)

	IncrementAttempt(ctx context.Context, tx *gorm.DB, schoolID, id uuid.UUID) (int64, error)

	UnsettledCompleted(ctx context.Context, tx *gorm.DB, schoolID, studentID uuid.UUID, date string) ([]*domain.TaskAssignment, error)

	// MarkSettled is the atomic conditional update that closes the
	// double-credit race: only rows whose settled_at is still NULL are
	// claimed, and the affected-row count is the number actually won.
	MarkSettled(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) (int64, error)
}

type taskAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) TaskAssignmentRepo {
	repoLog := baseLog.With("repo", "TaskAssignmentRepo")
	return &taskAssignmentRepo{db: db, log: repoLog}
}

func (r *taskAssignmentRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*domain.TaskAssignment) ([]*domain.TaskAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*domain.TaskAssignment{}, nil
	}

	if err := transaction.WithContext(ctx).CreateInBatches(&rows, 200).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *taskAssignmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.TaskAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TaskAssignment
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskAssignmentRepo) ListByStudentDate(ctx context.Context, tx *gorm.DB, schoolID, studentID uuid.UUID, date string) ([]*domain.TaskAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TaskAssignment
	if err := transaction.WithContext(ctx).
		Where("school_id = ? AND student_id = ? AND date_stamp = ?", schoolID, studentID, date).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskAssignmentRepo) ListByStudentsDate(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, studentIDs []uuid.UUID, date string) ([]*domain.TaskAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TaskAssignment
	if len(studentIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("school_id = ? AND student_id IN ? AND date_stamp = ?", schoolID, studentIDs, date).
		Order("student_id, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskAssignmentRepo) PurgeGenerated(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, studentIDs []uuid.UUID, date string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(studentIDs) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Where("school_id = ? AND student_id IN ? AND date_stamp = ?", schoolID, studentIDs, date).
		Where("kind IN ?", domain.AutoGeneratedKinds()).
		Where("overridden = ? AND settled_at IS NULL", false).
		Delete(&domain.TaskAssignment{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *taskAssignmentRepo) UpdateStatusByIDs(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, ids []uuid.UUID, status domain.TaskStatus, submittedAt *time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return 0, nil
	}

	updates := map[string]any{
		"status":     status,
		"overridden": true,
	}
	if submittedAt != nil {
		updates["submitted_at"] = *submittedAt
	}

	res := transaction.WithContext(ctx).
		Model(&domain.TaskAssignment{}).
		Where("school_id = ? AND id IN ?", schoolID, ids).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *taskAssignmentRepo) FastTrackPending(ctx context.Context, tx *gorm.DB, schoolID, studentID uuid.UUID, date string, kinds []domain.TaskKind, at time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(kinds) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Model(&domain.TaskAssignment{}).
		Where("school_id = ? AND student_id = ? AND date_stamp = ?", schoolID, studentID, date).
		Where("kind IN ? AND status = ?", kinds, domain.TaskStatusPending).
		Updates(map[string]any{
			"status":       domain.TaskStatusCompleted,
			"overridden":   true,
			"submitted_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *taskAssignmentRepo) IncrementAttempt(ctx context.Context, tx *gorm.DB, schoolID, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&domain.TaskAssignment{}).
		Where("school_id = ? AND id = ?", schoolID, id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *taskAssignmentRepo) UnsettledCompleted(ctx context.Context, tx *gorm.DB, schoolID, studentID uuid.UUID, date string) ([]*domain.TaskAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TaskAssignment
	if err := transaction.WithContext(ctx).
		Where("school_id = ? AND student_id = ? AND date_stamp = ?", schoolID, studentID, date).
		Where("status = ? AND settled_at IS NULL", domain.TaskStatusCompleted).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskAssignmentRepo) MarkSettled(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Model(&domain.TaskAssignment{}).
		Where("id IN ? AND settled_at IS NULL", ids).
		UpdateColumn("settled_at", at)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
