package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/classloop/classloop-backend/internal/data/repos/ledger"
	"github.com/classloop/classloop-backend/internal/data/repos/roster"
	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/apperr"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

type SetStatusResult struct {
	UpdatedCount int64       `json:"updated_count"`
	Missing      []uuid.UUID `json:"missing,omitempty"`
}

type ManualAssignmentInput struct {
	SchoolID  uuid.UUID       `json:"school_id"`
	StudentID uuid.UUID       `json:"student_id"`
	Kind      domain.TaskKind `json:"kind"`
	Title     string          `json:"title"`
	Category  string          `json:"category,omitempty"`
	Award     int             `json:"award"`
	DateStamp string          `json:"date_stamp"`
}

// TaskLedger exposes the row-level lifecycle operations. Every mutation
// is keyed by school id; ids from another school are rejected before any
// write.
type TaskLedger interface {
	SetStatus(ctx context.Context, schoolID, actorID uuid.UUID, ids []uuid.UUID, status domain.TaskStatus) (SetStatusResult, error)
	IncrementAttempt(ctx context.Context, schoolID, id uuid.UUID) error
	CreateManual(ctx context.Context, in ManualAssignmentInput) (*domain.TaskAssignment, error)
	DailyForStudent(ctx context.Context, schoolID, studentID uuid.UUID, date string) ([]*domain.TaskAssignment, error)
	DailyForTeacher(ctx context.Context, schoolID, teacherID uuid.UUID, date string) ([]*domain.TaskAssignment, error)
}

type taskLedger struct {
	tasks    ledger.TaskAssignmentRepo
	students roster.StudentRepo
	notify   Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewTaskLedger(tasks ledger.TaskAssignmentRepo, students roster.StudentRepo, notify Notifier, baseLog *logger.Logger) TaskLedger {
	return &taskLedger{
		tasks:    tasks,
		students: students,
		notify:   notify,
		log:      baseLog.With("service", "TaskLedger"),
		now:      time.Now,
	}
}

// SetStatus bulk-transitions assignments. An explicit status push is a
// manual act, so every touched row becomes overridden and survives later
// republishes. Unknown ids are reported, not fatal; a cross-tenant id is
// fatal and nothing is written.
func (s *taskLedger) SetStatus(ctx context.Context, schoolID, actorID uuid.UUID, ids []uuid.UUID, status domain.TaskStatus) (SetStatusResult, error) {
	if !status.Valid() {
		return SetStatusResult{}, apperr.New(400, "invalid_status", fmt.Errorf("unknown status %q", status))
	}
	if len(ids) == 0 {
		return SetStatusResult{}, nil
	}

	rows, err := s.tasks.GetByIDs(ctx, nil, ids)
	if err != nil {
		return SetStatusResult{}, err
	}

	found := make(map[uuid.UUID]bool, len(rows))
	valid := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.SchoolID != schoolID {
			return SetStatusResult{}, fmt.Errorf("assignment %s: %w", row.ID, apperr.ErrCrossTenantAccess)
		}
		found[row.ID] = true
		valid = append(valid, row.ID)
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	var submittedAt *time.Time
	if status == domain.TaskStatusSubmitted || status == domain.TaskStatusCompleted {
		now := s.now()
		submittedAt = &now
	}

	updated, err := s.tasks.UpdateStatusByIDs(ctx, nil, schoolID, valid, status, submittedAt)
	if err != nil {
		return SetStatusResult{}, err
	}

	if updated > 0 {
		s.notify.AssignmentsUpdated(actorID, updated)
	}
	return SetStatusResult{UpdatedCount: updated, Missing: missing}, nil
}

// IncrementAttempt bumps the retry counter without touching status or
// experience.
func (s *taskLedger) IncrementAttempt(ctx context.Context, schoolID, id uuid.UUID) error {
	affected, err := s.tasks.IncrementAttempt(ctx, nil, schoolID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("assignment %s: %w", id, apperr.ErrAssignmentNotFound)
	}
	return nil
}

// CreateManual inserts a single teacher ad-hoc row outside of any plan.
// Manual rows are born overridden.
func (s *taskLedger) CreateManual(ctx context.Context, in ManualAssignmentInput) (*domain.TaskAssignment, error) {
	if !in.Kind.Valid() {
		return nil, apperr.New(400, "invalid_kind", fmt.Errorf("unknown kind %q", in.Kind))
	}
	if _, err := domain.ParseDateStamp(in.DateStamp); err != nil {
		return nil, fmt.Errorf("date stamp %q: %w", in.DateStamp, apperr.ErrMalformedDate)
	}

	student, err := s.students.GetByID(ctx, nil, in.StudentID)
	if err != nil {
		return nil, err
	}
	if student.SchoolID != in.SchoolID {
		return nil, apperr.ErrCrossTenantAccess
	}

	row := &domain.TaskAssignment{
		SchoolID:   in.SchoolID,
		StudentID:  in.StudentID,
		Kind:       in.Kind,
		Title:      in.Title,
		Category:   in.Category,
		DateStamp:  in.DateStamp,
		Content:    datatypes.NewJSONType(domain.TaskContent{DateStamp: in.DateStamp}),
		Status:     domain.TaskStatusPending,
		AwardedExp: in.Award,
		Overridden: true,
	}
	created, err := s.tasks.CreateBatch(ctx, nil, []*domain.TaskAssignment{row})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *taskLedger) DailyForStudent(ctx context.Context, schoolID, studentID uuid.UUID, date string) ([]*domain.TaskAssignment, error) {
	if _, err := domain.ParseDateStamp(date); err != nil {
		return nil, fmt.Errorf("date %q: %w", date, apperr.ErrMalformedDate)
	}
	return s.tasks.ListByStudentDate(ctx, nil, schoolID, studentID, date)
}

func (s *taskLedger) DailyForTeacher(ctx context.Context, schoolID, teacherID uuid.UUID, date string) ([]*domain.TaskAssignment, error) {
	if _, err := domain.ParseDateStamp(date); err != nil {
		return nil, fmt.Errorf("date %q: %w", date, apperr.ErrMalformedDate)
	}
	students, err := s.students.ActiveByTeacher(ctx, nil, teacherID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	return s.tasks.ListByStudentsDate(ctx, nil, schoolID, ids, date)
}
