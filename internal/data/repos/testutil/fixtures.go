package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/domain"
)

func SeedTeacher(tb testing.TB, ctx context.Context, tx *gorm.DB, schoolID uuid.UUID, name string) *domain.Teacher {
	tb.Helper()
	t := &domain.Teacher{
		ID:       uuid.New(),
		SchoolID: schoolID,
		Name:     name,
		Active:   true,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed teacher: %v", err)
	}
	return t
}

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, schoolID, teacherID uuid.UUID, name string) *domain.Student {
	tb.Helper()
	s := &domain.Student{
		ID:              uuid.New(),
		SchoolID:        schoolID,
		TeacherID:       teacherID,
		Name:            name,
		ClassLabel:      "3-2",
		Active:          true,
		CurrentProgress: datatypes.NewJSONType(domain.DefaultProgressSnapshot()),
		ProgressSource:  domain.ProgressSourceDefault,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, a *domain.TaskAssignment) *domain.TaskAssignment {
	tb.Helper()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Content.Data().DateStamp == "" {
		a.Content = datatypes.NewJSONType(domain.TaskContent{DateStamp: a.DateStamp})
	}
	if a.Status == "" {
		a.Status = domain.TaskStatusPending
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

// SnapshotFor builds a small per-subject snapshot for seeding plans.
func SnapshotFor(grade, semester int, subjects map[string]domain.SubjectProgress) domain.ProgressSnapshot {
	return domain.ProgressSnapshot{Grade: grade, Semester: semester, Subjects: subjects}
}
