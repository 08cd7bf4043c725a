package roster

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/data/repos/testutil"
	"github.com/classloop/classloop-backend/internal/domain"
)

func TestStudentRepoRosterAndExperience(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewStudentRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Wang")
	a := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaohong")
	testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")

	inactive := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaogang")
	if err := tx.Model(&domain.Student{}).Where("id = ?", inactive.ID).
		UpdateColumn("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := repo.ActiveByTeacher(ctx, tx, teacher.ID)
	if err != nil {
		t.Fatalf("ActiveByTeacher: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("roster = %d, want 2", len(active))
	}
	if active[0].Name != "Xiaohong" || active[1].Name != "Xiaoming" {
		t.Fatalf("roster order = %q, %q", active[0].Name, active[1].Name)
	}

	if err := repo.IncrementExperience(ctx, tx, a.ID, 12); err != nil {
		t.Fatalf("IncrementExperience: %v", err)
	}
	if err := repo.IncrementExperience(ctx, tx, a.ID, -2); err != nil {
		t.Fatalf("IncrementExperience negative: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ExperienceTotal != 10 {
		t.Fatalf("experience_total = %d, want 10", got.ExperienceTotal)
	}
}

func TestStudentRepoUpdateProgress(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewStudentRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Li")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")

	at := time.Now().Truncate(time.Second)
	snap := testutil.SnapshotFor(4, 1, map[string]domain.SubjectProgress{
		"math": {Unit: 2, Lesson: 3, Title: "亿以内数的写法"},
	})
	if err := repo.UpdateProgress(ctx, tx, student.ID, snap, domain.ProgressSourceLessonPlan, at); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, student.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProgressSource != domain.ProgressSourceLessonPlan {
		t.Fatalf("source = %q, want lesson_plan", got.ProgressSource)
	}
	if got.ProgressUpdatedAt == nil {
		t.Fatal("progress_updated_at not set")
	}
	cached := got.CurrentProgress.Data()
	if cached.Subjects["math"].Lesson != 3 {
		t.Fatalf("cached math lesson = %d, want 3", cached.Subjects["math"].Lesson)
	}
}
