package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/data/repos/testutil"
	"github.com/classloop/classloop-backend/internal/domain"
)

func TestTaskAssignmentRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTaskAssignmentRepo(tx, testutil.Logger(t))

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Wang")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")
	date := "2026-09-01"

	auto := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindStandardTask, Title: "口算练习",
		DateStamp: date, AwardedExp: 5,
	})
	manual := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindStandardTask, Title: "加练",
		DateStamp: date, AwardedExp: 3, Overridden: true,
	})

	rows, err := repo.ListByStudentDate(ctx, tx, schoolID, student.ID, date)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByStudentDate: err=%v len=%d", err, len(rows))
	}

	// Status push stamps overridden and submitted_at.
	now := time.Now()
	updated, err := repo.UpdateStatusByIDs(ctx, tx, schoolID, []uuid.UUID{auto.ID}, domain.TaskStatusCompleted, &now)
	if err != nil || updated != 1 {
		t.Fatalf("UpdateStatusByIDs: err=%v updated=%d", err, updated)
	}
	got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{auto.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(got))
	}
	if !got[0].Overridden || got[0].Status != domain.TaskStatusCompleted || got[0].SubmittedAt == nil {
		t.Fatalf("after status push: overridden=%v status=%q submittedAt=%v", got[0].Overridden, got[0].Status, got[0].SubmittedAt)
	}

	if _, err := repo.IncrementAttempt(ctx, tx, schoolID, manual.ID); err != nil {
		t.Fatalf("IncrementAttempt: %v", err)
	}
	got, _ = repo.GetByIDs(ctx, tx, []uuid.UUID{manual.ID})
	if got[0].Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", got[0].Attempts)
	}
	if got[0].Status != domain.TaskStatusPending {
		t.Fatalf("IncrementAttempt changed status to %q", got[0].Status)
	}

	// Increment for a foreign school must touch nothing.
	affected, err := repo.IncrementAttempt(ctx, tx, uuid.New(), manual.ID)
	if err != nil || affected != 0 {
		t.Fatalf("cross-school IncrementAttempt: err=%v affected=%d", err, affected)
	}
}

func TestTaskAssignmentRepoPurgeProtections(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTaskAssignmentRepo(tx, testutil.Logger(t))

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Li")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaohong")
	date := "2026-09-01"
	settledAt := time.Now()

	plain := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindRoutineCheck, Title: "晨读", DateStamp: date,
	})
	overridden := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindStandardTask, Title: "手动补任务", DateStamp: date,
		Overridden: true,
	})
	settled := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindStandardTask, Title: "已结算", DateStamp: date,
		Status: domain.TaskStatusCompleted, SettledAt: &settledAt,
	})
	adjustment := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindManualAdjustment, Title: "结算汇总", DateStamp: date,
	})
	otherDay := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindRoutineCheck, Title: "昨日晨读", DateStamp: "2026-08-31",
	})

	purged, err := repo.PurgeGenerated(ctx, tx, schoolID, []uuid.UUID{student.ID}, date)
	if err != nil {
		t.Fatalf("PurgeGenerated: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1 (only the plain auto row)", purged)
	}

	survivors, err := repo.GetByIDs(ctx, tx, []uuid.UUID{plain.ID, overridden.ID, settled.ID, adjustment.ID, otherDay.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	left := make(map[uuid.UUID]bool, len(survivors))
	for _, row := range survivors {
		left[row.ID] = true
	}
	if left[plain.ID] {
		t.Fatal("plain auto row survived the purge")
	}
	for name, id := range map[string]uuid.UUID{
		"overridden": overridden.ID,
		"settled":    settled.ID,
		"adjustment": adjustment.ID,
		"other day":  otherDay.ID,
	} {
		if !left[id] {
			t.Fatalf("%s row was purged", name)
		}
	}
}

func TestTaskAssignmentRepoMarkSettledIsConditional(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTaskAssignmentRepo(tx, testutil.Logger(t))

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Zhao")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaogang")

	row := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindStandardTask, Title: "背诵", DateStamp: "2026-09-01",
		Status: domain.TaskStatusCompleted, AwardedExp: 8,
	})

	now := time.Now()
	won, err := repo.MarkSettled(ctx, tx, []uuid.UUID{row.ID}, now)
	if err != nil || won != 1 {
		t.Fatalf("first MarkSettled: err=%v won=%d", err, won)
	}

	won, err = repo.MarkSettled(ctx, tx, []uuid.UUID{row.ID}, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second MarkSettled: %v", err)
	}
	if won != 0 {
		t.Fatalf("second MarkSettled claimed %d rows, want 0", won)
	}

	got, _ := repo.GetByIDs(ctx, tx, []uuid.UUID{row.ID})
	if got[0].SettledAt == nil {
		t.Fatal("settled_at cleared")
	}
}

func TestTaskAssignmentRepoFastTrackPending(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTaskAssignmentRepo(tx, testutil.Logger(t))

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Sun")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoli")
	date := "2026-09-01"

	pending := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindRoutineCheck, Title: "晨读", DateStamp: date,
	})
	challenge := testutil.SeedAssignment(t, ctx, tx, &domain.TaskAssignment{
		SchoolID: schoolID, StudentID: student.ID,
		Kind: domain.TaskKindChallenge, Title: "背诵挑战", DateStamp: date,
	})

	kinds := []domain.TaskKind{domain.TaskKindRoutineCheck, domain.TaskKindStandardTask}
	passed, err := repo.FastTrackPending(ctx, tx, schoolID, student.ID, date, kinds, time.Now())
	if err != nil || passed != 1 {
		t.Fatalf("FastTrackPending: err=%v passed=%d", err, passed)
	}

	got, _ := repo.GetByIDs(ctx, tx, []uuid.UUID{pending.ID, challenge.ID})
	for _, row := range got {
		switch row.ID {
		case pending.ID:
			if row.Status != domain.TaskStatusCompleted {
				t.Fatalf("routine row status = %q, want completed", row.Status)
			}
		case challenge.ID:
			if row.Status != domain.TaskStatusPending {
				t.Fatalf("challenge row status = %q, want pending", row.Status)
			}
		}
	}
}
