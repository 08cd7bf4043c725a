package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classloop/classloop-backend/internal/data/repos"
	"github.com/classloop/classloop-backend/internal/data/repos/ledger"
	"github.com/classloop/classloop-backend/internal/data/repos/planning"
	"github.com/classloop/classloop-backend/internal/data/repos/roster"
	"github.com/classloop/classloop-backend/internal/data/repos/testutil"
	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/apperr"
)

type engineFixture struct {
	tx         *gorm.DB
	students   roster.StudentRepo
	plans      planning.LessonPlanRepo
	tasks      ledger.TaskAssignmentRepo
	publisher  PlanPublisher
	ledger     TaskLedger
	settlement Settlement
	progress   ProgressService
}

func newEngineFixture(t *testing.T, tx *gorm.DB) *engineFixture {
	t.Helper()
	log := testutil.Logger(t)
	students := roster.NewStudentRepo(tx, log)
	plans := planning.NewLessonPlanRepo(tx, log)
	tasks := ledger.NewTaskAssignmentRepo(tx, log)
	txr := repos.NewGormTxRunner(tx)
	notify := NopNotifier{}
	return &engineFixture{
		tx:         tx,
		students:   students,
		plans:      plans,
		tasks:      tasks,
		publisher:  NewPlanPublisher(txr, plans, students, tasks, notify, log),
		ledger:     NewTaskLedger(tasks, students, notify, log),
		settlement: NewSettlement(txr, tasks, students, notify, time.Local, log),
		progress:   NewProgressService(txr, students, tasks, log),
	}
}

func mathPlan(schoolID, teacherID uuid.UUID, date string) PlanInput {
	return PlanInput{
		SchoolID:  schoolID,
		TeacherID: teacherID,
		Title:     "周一教学计划",
		Date:      date,
		Snapshot: domain.ProgressSnapshot{
			Grade: 4, Semester: 1,
			Subjects: map[string]domain.SubjectProgress{
				"math":    {Unit: 1, Lesson: 2},
				"chinese": {Unit: 1, Lesson: 1},
			},
		},
	}
}

func standardTemplates() []TaskTemplate {
	return []TaskTemplate{
		{Kind: domain.TaskKindRoutineCheck, Subject: "chinese", Title: "晨读打卡", Category: "routine", Award: 2},
		{Kind: domain.TaskKindStandardTask, Subject: "math", Title: "口算练习", Category: "math", Award: 5},
	}
}

func TestPublishFansOutPerStudent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	f := newEngineFixture(t, tx)
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Wang")
	testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")
	testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaohong")

	result, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, "2026-09-01"), standardTemplates())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.StudentsAffected != 2 || result.AssignmentsCreated != 4 {
		t.Fatalf("result = %+v, want 2 students / 4 assignments", result)
	}
	if result.TotalExpPossible != 14 {
		t.Fatalf("TotalExpPossible = %d, want 14", result.TotalExpPossible)
	}

	rows, err := f.ledger.DailyForTeacher(ctx, schoolID, teacher.ID, "2026-09-01")
	if err != nil || len(rows) != 4 {
		t.Fatalf("DailyForTeacher: err=%v len=%d", err, len(rows))
	}
	for _, row := range rows {
		if row.Overridden {
			t.Fatalf("published row %s born overridden", row.ID)
		}
		if row.Status != domain.TaskStatusPending {
			t.Fatalf("published row status = %q, want pending", row.Status)
		}
		if row.Content.Data().DateStamp != "2026-09-01" {
			t.Fatalf("content date stamp = %q", row.Content.Data().DateStamp)
		}
	}
}

func TestPublishRequiresRoster(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	f := newEngineFixture(t, tx)
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Chen")

	_, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, "2026-09-01"), standardTemplates())
	if !errors.Is(err, apperr.ErrNoStudentsBound) {
		t.Fatalf("err = %v, want ErrNoStudentsBound", err)
	}

	rows, _ := f.plans.ActiveByTeacherDate(ctx, tx, teacher.ID, "2026-09-01")
	if rows != nil {
		t.Fatal("plan row written despite empty roster")
	}
}

func TestPublishRejectsMalformedDate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	f := newEngineFixture(t, tx)
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Zhou")
	testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")

	_, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, "09/01/2026"), standardTemplates())
	if !errors.Is(err, apperr.ErrMalformedDate) {
		t.Fatalf("err = %v, want ErrMalformedDate", err)
	}
}

func TestRepublishIsIdempotentAndSparesOverrides(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	f := newEngineFixture(t, tx)
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Wu")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")
	date := "2026-09-01"

	if _, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, date), standardTemplates()); err != nil {
		t.Fatalf("first Publish: %v", err)
	}

	// A teacher ad-hoc row created between the two publishes.
	manual, err := f.ledger.CreateManual(ctx, ManualAssignmentInput{
		SchoolID:  schoolID,
		StudentID: student.ID,
		Kind:      domain.TaskKindStandardTask,
		Title:     "额外背诵",
		Award:     3,
		DateStamp: date,
	})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	result, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, date), standardTemplates())
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if result.AssignmentsCreated != 2 {
		t.Fatalf("second publish created %d rows, want 2", result.AssignmentsCreated)
	}

	rows, err := f.ledger.DailyForStudent(ctx, schoolID, student.ID, date)
	if err != nil {
		t.Fatalf("DailyForStudent: %v", err)
	}
	// One generation of auto rows plus the untouched manual row.
	autoCount := 0
	manualSeen := false
	for _, row := range rows {
		if row.ID == manual.ID {
			manualSeen = true
			if row.Title != "额外背诵" || !row.Overridden {
				t.Fatalf("manual row mutated: %+v", row)
			}
			continue
		}
		if row.Overridden {
			t.Fatalf("unexpected overridden row %s", row.ID)
		}
		autoCount++
	}
	if autoCount != 2 {
		t.Fatalf("auto rows after republish = %d, want 2", autoCount)
	}
	if !manualSeen {
		t.Fatal("manual row lost by republish")
	}
}

func TestPublishTargetsSpecialTasks(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	f := newEngineFixture(t, tx)
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Qian")
	target := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")
	other := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaohong")

	templates := []TaskTemplate{
		{Kind: domain.TaskKindSpecialTask, Subject: "math", Title: "竞赛拔高题", Award: 10, TargetStudents: []string{"Xiaoming"}},
	}
	result, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, "2026-09-01"), templates)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.AssignmentsCreated != 1 {
		t.Fatalf("created = %d, want 1", result.AssignmentsCreated)
	}

	targetRows, _ := f.ledger.DailyForStudent(ctx, schoolID, target.ID, "2026-09-01")
	otherRows, _ := f.ledger.DailyForStudent(ctx, schoolID, other.ID, "2026-09-01")
	if len(targetRows) != 1 || len(otherRows) != 0 {
		t.Fatalf("target rows = %d (want 1), other rows = %d (want 0)", len(targetRows), len(otherRows))
	}
}

func TestPublishUpdatesCachedProgress(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	f := newEngineFixture(t, tx)
	ctx := context.Background()

	schoolID := uuid.New()
	teacher := testutil.SeedTeacher(t, ctx, tx, schoolID, "Zheng")
	student := testutil.SeedStudent(t, ctx, tx, schoolID, teacher.ID, "Xiaoming")

	if _, err := f.publisher.Publish(ctx, mathPlan(schoolID, teacher.ID, "2026-09-01"), standardTemplates()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	resolved, err := f.progress.Get(ctx, schoolID, student.ID)
	if err != nil {
		t.Fatalf("Get progress: %v", err)
	}
	if resolved.Source != domain.ProgressSourceLessonPlan {
		t.Fatalf("source = %q, want lesson_plan", resolved.Source)
	}
	if resolved.Snapshot.Subjects["math"].Lesson != 2 {
		t.Fatalf("math lesson = %d, want 2", resolved.Snapshot.Subjects["math"].Lesson)
	}

	// A manual override applied afterwards is strictly newer and wins.
	override := domain.ProgressSnapshot{
		Grade: 4, Semester: 1,
		Subjects: map[string]domain.SubjectProgress{"math": {Unit: 2, Lesson: 1}},
	}
	resolved, err = f.progress.ApplyOverride(ctx, schoolID, student.ID, override)
	if err != nil {
		t.Fatalf("ApplyOverride: %v", err)
	}
	if resolved.Source != domain.ProgressSourceOverride {
		t.Fatalf("after override: source = %q, want override", resolved.Source)
	}
	if resolved.Snapshot.Subjects["math"].Unit != 2 {
		t.Fatalf("after override: math unit = %d, want 2", resolved.Snapshot.Subjects["math"].Unit)
	}
}
