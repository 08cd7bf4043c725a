package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/classloop/classloop-backend/internal/curriculum"
	"github.com/classloop/classloop-backend/internal/data/repos"
	"github.com/classloop/classloop-backend/internal/data/repos/ledger"
	"github.com/classloop/classloop-backend/internal/data/repos/planning"
	"github.com/classloop/classloop-backend/internal/data/repos/roster"
	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/apperr"
	"github.com/classloop/classloop-backend/internal/platform/dbctx"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

// PlanInput is one teacher's plan for one calendar date.
type PlanInput struct {
	SchoolID  uuid.UUID                `json:"school_id"`
	TeacherID uuid.UUID                `json:"teacher_id"`
	Title     string                   `json:"title"`
	Date      string                   `json:"date"`
	Snapshot  domain.ProgressSnapshot  `json:"snapshot"`
	Remark    string                   `json:"remark,omitempty"`
}

// TaskTemplate is one fan-out template. TargetStudents narrows special
// tasks to named students; empty means every rostered student.
type TaskTemplate struct {
	Kind           domain.TaskKind `json:"kind"`
	Subject        string          `json:"subject,omitempty"`
	Title          string          `json:"title"`
	Category       string          `json:"category,omitempty"`
	Award          int             `json:"award"`
	TargetStudents []string        `json:"target_students,omitempty"`
	Description    string          `json:"description,omitempty"`
}

type PublishResult struct {
	PlanID             uuid.UUID `json:"plan_id"`
	StudentsAffected   int       `json:"students_affected"`
	AssignmentsCreated int       `json:"assignments_created"`
	TotalExpPossible   int       `json:"total_exp_possible"`
}

type PlanPublisher interface {
	Publish(ctx context.Context, plan PlanInput, templates []TaskTemplate) (PublishResult, error)
	Withdraw(ctx context.Context, schoolID, teacherID uuid.UUID, date string) error
}

type planPublisher struct {
	txr      repos.TxRunner
	plans    planning.LessonPlanRepo
	students roster.StudentRepo
	tasks    ledger.TaskAssignmentRepo
	notify   Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewPlanPublisher(txr repos.TxRunner, plans planning.LessonPlanRepo, students roster.StudentRepo, tasks ledger.TaskAssignmentRepo, notify Notifier, baseLog *logger.Logger) PlanPublisher {
	return &planPublisher{
		txr:      txr,
		plans:    plans,
		students: students,
		tasks:    tasks,
		notify:   notify,
		log:      baseLog.With("service", "PlanPublisher"),
		now:      time.Now,
	}
}

// Publish turns a plan plus templates into one generation of assignment
// rows for every student bound to the teacher. The prior generation for
// the same date is purged first; rows a human has touched survive. The
// whole write is one transaction. No experience is awarded here.
func (s *planPublisher) Publish(ctx context.Context, plan PlanInput, templates []TaskTemplate) (PublishResult, error) {
	if _, err := domain.ParseDateStamp(plan.Date); err != nil {
		return PublishResult{}, fmt.Errorf("plan date %q: %w", plan.Date, apperr.ErrMalformedDate)
	}
	for _, tpl := range templates {
		if tpl.Kind == domain.TaskKindManualAdjustment || !tpl.Kind.Valid() {
			return PublishResult{}, apperr.New(400, "invalid_template_kind", fmt.Errorf("template kind %q cannot be published", tpl.Kind))
		}
	}

	students, err := s.students.ActiveByTeacher(ctx, nil, plan.TeacherID)
	if err != nil {
		return PublishResult{}, err
	}
	if len(students) == 0 {
		return PublishResult{}, apperr.ErrNoStudentsBound
	}

	now := s.now()
	result := PublishResult{StudentsAffected: len(students)}

	err = s.txr.InTx(ctx, func(dbc dbctx.Context) error {
		// Prior plan rows for this date step aside; the assignment purge
		// below keeps the one-generation invariant.
		if err := s.plans.DeactivateByTeacherDate(dbc.Ctx, dbc.Tx, plan.TeacherID, plan.Date); err != nil {
			return err
		}

		planRow := &domain.LessonPlan{
			SchoolID:  plan.SchoolID,
			TeacherID: plan.TeacherID,
			Title:     plan.Title,
			PlanDate:  plan.Date,
			Active:    true,
			Content: datatypes.NewJSONType(domain.PlanContent{
				Snapshot: plan.Snapshot,
				Remark:   plan.Remark,
			}),
		}
		if _, err := s.plans.Create(dbc.Ctx, dbc.Tx, planRow); err != nil {
			return err
		}
		result.PlanID = planRow.ID

		studentIDs := make([]uuid.UUID, 0, len(students))
		for _, st := range students {
			studentIDs = append(studentIDs, st.ID)
		}
		purged, err := s.tasks.PurgeGenerated(dbc.Ctx, dbc.Tx, plan.SchoolID, studentIDs, plan.Date)
		if err != nil {
			return err
		}

		rows := make([]*domain.TaskAssignment, 0, len(students)*len(templates))
		for _, st := range students {
			for i := range templates {
				tpl := &templates[i]
				if !templateTargets(tpl, st.Name) {
					continue
				}
				rows = append(rows, s.buildAssignment(planRow, plan, tpl, st))
				result.TotalExpPossible += tpl.Award
			}
		}
		if _, err := s.tasks.CreateBatch(dbc.Ctx, dbc.Tx, rows); err != nil {
			return err
		}
		result.AssignmentsCreated = len(rows)

		for _, st := range students {
			var ovrSnap *domain.ProgressSnapshot
			ovrAt := time.Time{}
			if st.ProgressSource == domain.ProgressSourceOverride && st.ProgressUpdatedAt != nil {
				cached := st.CurrentProgress.Data()
				ovrSnap = &cached
				ovrAt = *st.ProgressUpdatedAt
			}
			snap := plan.Snapshot
			resolved, source := ResolveProgress(&snap, now, ovrSnap, ovrAt)
			if err := s.students.UpdateProgress(dbc.Ctx, dbc.Tx, st.ID, resolved, source, now); err != nil {
				return err
			}
		}

		s.log.Info("plan published",
			"teacher_id", plan.TeacherID,
			"date", plan.Date,
			"purged", purged,
			"created", len(rows),
		)
		return nil
	})
	if err != nil {
		return PublishResult{}, err
	}

	s.notify.PlanPublished(plan.TeacherID, result.PlanID, result)
	return result, nil
}

// Withdraw clears the plan's active flag without touching assignments.
func (s *planPublisher) Withdraw(ctx context.Context, schoolID, teacherID uuid.UUID, date string) error {
	if _, err := domain.ParseDateStamp(date); err != nil {
		return fmt.Errorf("date %q: %w", date, apperr.ErrMalformedDate)
	}
	plan, err := s.plans.ActiveByTeacherDate(ctx, nil, teacherID, date)
	if err != nil {
		return err
	}
	if plan.SchoolID != schoolID {
		return apperr.ErrCrossTenantAccess
	}
	return s.plans.DeactivateByTeacherDate(ctx, nil, teacherID, date)
}

func templateTargets(tpl *TaskTemplate, studentName string) bool {
	if len(tpl.TargetStudents) == 0 {
		return true
	}
	for _, name := range tpl.TargetStudents {
		if name == studentName {
			return true
		}
	}
	return false
}

func (s *planPublisher) buildAssignment(planRow *domain.LessonPlan, plan PlanInput, tpl *TaskTemplate, st *domain.Student) *domain.TaskAssignment {
	content := domain.TaskContent{DateStamp: plan.Date}

	switch tpl.Kind {
	case domain.TaskKindChallenge:
		content.Challenge = &domain.ChallengePayload{Description: tpl.Description}
	default:
		if sp, ok := plan.Snapshot.Subjects[tpl.Subject]; ok {
			payload := &domain.CurriculumPayload{
				Subject:     tpl.Subject,
				Unit:        sp.Unit,
				Lesson:      sp.Lesson,
				LessonTitle: sp.Title,
			}
			if payload.LessonTitle == "" {
				if title, ok := curriculum.Title(tpl.Subject, sp.Unit, sp.Lesson); ok {
					payload.LessonTitle = title
				}
			}
			content.Curriculum = payload
		}
	}

	return &domain.TaskAssignment{
		SchoolID:   plan.SchoolID,
		StudentID:  st.ID,
		PlanID:     &planRow.ID,
		Kind:       tpl.Kind,
		Title:      tpl.Title,
		Category:   tpl.Category,
		DateStamp:  plan.Date,
		Content:    datatypes.NewJSONType(content),
		Status:     domain.TaskStatusPending,
		AwardedExp: tpl.Award,
		Overridden: false,
	}
}
