package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/classloop/classloop-backend/internal/data/repos"
	"github.com/classloop/classloop-backend/internal/data/repos/ledger"
	"github.com/classloop/classloop-backend/internal/data/repos/roster"
	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/apperr"
	"github.com/classloop/classloop-backend/internal/platform/dbctx"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

type SettleResult struct {
	Count           int `json:"count"`
	TotalExpAwarded int `json:"total_exp_awarded"`
}

type ClassSettleResult struct {
	StudentsSettled int          `json:"students_settled"`
	Total           SettleResult `json:"total"`
}

// Settlement converts completed, unsettled assignments into credited
// experience, exactly once per assignment.
type Settlement interface {
	Settle(ctx context.Context, schoolID, studentID uuid.UUID, bonusExp int) (SettleResult, error)
	PassOutstanding(ctx context.Context, schoolID, studentID uuid.UUID) (int64, error)
	SettleClass(ctx context.Context, schoolID, teacherID uuid.UUID, bonusExp int) (ClassSettleResult, error)
}

type settlement struct {
	txr      repos.TxRunner
	tasks    ledger.TaskAssignmentRepo
	students roster.StudentRepo
	notify   Notifier
	log      *logger.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewSettlement(txr repos.TxRunner, tasks ledger.TaskAssignmentRepo, students roster.StudentRepo, notify Notifier, loc *time.Location, baseLog *logger.Logger) Settlement {
	if loc == nil {
		loc = time.Local
	}
	return &settlement{
		txr:      txr,
		tasks:    tasks,
		students: students,
		notify:   notify,
		log:      baseLog.With("service", "Settlement"),
		loc:      loc,
		now:      time.Now,
	}
}

// Settle credits today's completed, unsettled rows for one student.
// Each row is claimed with a conditional update so two concurrent calls
// can never both credit it; losing the claim just shrinks this call's
// batch. Zero eligible rows is a valid outcome, not an error, and the
// bonus only applies to a batch that actually settled something.
func (s *settlement) Settle(ctx context.Context, schoolID, studentID uuid.UUID, bonusExp int) (SettleResult, error) {
	student, err := s.students.GetByID(ctx, nil, studentID)
	if err != nil {
		return SettleResult{}, err
	}
	if student.SchoolID != schoolID {
		return SettleResult{}, apperr.ErrCrossTenantAccess
	}

	now := s.now().In(s.loc)
	// One canonical date string for the whole call; rows near a day
	// boundary all compare against the same stamp.
	today := now.Format(domain.DateStampLayout)

	var result SettleResult
	err = s.txr.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.tasks.UnsettledCompleted(dbc.Ctx, dbc.Tx, schoolID, studentID, today)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		total := 0
		count := 0
		for _, row := range rows {
			won, err := s.tasks.MarkSettled(dbc.Ctx, dbc.Tx, []uuid.UUID{row.ID}, now)
			if err != nil {
				return err
			}
			if won == 1 {
				total += row.AwardedExp
				count++
			}
		}
		if count == 0 {
			return nil
		}

		total += bonusExp
		if total != 0 {
			if err := s.students.IncrementExperience(dbc.Ctx, dbc.Tx, studentID, total); err != nil {
				return err
			}
		}

		// The summary row carries the bonus as its own award so the sum
		// over settled rows always equals the credited experience. It is
		// born settled and never counted again.
		summary := &domain.TaskAssignment{
			SchoolID:   schoolID,
			StudentID:  studentID,
			Kind:       domain.TaskKindManualAdjustment,
			Title:      "每日结算",
			Category:   "settlement",
			DateStamp:  today,
			Status:     domain.TaskStatusCompleted,
			AwardedExp: bonusExp,
			Overridden: true,
			SettledAt:  &now,
			Content: datatypes.NewJSONType(domain.TaskContent{
				DateStamp: today,
				Adjustment: &domain.AdjustmentPayload{
					SettledCount: count,
					TotalExp:     total,
					BonusExp:     bonusExp,
				},
			}),
		}
		if _, err := s.tasks.CreateBatch(dbc.Ctx, dbc.Tx, []*domain.TaskAssignment{summary}); err != nil {
			return err
		}

		result = SettleResult{Count: count, TotalExpAwarded: total}
		return nil
	})
	if err != nil {
		return SettleResult{}, err
	}

	if result.Count > 0 {
		s.log.Info("settlement completed",
			"student_id", studentID,
			"count", result.Count,
			"total_exp", result.TotalExpAwarded,
		)
		s.notify.SettlementCompleted(student.TeacherID, studentID, result)
	}
	return result, nil
}

// PassOutstanding is the teacher's fast-track: every still-pending
// routine-check and standard-task row for today jumps straight to
// completed. Exposed as its own step rather than folded into Settle.
func (s *settlement) PassOutstanding(ctx context.Context, schoolID, studentID uuid.UUID) (int64, error) {
	student, err := s.students.GetByID(ctx, nil, studentID)
	if err != nil {
		return 0, err
	}
	if student.SchoolID != schoolID {
		return 0, apperr.ErrCrossTenantAccess
	}

	now := s.now().In(s.loc)
	today := now.Format(domain.DateStampLayout)
	kinds := []domain.TaskKind{domain.TaskKindRoutineCheck, domain.TaskKindStandardTask}
	return s.tasks.FastTrackPending(ctx, nil, schoolID, studentID, today, kinds, now)
}

// SettleClass settles every rostered student. Per-student settlements
// are independent, so they run in parallel; each is its own transaction.
func (s *settlement) SettleClass(ctx context.Context, schoolID, teacherID uuid.UUID, bonusExp int) (ClassSettleResult, error) {
	students, err := s.students.ActiveByTeacher(ctx, nil, teacherID)
	if err != nil {
		return ClassSettleResult{}, err
	}

	var (
		mu     sync.Mutex
		result ClassSettleResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, st := range students {
		g.Go(func() error {
			res, err := s.Settle(gctx, schoolID, st.ID, bonusExp)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Count > 0 {
				result.StudentsSettled++
			}
			result.Total.Count += res.Count
			result.Total.TotalExpAwarded += res.TotalExpAwarded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ClassSettleResult{}, err
	}
	return result, nil
}
