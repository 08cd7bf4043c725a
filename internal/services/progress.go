package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/classloop/classloop-backend/internal/data/repos"
	"github.com/classloop/classloop-backend/internal/data/repos/ledger"
	"github.com/classloop/classloop-backend/internal/data/repos/roster"
	"github.com/classloop/classloop-backend/internal/domain"
	"github.com/classloop/classloop-backend/internal/platform/apperr"
	"github.com/classloop/classloop-backend/internal/platform/dbctx"
	"github.com/classloop/classloop-backend/internal/platform/logger"
)

// ResolveProgress merges the two competing progress sources by recency.
// The override wins only when its timestamp is strictly later than the
// plan's; whole snapshots are swapped, never merged field by field. With
// neither input present the hardcoded default is returned.
func ResolveProgress(planSnap *domain.ProgressSnapshot, planAt time.Time, ovrSnap *domain.ProgressSnapshot, ovrAt time.Time) (domain.ProgressSnapshot, domain.ProgressSource) {
	switch {
	case ovrSnap != nil && (planSnap == nil || ovrAt.After(planAt)):
		return *ovrSnap, domain.ProgressSourceOverride
	case planSnap != nil:
		return *planSnap, domain.ProgressSourceLessonPlan
	default:
		return domain.DefaultProgressSnapshot(), domain.ProgressSourceDefault
	}
}

type ProgressService interface {
	Get(ctx context.Context, schoolID, studentID uuid.UUID) (domain.ResolvedProgress, error)
	ApplyOverride(ctx context.Context, schoolID, studentID uuid.UUID, snap domain.ProgressSnapshot) (domain.ResolvedProgress, error)
}

type progressService struct {
	txr      repos.TxRunner
	students roster.StudentRepo
	tasks    ledger.TaskAssignmentRepo
	log      *logger.Logger
	now      func() time.Time
}

func NewProgressService(txr repos.TxRunner, students roster.StudentRepo, tasks ledger.TaskAssignmentRepo, baseLog *logger.Logger) ProgressService {
	return &progressService{
		txr:      txr,
		students: students,
		tasks:    tasks,
		log:      baseLog.With("service", "ProgressService"),
		now:      time.Now,
	}
}

func (s *progressService) Get(ctx context.Context, schoolID, studentID uuid.UUID) (domain.ResolvedProgress, error) {
	student, err := s.students.GetByID(ctx, nil, studentID)
	if err != nil {
		return domain.ResolvedProgress{}, err
	}
	if student.SchoolID != schoolID {
		return domain.ResolvedProgress{}, apperr.ErrCrossTenantAccess
	}

	source := student.ProgressSource
	if source == "" {
		source = domain.ProgressSourceDefault
	}
	snap := student.CurrentProgress.Data()
	if snap.Subjects == nil {
		snap = domain.DefaultProgressSnapshot()
		source = domain.ProgressSourceDefault
	}
	resolvedAt := s.now()
	if student.ProgressUpdatedAt != nil {
		resolvedAt = *student.ProgressUpdatedAt
	}
	return domain.ResolvedProgress{Snapshot: snap, Source: source, ResolvedAt: resolvedAt}, nil
}

// ApplyOverride records a manual progress correction: it persists an
// overridden ledger row embedding the snapshot, then re-resolves the
// student's cached position against the plan-derived side.
func (s *progressService) ApplyOverride(ctx context.Context, schoolID, studentID uuid.UUID, snap domain.ProgressSnapshot) (domain.ResolvedProgress, error) {
	student, err := s.students.GetByID(ctx, nil, studentID)
	if err != nil {
		return domain.ResolvedProgress{}, err
	}
	if student.SchoolID != schoolID {
		return domain.ResolvedProgress{}, apperr.ErrCrossTenantAccess
	}

	now := s.now()

	var planSnap *domain.ProgressSnapshot
	planAt := time.Time{}
	if student.ProgressSource == domain.ProgressSourceLessonPlan && student.ProgressUpdatedAt != nil {
		cached := student.CurrentProgress.Data()
		planSnap = &cached
		planAt = *student.ProgressUpdatedAt
	}

	resolved, source := ResolveProgress(planSnap, planAt, &snap, now)

	err = s.txr.InTx(ctx, func(dbc dbctx.Context) error {
		row := &domain.TaskAssignment{
			SchoolID:  schoolID,
			StudentID: studentID,
			Kind:      domain.TaskKindManualAdjustment,
			Title:     "进度校正",
			Category:  "progress",
			DateStamp: now.Format(domain.DateStampLayout),
			Content: datatypes.NewJSONType(domain.TaskContent{
				DateStamp: now.Format(domain.DateStampLayout),
				Progress:  &snap,
			}),
			Status:     domain.TaskStatusCompleted,
			Overridden: true,
			SettledAt:  &now,
		}
		if _, err := s.tasks.CreateBatch(dbc.Ctx, dbc.Tx, []*domain.TaskAssignment{row}); err != nil {
			return err
		}
		return s.students.UpdateProgress(dbc.Ctx, dbc.Tx, studentID, resolved, source, now)
	})
	if err != nil {
		return domain.ResolvedProgress{}, err
	}

	return domain.ResolvedProgress{Snapshot: resolved, Source: source, ResolvedAt: now}, nil
}
