package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/realtime"
)

// Emitter is the outbound side of the notification boundary. Both the
// in-process hub and the redis bus satisfy it.
type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

// Notifier is the engine's notification surface. Every call is
// fire-and-forget; the engine is correct with the no-op implementation.
type Notifier interface {
	PlanPublished(teacherID uuid.UUID, planID uuid.UUID, result PublishResult)
	AssignmentsUpdated(teacherID uuid.UUID, updated int64)
	SettlementCompleted(teacherID, studentID uuid.UUID, result SettleResult)
}

type emitNotifier struct {
	emit Emitter
}

func NewNotifier(emit Emitter) Notifier {
	return &emitNotifier{emit: emit}
}

func (n *emitNotifier) PlanPublished(teacherID uuid.UUID, planID uuid.UUID, result PublishResult) {
	if n == nil || n.emit == nil || teacherID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Message{
		Channel: teacherID.String(),
		Event:   realtime.EventPlanPublished,
		Data: map[string]any{
			"plan_id":             planID,
			"students_affected":   result.StudentsAffected,
			"assignments_created": result.AssignmentsCreated,
			"total_exp_possible":  result.TotalExpPossible,
		},
	})
}

func (n *emitNotifier) AssignmentsUpdated(teacherID uuid.UUID, updated int64) {
	if n == nil || n.emit == nil || teacherID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Message{
		Channel: teacherID.String(),
		Event:   realtime.EventAssignmentsUpdated,
		Data:    map[string]any{"updated": updated},
	})
}

func (n *emitNotifier) SettlementCompleted(teacherID, studentID uuid.UUID, result SettleResult) {
	if n == nil || n.emit == nil || teacherID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Message{
		Channel: teacherID.String(),
		Event:   realtime.EventSettlementCompleted,
		Data: map[string]any{
			"student_id":        studentID,
			"count":             result.Count,
			"total_exp_awarded": result.TotalExpAwarded,
		},
	})
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) PlanPublished(uuid.UUID, uuid.UUID, PublishResult) {}

func (NopNotifier) AssignmentsUpdated(uuid.UUID, int64) {}

func (NopNotifier) SettlementCompleted(uuid.UUID, uuid.UUID, SettleResult) {}
