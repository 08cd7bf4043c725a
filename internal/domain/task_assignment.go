package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskKind is the closed set of assignment kinds.
type TaskKind string

const (
	TaskKindRoutineCheck     TaskKind = "routine_check"
	TaskKindStandardTask     TaskKind = "standard_task"
	TaskKindSpecialTask      TaskKind = "special_task"
	TaskKindChallenge        TaskKind = "challenge"
	TaskKindSkillPractice    TaskKind = "skill_practice"
	TaskKindManualAdjustment TaskKind = "manual_adjustment"
)

// AutoGeneratedKinds are the kinds a publish fans out; only rows of these
// kinds are eligible for the republish purge.
func AutoGeneratedKinds() []TaskKind {
	return []TaskKind{
		TaskKindRoutineCheck,
		TaskKindStandardTask,
		TaskKindSpecialTask,
		TaskKindChallenge,
		TaskKindSkillPractice,
	}
}

func (k TaskKind) Valid() bool {
	switch k {
	case TaskKindRoutineCheck, TaskKindStandardTask, TaskKindSpecialTask,
		TaskKindChallenge, TaskKindSkillPractice, TaskKindManualAdjustment:
		return true
	}
	return false
}

// TaskStatus is the assignment lifecycle state. There is no failure
// state; a non-completed assignment simply stays where it is.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusReviewed  TaskStatus = "reviewed"
	TaskStatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusSubmitted, TaskStatusReviewed, TaskStatusCompleted:
		return true
	}
	return false
}

// CurriculumPayload carries the subject position a curriculum-derived
// task was published from.
type CurriculumPayload struct {
	Subject     string `json:"subject"`
	Unit        int    `json:"unit"`
	Lesson      int    `json:"lesson"`
	LessonTitle string `json:"lesson_title,omitempty"`
}

// ChallengePayload carries challenge-specific fields.
type ChallengePayload struct {
	Description string `json:"description,omitempty"`
	TargetScore int    `json:"target_score,omitempty"`
}

// AdjustmentPayload is the settlement-summary variant.
type AdjustmentPayload struct {
	SettledCount int    `json:"settled_count"`
	TotalExp     int    `json:"total_exp"`
	BonusExp     int    `json:"bonus_exp,omitempty"`
	Note         string `json:"note,omitempty"`
}

// TaskContent is the assignment's content document. DateStamp is always
// present; at most one variant pointer is set, chosen by the row's kind.
// Extra holds genuinely optional extensions only.
type TaskContent struct {
	DateStamp  string             `json:"date_stamp"`
	Curriculum *CurriculumPayload `json:"curriculum,omitempty"`
	Challenge  *ChallengePayload  `json:"challenge,omitempty"`
	Adjustment *AdjustmentPayload `json:"adjustment,omitempty"`
	// Progress is set on manual progress-override rows; it is the
	// override side of the recency merge.
	Progress *ProgressSnapshot `json:"progress,omitempty"`
	Extra    map[string]any    `json:"extra,omitempty"`
}

// TaskAssignment is one unit of gradable work for one student.
type TaskAssignment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"school_id"`
	StudentID uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_student_date" json:"student_id"`
	PlanID    *uuid.UUID `gorm:"type:uuid;index" json:"plan_id,omitempty"`

	Kind     TaskKind `gorm:"column:kind;not null;index" json:"kind"`
	Title    string   `gorm:"column:title;not null" json:"title"`
	Category string   `gorm:"column:category" json:"category"`

	Content datatypes.JSONType[TaskContent] `gorm:"column:content" json:"content"`

	// DateStamp duplicates Content.DateStamp as a queryable column so
	// day-scoped selects stay string-equality comparisons.
	DateStamp string `gorm:"column:date_stamp;not null;index:idx_task_student_date" json:"date_stamp"`

	Status     TaskStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	AwardedExp int        `gorm:"column:awarded_exp;not null;default:0" json:"awarded_exp"`

	// Overridden marks rows a human has touched; the republish purge must
	// never remove them.
	Overridden bool `gorm:"column:overridden;not null;default:false" json:"overridden"`

	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`

	// SettledAt, once set, is never cleared; the purge path only ever
	// removes unsettled rows.
	SettledAt *time.Time `gorm:"column:settled_at;index" json:"settled_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TaskAssignment) TableName() string { return "task_assignment" }

func (a *TaskAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
