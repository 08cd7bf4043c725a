package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanContent is the semi-structured document embedded in a lesson plan:
// the per-subject progress snapshot the publish fanned out from, plus an
// optional teacher remark.
type PlanContent struct {
	Snapshot ProgressSnapshot `json:"snapshot"`
	Remark   string           `json:"remark,omitempty"`
}

// LessonPlan is one teacher's published plan for one calendar date.
// Immutable after publish except for the active flag, which is cleared on
// withdrawal or when a newer plan for the same date replaces it.
type LessonPlan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;index" json:"school_id"`
	TeacherID uuid.UUID `gorm:"type:uuid;not null;index:idx_plan_teacher_date" json:"teacher_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`

	Content datatypes.JSONType[PlanContent] `gorm:"column:content" json:"content"`

	// PlanDate is the canonical YYYY-MM-DD string all day-scoped queries
	// key on.
	PlanDate string `gorm:"column:plan_date;not null;index:idx_plan_teacher_date" json:"plan_date"`
	Active   bool   `gorm:"column:active;not null;default:true" json:"active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonPlan) TableName() string { return "lesson_plan" }

func (p *LessonPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DateStampLayout is the layout for every day-scoped date string in the
// engine. Day scoping compares strings, never timestamp ranges.
const DateStampLayout = "2006-01-02"

// ParseDateStamp validates a date-stamp string against DateStampLayout.
func ParseDateStamp(s string) (time.Time, error) {
	return time.Parse(DateStampLayout, s)
}
