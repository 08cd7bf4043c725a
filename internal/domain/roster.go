package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Teacher struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID uuid.UUID `gorm:"type:uuid;not null;index" json:"school_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	Active   bool      `gorm:"column:active;not null;default:true" json:"active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Teacher) TableName() string { return "teacher" }

func (t *Teacher) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Student carries the cached resolved progress snapshot and the running
// experience total credited by the settlement engine.
type Student struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID   uuid.UUID `gorm:"type:uuid;not null;index" json:"school_id"`
	TeacherID  uuid.UUID `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Teacher    *Teacher  `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	ClassLabel string    `gorm:"column:class_label" json:"class_label"`
	Active     bool      `gorm:"column:active;not null;default:true" json:"active"`

	ExperienceTotal int `gorm:"column:experience_total;not null;default:0" json:"experience_total"`

	CurrentProgress   datatypes.JSONType[ProgressSnapshot] `gorm:"column:current_progress" json:"current_progress"`
	ProgressSource    ProgressSource                       `gorm:"column:progress_source" json:"progress_source"`
	ProgressUpdatedAt *time.Time                           `gorm:"column:progress_updated_at" json:"progress_updated_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Student) TableName() string { return "student" }

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
