package domain

import "time"

// ProgressSource names which input won the recency merge for a student's
// cached snapshot.
type ProgressSource string

const (
	ProgressSourceLessonPlan ProgressSource = "lesson_plan"
	ProgressSourceOverride   ProgressSource = "override"
	ProgressSourceDefault    ProgressSource = "default"
)

// SubjectProgress is one subject's position in the curriculum.
type SubjectProgress struct {
	Unit   int    `json:"unit"`
	Lesson int    `json:"lesson"`
	Title  string `json:"title,omitempty"`
}

// ProgressSnapshot is the student's currently believed position in each
// subject's curriculum, plus grade/semester. Whole snapshots are merged by
// recency, never field by field.
type ProgressSnapshot struct {
	Grade    int                        `json:"grade"`
	Semester int                        `json:"semester"`
	Subjects map[string]SubjectProgress `json:"subjects"`
}

// DefaultProgressSnapshot is returned when neither a plan-derived nor an
// override snapshot exists for a student.
func DefaultProgressSnapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Grade:    1,
		Semester: 1,
		Subjects: map[string]SubjectProgress{},
	}
}

// ResolvedProgress pairs a snapshot with the source that produced it.
type ResolvedProgress struct {
	Snapshot   ProgressSnapshot `json:"snapshot"`
	Source     ProgressSource   `json:"source"`
	ResolvedAt time.Time        `json:"resolved_at"`
}
