package services

import (
	"testing"
	"time"

	"github.com/classloop/classloop-backend/internal/domain"
)

func TestResolveProgressRecency(t *testing.T) {
	planSnap := domain.ProgressSnapshot{
		Grade: 4, Semester: 1,
		Subjects: map[string]domain.SubjectProgress{"math": {Unit: 1, Lesson: 2}},
	}
	ovrSnap := domain.ProgressSnapshot{
		Grade: 4, Semester: 1,
		Subjects: map[string]domain.SubjectProgress{"math": {Unit: 2, Lesson: 1}},
	}

	t1 := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	snap, source := ResolveProgress(&planSnap, t1, &ovrSnap, t2)
	if source != domain.ProgressSourceOverride {
		t.Fatalf("override later: source = %q, want %q", source, domain.ProgressSourceOverride)
	}
	if snap.Subjects["math"].Unit != 2 {
		t.Fatalf("override later: snapshot unit = %d, want 2", snap.Subjects["math"].Unit)
	}

	snap, source = ResolveProgress(&planSnap, t2, &ovrSnap, t1)
	if source != domain.ProgressSourceLessonPlan {
		t.Fatalf("plan later: source = %q, want %q", source, domain.ProgressSourceLessonPlan)
	}
	if snap.Subjects["math"].Unit != 1 {
		t.Fatalf("plan later: snapshot unit = %d, want 1", snap.Subjects["math"].Unit)
	}

	// Equal timestamps: the override must be strictly later to win.
	_, source = ResolveProgress(&planSnap, t1, &ovrSnap, t1)
	if source != domain.ProgressSourceLessonPlan {
		t.Fatalf("equal timestamps: source = %q, want %q", source, domain.ProgressSourceLessonPlan)
	}

	snap, source = ResolveProgress(nil, time.Time{}, nil, time.Time{})
	if source != domain.ProgressSourceDefault {
		t.Fatalf("neither present: source = %q, want %q", source, domain.ProgressSourceDefault)
	}
	if snap.Subjects == nil {
		t.Fatal("default snapshot has nil subjects")
	}

	_, source = ResolveProgress(nil, time.Time{}, &ovrSnap, t1)
	if source != domain.ProgressSourceOverride {
		t.Fatalf("override only: source = %q, want %q", source, domain.ProgressSourceOverride)
	}
}
