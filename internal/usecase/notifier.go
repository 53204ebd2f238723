package usecase

import (
	"context"
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// EnrollmentChange is published after an enrollment write commits
type EnrollmentChange struct {
	EnrollmentID   string                 `json:"enrollmentId"`
	StudentID      string                 `json:"studentId"`
	CourseID       string                 `json:"courseId"`
	EnrollmentType model.EnrollmentType   `json:"enrollmentType"`
	Event          string                 `json:"event"`
	From           model.EnrollmentStatus `json:"from,omitempty"`
	To             model.EnrollmentStatus `json:"to"`
	OccurredAt     time.Time              `json:"occurredAt"`
}

// Notifier delivers enrollment changes on a best-effort basis.
// Implementations must not block the caller.
type Notifier interface {
	EnrollmentChanged(ctx context.Context, change EnrollmentChange)
}

type noopNotifier struct{}

// NoopNotifier drops every change
func NoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) EnrollmentChanged(context.Context, EnrollmentChange) {}
