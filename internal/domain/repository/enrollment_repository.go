package repository

import (
	"context"
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// EnrollmentRepository persists Enrollment records.
// Finders return (nil, nil) when no record matches.
type EnrollmentRepository interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*model.Enrollment, error)

	// CreateIfAbsent inserts e unless a record for (student, course) already exists.
	// It reports whether the row was inserted.
	CreateIfAbsent(ctx context.Context, e *model.Enrollment) (bool, error)

	// CompareAndSwap overwrites the stored record only if its version still equals
	// expectedVersion, bumping the version on success.
	CompareAndSwap(ctx context.Context, e *model.Enrollment, expectedVersion int64) (bool, error)

	// ExpireCancellations moves every APPLIEDFORCANCEL record whose cancellation
	// date is not after now to CANCELLED and returns the number of rows moved.
	ExpireCancellations(ctx context.Context, now time.Time) (int64, error)
}
