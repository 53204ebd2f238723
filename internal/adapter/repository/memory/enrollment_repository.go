// Package memory holds process-local store implementations used by the memory
// database driver and by tests. Records are copied on every read and write.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// EnrollmentRepository is a mutex-guarded enrollment store
type EnrollmentRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]model.Enrollment
}

var _ domainRepo.EnrollmentRepository = (*EnrollmentRepository)(nil)

func NewEnrollmentRepository() *EnrollmentRepository {
	return &EnrollmentRepository{rows: make(map[uuid.UUID]model.Enrollment)}
}

func (r *EnrollmentRepository) FindByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.rows {
		if e.StudentID == studentID && e.CourseID == courseID {
			return copyEnrollment(e), nil
		}
	}
	return nil, nil
}

func (r *EnrollmentRepository) FindBySubscriptionID(_ context.Context, subscriptionID string) (*model.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.Enrollment
	for _, e := range r.rows {
		if !e.BoundTo(subscriptionID) {
			continue
		}
		if found == nil || e.UpdatedAt.After(found.UpdatedAt) {
			found = copyEnrollment(e)
		}
	}
	return found, nil
}

func (r *EnrollmentRepository) CreateIfAbsent(_ context.Context, e *model.Enrollment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.StudentID == e.StudentID && existing.CourseID == e.CourseID {
			return false, nil
		}
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now

	r.rows[e.ID] = *copyEnrollment(*e)
	return true, nil
}

func (r *EnrollmentRepository) CompareAndSwap(_ context.Context, e *model.Enrollment, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[e.ID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}

	next := *copyEnrollment(*e)
	next.StudentID, next.CourseID, next.CreatedAt = stored.StudentID, stored.CourseID, stored.CreatedAt
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now()
	r.rows[e.ID] = next

	e.Version = next.Version
	e.UpdatedAt = next.UpdatedAt
	return true, nil
}

func (r *EnrollmentRepository) ExpireCancellations(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var moved int64
	for id, e := range r.rows {
		if e.Status != model.EnrollmentStatusAppliedForCancel || e.CancellationDate == nil || e.CancellationDate.After(now) {
			continue
		}
		e.Status = model.EnrollmentStatusCancelled
		e.TrialStatus = false
		e.Version++
		e.UpdatedAt = now
		r.rows[id] = e
		moved++
	}
	return moved, nil
}

// Len returns the number of stored enrollments.
func (r *EnrollmentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func copyEnrollment(e model.Enrollment) *model.Enrollment {
	out := e
	out.ProviderSubscriptionID = copyString(e.ProviderSubscriptionID)
	out.CancellationReason = copyString(e.CancellationReason)
	out.TrialEndDate = copyTime(e.TrialEndDate)
	out.CancellationDate = copyTime(e.CancellationDate)
	out.LastEventAt = copyTime(e.LastEventAt)
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
