package enrollment

import (
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

func clone(e *model.Enrollment) model.Enrollment {
	next := *e
	next.ProviderSubscriptionID = copyString(e.ProviderSubscriptionID)
	next.TrialEndDate = copyTime(e.TrialEndDate)
	next.CancellationDate = copyTime(e.CancellationDate)
	next.CancellationReason = copyString(e.CancellationReason)
	next.LastEventAt = copyTime(e.LastEventAt)
	return next
}

func clonePtr(e *model.Enrollment) model.Enrollment {
	if e == nil {
		return model.Enrollment{}
	}
	return clone(e)
}

// equal compares the fields transitions may change.
func equal(a, b model.Enrollment) bool {
	return a.Status == b.Status &&
		a.EnrollmentType == b.EnrollmentType &&
		a.HasUsedTrial == b.HasUsedTrial &&
		a.TrialStatus == b.TrialStatus &&
		stringEqual(a.ProviderSubscriptionID, b.ProviderSubscriptionID) &&
		stringEqual(a.CancellationReason, b.CancellationReason) &&
		timeEqual(a.TrialEndDate, b.TrialEndDate) &&
		timeEqual(a.CancellationDate, b.CancellationDate) &&
		timeEqual(a.LastEventAt, b.LastEventAt)
}

func firstTime(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil && !t.IsZero() {
			return t
		}
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func stringPtr(s string) *string { return &s }

func stringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
