// Package enrollment holds the status transition rules for Enrollment records.
//
// Every function takes the stored record (nil when none exists), the decoded
// provider input and the current time, and returns the next record plus whether
// anything changed. Functions never mutate their input and perform no I/O, so
// callers can retry them freely inside a compare-and-swap loop.
//
// Transitions are driven by the provider's absolute state. Subscription and
// invoice events older than the record's LastEventAt are dropped, which lets
// out-of-order deliveries converge on the newest provider state.
package enrollment

import (
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// Resolve applies the lazy cancellation rule: a scheduled cancellation whose
// date has passed is reported as CANCELLED.
func Resolve(current *model.Enrollment, now time.Time) (model.Enrollment, bool) {
	if current == nil {
		return model.Enrollment{}, false
	}
	next := clone(current)
	if next.Status == model.EnrollmentStatusAppliedForCancel &&
		next.CancellationDate != nil && !now.Before(*next.CancellationDate) {
		next.Status = model.EnrollmentStatusCancelled
		next.TrialStatus = false
		return next, true
	}
	return next, false
}

// Enroll grants direct access for FREE enrollments and captured one-time payments.
// A missing record is created ACTIVE, a cancelled one is reactivated in place and
// any other record is left untouched.
//
// A captured payment is a fact rather than provider state, so no staleness check applies.
func Enroll(current *model.Enrollment, c entity.Correlation, typ model.EnrollmentType, at, now time.Time) (model.Enrollment, bool) {
	if current == nil {
		if !c.Complete() {
			return model.Enrollment{}, false
		}
		next := model.Enrollment{
			StudentID:      c.StudentID,
			CourseID:       c.CourseID,
			EnrollmentType: typ,
			Status:         model.EnrollmentStatusActive,
			Version:        1,
		}
		touch(&next, at)
		return next, true
	}

	next, _ := Resolve(current, now)
	if next.Status != model.EnrollmentStatusCancelled {
		return clone(current), false
	}

	next.Status = model.EnrollmentStatusActive
	next.EnrollmentType = typ
	next.ProviderSubscriptionID = nil
	next.TrialStatus = false
	next.CancellationDate = nil
	next.CancellationReason = nil
	touch(&next, at)
	return next, true
}

// ApplySubscription maps the absolute subscription state onto the record. It
// serves both checkout completion (with freshly retrieved state) and
// customer.subscription.updated.
func ApplySubscription(current *model.Enrollment, sub entity.SubscriptionState, at, now time.Time) (model.Enrollment, bool) {
	if sub.ID == "" {
		return clonePtr(current), false
	}
	if stale(current, at) {
		return clone(current), false
	}

	var next model.Enrollment
	switch {
	case current == nil:
		if !sub.Correlation.Complete() || !creates(sub.Status) {
			return model.Enrollment{}, false
		}
		next = model.Enrollment{
			StudentID:              sub.Correlation.StudentID,
			CourseID:               sub.Correlation.CourseID,
			EnrollmentType:         model.EnrollmentTypeSubscription,
			ProviderSubscriptionID: stringPtr(sub.ID),
			Version:                1,
		}
	case !current.BoundTo(sub.ID):
		// Only a cancelled record may be rebound, and only to a live subscription.
		next, _ = Resolve(current, now)
		if next.Status != model.EnrollmentStatusCancelled || !creates(sub.Status) {
			return clone(current), false
		}
		next.EnrollmentType = model.EnrollmentTypeSubscription
		next.ProviderSubscriptionID = stringPtr(sub.ID)
		next.CancellationDate = nil
		next.CancellationReason = nil
	default:
		next, _ = Resolve(current, now)
	}

	switch sub.Status {
	case entity.SubscriptionStatusCanceled, entity.SubscriptionStatusIncompleteExpired:
		cancel(&next, firstTime(sub.EndedAt, sub.CanceledAt, &now), sub.CancellationReason)
	case entity.SubscriptionStatusPastDue, entity.SubscriptionStatusUnpaid:
		next.Status = model.EnrollmentStatusPastDue
		next.TrialStatus = false
	case entity.SubscriptionStatusTrialing, entity.SubscriptionStatusActive:
		applyLive(&next, current, sub, now)
	default:
		// incomplete and paused carry no access decision
	}

	touch(&next, at)
	if current == nil {
		return next, true
	}
	return next, !equal(next, *current)
}

// SubscriptionDeleted cancels the record bound to the deleted subscription.
// Deletion is terminal for that subscription, so it applies even when older
// than the last applied event.
func SubscriptionDeleted(current *model.Enrollment, sub entity.SubscriptionState, at, now time.Time) (model.Enrollment, bool) {
	if current == nil || !current.BoundTo(sub.ID) {
		return clonePtr(current), false
	}
	next := clone(current)
	cancel(&next, firstTime(sub.EndedAt, sub.CanceledAt, &now), sub.CancellationReason)
	touch(&next, at)
	return next, !equal(next, *current)
}

// InvoicePaid settles a PAST_DUE record and ends a trial once real money was collected.
func InvoicePaid(current *model.Enrollment, subscriptionID string, amountPaid int64, at, now time.Time) (model.Enrollment, bool) {
	if current == nil || !current.BoundTo(subscriptionID) || stale(current, at) {
		return clonePtr(current), false
	}

	next, _ := Resolve(current, now)
	switch next.Status {
	case model.EnrollmentStatusPastDue:
		if next.CancellationDate != nil && next.CancellationDate.After(now) {
			next.Status = model.EnrollmentStatusAppliedForCancel
		} else {
			next.Status = model.EnrollmentStatusActive
		}
	case model.EnrollmentStatusTrial:
		if amountPaid > 0 {
			next.Status = model.EnrollmentStatusActive
			next.TrialStatus = false
		}
	}

	touch(&next, at)
	return next, !equal(next, *current)
}

// InvoicePaymentFailed moves a live record to PAST_DUE. Cancelled records stay cancelled.
func InvoicePaymentFailed(current *model.Enrollment, subscriptionID string, at, now time.Time) (model.Enrollment, bool) {
	if current == nil || !current.BoundTo(subscriptionID) || stale(current, at) {
		return clonePtr(current), false
	}

	next, _ := Resolve(current, now)
	if next.Status != model.EnrollmentStatusCancelled {
		next.Status = model.EnrollmentStatusPastDue
		next.TrialStatus = false
	}

	touch(&next, at)
	return next, !equal(next, *current)
}

// applyLive handles trialing and active subscriptions, including a scheduled cancellation.
func applyLive(next *model.Enrollment, current *model.Enrollment, sub entity.SubscriptionState, now time.Time) {
	var trialEnd *time.Time
	if sub.Status == entity.SubscriptionStatusTrialing && trialEligible(current, sub.ID) {
		trialEnd = firstTime(sub.TrialEnd, sub.CurrentPeriodEnd, next.TrialEndDate)
	}

	if trialEnd != nil {
		next.HasUsedTrial = true
		next.TrialStatus = true
		next.TrialEndDate = copyTime(trialEnd)
	} else {
		next.TrialStatus = false
	}

	if date := scheduledCancel(sub); date != nil {
		if !date.After(now) {
			cancel(next, date, sub.CancellationReason)
			return
		}
		next.Status = model.EnrollmentStatusAppliedForCancel
		next.CancellationDate = copyTime(date)
		setReason(next, sub.CancellationReason)
		return
	}

	next.CancellationDate = nil
	next.CancellationReason = nil
	if trialEnd != nil {
		next.Status = model.EnrollmentStatusTrial
	} else {
		next.Status = model.EnrollmentStatusActive
	}
}

// trialEligible allows a trial when none was used, or when the stored trial
// belongs to this same subscription and is still running.
func trialEligible(current *model.Enrollment, subscriptionID string) bool {
	if current == nil || !current.HasUsedTrial {
		return true
	}
	return current.TrialStatus && current.BoundTo(subscriptionID)
}

func scheduledCancel(sub entity.SubscriptionState) *time.Time {
	if sub.CancelAt != nil {
		return sub.CancelAt
	}
	if sub.CancelAtPeriodEnd {
		return sub.CurrentPeriodEnd
	}
	return nil
}

// creates reports whether a subscription in this status may create or rebind a record.
func creates(status entity.SubscriptionStatus) bool {
	switch status {
	case entity.SubscriptionStatusTrialing, entity.SubscriptionStatusActive,
		entity.SubscriptionStatusPastDue, entity.SubscriptionStatusUnpaid:
		return true
	}
	return false
}

func cancel(e *model.Enrollment, date *time.Time, reason string) {
	e.Status = model.EnrollmentStatusCancelled
	e.TrialStatus = false
	e.CancellationDate = copyTime(date)
	setReason(e, reason)
}

func setReason(e *model.Enrollment, reason string) {
	if reason != "" {
		e.CancellationReason = stringPtr(reason)
	}
}

func stale(current *model.Enrollment, at time.Time) bool {
	return current != nil && !at.IsZero() && current.LastEventAt != nil && at.Before(*current.LastEventAt)
}

func touch(e *model.Enrollment, at time.Time) {
	if at.IsZero() {
		return
	}
	if e.LastEventAt == nil || at.After(*e.LastEventAt) {
		e.LastEventAt = copyTime(&at)
	}
}
