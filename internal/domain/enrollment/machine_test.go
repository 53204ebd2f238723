package enrollment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.Add(time.Duration(n) * 24 * time.Hour) }

func ptr[T any](v T) *T { return &v }

var correlation = entity.Correlation{
	StudentID:   "student-1",
	CourseID:    "course-1",
	TeacherID:   "teacher-1",
	PaymentType: model.PaymentTypeSubscription,
}

func subscription(id string, status entity.SubscriptionStatus) entity.SubscriptionState {
	return entity.SubscriptionState{
		ID:               id,
		Status:           status,
		CurrentPeriodEnd: ptr(day(30)),
		Correlation:      correlation,
	}
}

func stored(e model.Enrollment) *model.Enrollment {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return &e
}

func TestEnroll(t *testing.T) {
	t.Run("creates active record when none exists", func(t *testing.T) {
		next, changed := Enroll(nil, correlation, model.EnrollmentTypeOneTime, day(0), day(0))

		require.True(t, changed)
		assert.Equal(t, model.EnrollmentStatusActive, next.Status)
		assert.Equal(t, model.EnrollmentTypeOneTime, next.EnrollmentType)
		assert.Equal(t, "student-1", next.StudentID)
		assert.Equal(t, "course-1", next.CourseID)
	})

	t.Run("requires student and course", func(t *testing.T) {
		_, changed := Enroll(nil, entity.Correlation{CourseID: "course-1"}, model.EnrollmentTypeFree, day(0), day(0))
		assert.False(t, changed)
	})

	t.Run("leaves existing live record untouched", func(t *testing.T) {
		current := stored(model.Enrollment{Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeOneTime})
		next, changed := Enroll(current, correlation, model.EnrollmentTypeOneTime, day(1), day(1))

		assert.False(t, changed)
		assert.Equal(t, *current, next)
	})

	t.Run("reactivates cancelled record and keeps trial history", func(t *testing.T) {
		current := stored(model.Enrollment{
			Status:                 model.EnrollmentStatusCancelled,
			EnrollmentType:         model.EnrollmentTypeSubscription,
			ProviderSubscriptionID: ptr("sub_old"),
			HasUsedTrial:           true,
			CancellationDate:       ptr(day(-1)),
			CancellationReason:     ptr("cancellation_requested"),
		})
		next, changed := Enroll(current, correlation, model.EnrollmentTypeOneTime, day(1), day(1))

		require.True(t, changed)
		assert.Equal(t, current.ID, next.ID)
		assert.Equal(t, model.EnrollmentStatusActive, next.Status)
		assert.Equal(t, model.EnrollmentTypeOneTime, next.EnrollmentType)
		assert.Nil(t, next.ProviderSubscriptionID)
		assert.Nil(t, next.CancellationDate)
		assert.True(t, next.HasUsedTrial)
	})

	t.Run("reactivates record whose scheduled cancellation passed", func(t *testing.T) {
		current := stored(model.Enrollment{
			Status:           model.EnrollmentStatusAppliedForCancel,
			EnrollmentType:   model.EnrollmentTypeSubscription,
			CancellationDate: ptr(day(-1)),
		})
		next, changed := Enroll(current, correlation, model.EnrollmentTypeFree, day(0), day(0))

		require.True(t, changed)
		assert.Equal(t, model.EnrollmentStatusActive, next.Status)
	})
}

func TestApplySubscription_Table(t *testing.T) {
	tests := []struct {
		name       string
		current    *model.Enrollment
		sub        entity.SubscriptionState
		wantStatus model.EnrollmentStatus
		wantChange bool
		check      func(t *testing.T, next model.Enrollment)
	}{
		{
			name: "none + trialing creates trial",
			sub: func() entity.SubscriptionState {
				s := subscription("sub_1", entity.SubscriptionStatusTrialing)
				s.TrialEnd = ptr(day(30))
				return s
			}(),
			wantStatus: model.EnrollmentStatusTrial,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.True(t, next.HasUsedTrial)
				assert.True(t, next.TrialStatus)
				assert.True(t, next.TrialEndDate.Equal(day(30)))
				assert.True(t, next.BoundTo("sub_1"))
				assert.Equal(t, model.EnrollmentTypeSubscription, next.EnrollmentType)
			},
		},
		{
			name:       "none + active creates active",
			sub:        subscription("sub_1", entity.SubscriptionStatusActive),
			wantStatus: model.EnrollmentStatusActive,
			wantChange: true,
		},
		{
			name:       "none + incomplete creates nothing",
			sub:        subscription("sub_1", entity.SubscriptionStatusIncomplete),
			wantChange: false,
		},
		{
			name:       "none + canceled creates nothing",
			sub:        subscription("sub_1", entity.SubscriptionStatusCanceled),
			wantChange: false,
		},
		{
			name: "trialing after the trial already converted stays active",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"), HasUsedTrial: true, LastEventAt: ptr(day(5)),
			}),
			sub:        subscription("sub_1", entity.SubscriptionStatusTrialing),
			wantStatus: model.EnrollmentStatusActive,
			wantChange: false,
			check: func(t *testing.T, next model.Enrollment) {
				assert.False(t, next.TrialStatus)
			},
		},
		{
			name: "running trial stays trial on redelivery",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusTrial, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"), HasUsedTrial: true, TrialStatus: true, TrialEndDate: ptr(day(30)),
				LastEventAt: ptr(day(5)),
			}),
			sub: func() entity.SubscriptionState {
				s := subscription("sub_1", entity.SubscriptionStatusTrialing)
				s.TrialEnd = ptr(day(30))
				return s
			}(),
			wantStatus: model.EnrollmentStatusTrial,
			wantChange: false,
		},
		{
			name: "active + cancel at period end schedules cancellation",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub: func() entity.SubscriptionState {
				s := subscription("sub_1", entity.SubscriptionStatusActive)
				s.CancelAtPeriodEnd = true
				s.CancellationReason = "cancellation_requested"
				return s
			}(),
			wantStatus: model.EnrollmentStatusAppliedForCancel,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.True(t, next.CancellationDate.Equal(day(30)))
				assert.Equal(t, "cancellation_requested", *next.CancellationReason)
			},
		},
		{
			name: "explicit cancel_at wins over period end",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub: func() entity.SubscriptionState {
				s := subscription("sub_1", entity.SubscriptionStatusActive)
				s.CancelAt = ptr(day(10))
				return s
			}(),
			wantStatus: model.EnrollmentStatusAppliedForCancel,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.True(t, next.CancellationDate.Equal(day(10)))
			},
		},
		{
			name: "scheduled cancellation already in the past cancels immediately",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub: func() entity.SubscriptionState {
				s := subscription("sub_1", entity.SubscriptionStatusActive)
				s.CancelAt = ptr(day(-1))
				return s
			}(),
			wantStatus: model.EnrollmentStatusCancelled,
			wantChange: true,
		},
		{
			name: "applied for cancel + flag cleared reactivates",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusAppliedForCancel, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"), CancellationDate: ptr(day(30)),
			}),
			sub:        subscription("sub_1", entity.SubscriptionStatusActive),
			wantStatus: model.EnrollmentStatusActive,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.Nil(t, next.CancellationDate)
			},
		},
		{
			name: "any + past_due",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusTrial, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"), HasUsedTrial: true, TrialStatus: true, TrialEndDate: ptr(day(0)),
			}),
			sub:        subscription("sub_1", entity.SubscriptionStatusPastDue),
			wantStatus: model.EnrollmentStatusPastDue,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.True(t, next.HasUsedTrial)
				assert.False(t, next.TrialStatus)
			},
		},
		{
			name: "any + unpaid",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub:        subscription("sub_1", entity.SubscriptionStatusUnpaid),
			wantStatus: model.EnrollmentStatusPastDue,
			wantChange: true,
		},
		{
			name: "any + canceled uses ended_at",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusPastDue, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub: func() entity.SubscriptionState {
				s := subscription("sub_1", entity.SubscriptionStatusCanceled)
				s.EndedAt = ptr(day(2))
				s.CanceledAt = ptr(day(1))
				return s
			}(),
			wantStatus: model.EnrollmentStatusCancelled,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.True(t, next.CancellationDate.Equal(day(2)))
			},
		},
		{
			name: "any + incomplete_expired without dates uses now",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub:        subscription("sub_1", entity.SubscriptionStatusIncompleteExpired),
			wantStatus: model.EnrollmentStatusCancelled,
			wantChange: true,
			check: func(t *testing.T, next model.Enrollment) {
				assert.True(t, next.CancellationDate.Equal(day(5)))
			},
		},
		{
			name: "event for another subscription is ignored on a live record",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
				ProviderSubscriptionID: ptr("sub_1"),
			}),
			sub:        subscription("sub_2", entity.SubscriptionStatusCanceled),
			wantStatus: model.EnrollmentStatusActive,
			wantChange: false,
		},
		{
			name: "one-time record ignores subscription events",
			current: stored(model.Enrollment{
				Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeOneTime,
			}),
			sub:        subscription("sub_1", entity.SubscriptionStatusPastDue),
			wantStatus: model.EnrollmentStatusActive,
			wantChange: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed := ApplySubscription(tt.current, tt.sub, day(5), day(5))

			assert.Equal(t, tt.wantChange, changed)
			if tt.wantStatus != "" {
				assert.Equal(t, tt.wantStatus, next.Status)
			}
			if tt.current != nil {
				assert.Equal(t, tt.current.ID, next.ID, "enrollment id must be stable")
			}
			if tt.check != nil {
				tt.check(t, next)
			}
			// invariant: TRIAL implies trial flag and end date
			if next.Status == model.EnrollmentStatusTrial {
				assert.True(t, next.TrialStatus)
				assert.NotNil(t, next.TrialEndDate)
			}
			if next.Status == model.EnrollmentStatusAppliedForCancel {
				require.NotNil(t, next.CancellationDate)
				assert.True(t, next.CancellationDate.After(day(5)))
			}
		})
	}
}

func TestApplySubscription_DoesNotMutateInput(t *testing.T) {
	current := stored(model.Enrollment{
		Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
		ProviderSubscriptionID: ptr("sub_1"),
	})
	snapshot := clone(current)

	sub := subscription("sub_1", entity.SubscriptionStatusActive)
	sub.CancelAtPeriodEnd = true
	_, changed := ApplySubscription(current, sub, day(1), day(1))

	require.True(t, changed)
	assert.Equal(t, snapshot, *current)
}

func TestApplySubscription_StaleEventIgnored(t *testing.T) {
	current := stored(model.Enrollment{
		Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
		ProviderSubscriptionID: ptr("sub_1"), LastEventAt: ptr(day(10)),
	})

	next, changed := ApplySubscription(current, subscription("sub_1", entity.SubscriptionStatusPastDue), day(9), day(11))

	assert.False(t, changed)
	assert.Equal(t, model.EnrollmentStatusActive, next.Status)
}

func TestApplySubscription_NoopStillAdvancesLastEventAt(t *testing.T) {
	current := stored(model.Enrollment{
		Status: model.EnrollmentStatusActive, EnrollmentType: model.EnrollmentTypeSubscription,
		ProviderSubscriptionID: ptr("sub_1"), LastEventAt: ptr(day(1)),
	})

	next, changed := ApplySubscription(current, subscription("sub_1", entity.SubscriptionStatusActive), day(3), day(3))
	require.True(t, changed)
	assert.True(t, next.LastEventAt.Equal(day(3)))

	// an older past_due delivered afterwards no longer applies
	after, changed := ApplySubscription(&next, subscription("sub_1", entity.SubscriptionStatusPastDue), day(2), day(4))
	assert.False(t, changed)
	assert.Equal(t, model.EnrollmentStatusActive, after.Status)
}

func TestSubscriptionDeleted(t *testing.T) {
	current := stored(model.Enrollment{
		Status: model.EnrollmentStatusAppliedForCancel, EnrollmentType: model.EnrollmentTypeSubscription,
		ProviderSubscriptionID: ptr("sub_1"), CancellationDate: ptr(day(30)), LastEventAt: ptr(day(20)),
	})

	sub := subscription("sub_1", entity.SubscriptionStatusCanceled)
	sub.CanceledAt = ptr(day(15))
	sub.CancellationReason = "payment_failed"

	next, changed := SubscriptionDeleted(current, sub, day(15), day(31))
	require.True(t, changed)
	assert.Equal(t, model.EnrollmentStatusCancelled, next.Status)
	assert.True(t, next.CancellationDate.Equal(day(15)))
	assert.Equal(t, "payment_failed", *next.CancellationReason)

	_, changed = SubscriptionDeleted(current, subscription("sub_other", entity.SubscriptionStatusCanceled), day(31), day(31))
	assert.False(t, changed)

	_, changed = SubscriptionDeleted(nil, sub, day(31), day(31))
	assert.False(t, changed)
}

func TestInvoicePaid(t *testing.T) {
	tests := []struct {
		name       string
		current    model.Enrollment
		amountPaid int64
		want       model.EnrollmentStatus
	}{
		{"past due settles", model.Enrollment{Status: model.EnrollmentStatusPastDue}, 1000, model.EnrollmentStatusActive},
		{"past due with pending cancellation returns to applied for cancel",
			model.Enrollment{Status: model.EnrollmentStatusPastDue, CancellationDate: ptr(day(20))}, 1000, model.EnrollmentStatusAppliedForCancel},
		{"zero amount trial invoice keeps trial",
			model.Enrollment{Status: model.EnrollmentStatusTrial, TrialStatus: true, HasUsedTrial: true, TrialEndDate: ptr(day(30))}, 0, model.EnrollmentStatusTrial},
		{"paid trial invoice activates",
			model.Enrollment{Status: model.EnrollmentStatusTrial, TrialStatus: true, HasUsedTrial: true, TrialEndDate: ptr(day(0))}, 1000, model.EnrollmentStatusActive},
		{"cancelled stays cancelled", model.Enrollment{Status: model.EnrollmentStatusCancelled}, 1000, model.EnrollmentStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.current.EnrollmentType = model.EnrollmentTypeSubscription
			tt.current.ProviderSubscriptionID = ptr("sub_1")

			next, _ := InvoicePaid(stored(tt.current), "sub_1", tt.amountPaid, day(1), day(1))
			assert.Equal(t, tt.want, next.Status)
		})
	}

	t.Run("unbound subscription ignored", func(t *testing.T) {
		current := stored(model.Enrollment{Status: model.EnrollmentStatusPastDue, ProviderSubscriptionID: ptr("sub_1")})
		next, changed := InvoicePaid(current, "sub_2", 1000, day(1), day(1))
		assert.False(t, changed)
		assert.Equal(t, model.EnrollmentStatusPastDue, next.Status)
	})
}

func TestInvoicePaymentFailed(t *testing.T) {
	active := stored(model.Enrollment{Status: model.EnrollmentStatusActive, ProviderSubscriptionID: ptr("sub_1")})
	next, changed := InvoicePaymentFailed(active, "sub_1", day(1), day(1))
	require.True(t, changed)
	assert.Equal(t, model.EnrollmentStatusPastDue, next.Status)

	cancelled := stored(model.Enrollment{Status: model.EnrollmentStatusCancelled, ProviderSubscriptionID: ptr("sub_1")})
	next, _ = InvoicePaymentFailed(cancelled, "sub_1", day(1), day(1))
	assert.Equal(t, model.EnrollmentStatusCancelled, next.Status)
}

func TestResolve_LazyCancellation(t *testing.T) {
	current := stored(model.Enrollment{
		Status: model.EnrollmentStatusAppliedForCancel, EnrollmentType: model.EnrollmentTypeSubscription,
		CancellationDate: ptr(day(30)),
	})

	next, changed := Resolve(current, day(29))
	assert.False(t, changed)
	assert.Equal(t, model.EnrollmentStatusAppliedForCancel, next.Status)

	next, changed = Resolve(current, day(30))
	assert.True(t, changed)
	assert.Equal(t, model.EnrollmentStatusCancelled, next.Status)
	assert.Equal(t, model.EnrollmentStatusAppliedForCancel, current.Status)
}

// TestTrialExclusivity walks cancel/resubscribe cycles and checks TRIAL is entered once.
func TestTrialExclusivity(t *testing.T) {
	trialing := func(id string, end time.Time) entity.SubscriptionState {
		s := subscription(id, entity.SubscriptionStatusTrialing)
		s.TrialEnd = ptr(end)
		return s
	}

	trialEntries := 0
	record := func(e model.Enrollment) *model.Enrollment {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		return &e
	}
	observe := func(prev *model.Enrollment, next model.Enrollment) {
		if next.Status == model.EnrollmentStatusTrial && (prev == nil || prev.Status != model.EnrollmentStatusTrial) {
			trialEntries++
		}
		if prev != nil && prev.HasUsedTrial {
			assert.True(t, next.HasUsedTrial, "has_used_trial must never reset")
		}
	}

	next, _ := ApplySubscription(nil, trialing("sub_1", day(14)), day(0), day(0))
	observe(nil, next)
	current := record(next)
	id := current.ID

	next, _ = SubscriptionDeleted(current, subscription("sub_1", entity.SubscriptionStatusCanceled), day(5), day(5))
	observe(current, next)
	current = record(next)

	next, changed := ApplySubscription(current, trialing("sub_2", day(20)), day(6), day(6))
	require.True(t, changed)
	observe(current, next)
	current = record(next)
	assert.Equal(t, model.EnrollmentStatusActive, current.Status)
	assert.True(t, current.BoundTo("sub_2"))

	next, _ = SubscriptionDeleted(current, subscription("sub_2", entity.SubscriptionStatusCanceled), day(8), day(8))
	observe(current, next)
	current = record(next)

	next, _ = ApplySubscription(current, trialing("sub_3", day(30)), day(9), day(9))
	observe(current, next)

	assert.Equal(t, 1, trialEntries)
	assert.Equal(t, id, next.ID)
	assert.Equal(t, model.EnrollmentStatusActive, next.Status)
}

// TestThirtyDayTrialScenario follows a student through trial, conversion,
// scheduled cancellation and the lazy cancel on read.
func TestThirtyDayTrialScenario(t *testing.T) {
	sub := subscription("sub_1", entity.SubscriptionStatusTrialing)
	sub.TrialEnd = ptr(day(30))
	sub.CurrentPeriodEnd = ptr(day(30))

	next, _ := ApplySubscription(nil, sub, day(0), day(0))
	assert.Equal(t, model.EnrollmentStatusTrial, next.Status)
	assert.True(t, next.HasUsedTrial)
	assert.True(t, next.TrialEndDate.Equal(day(30)))
	current := stored(next)

	sub.Status = entity.SubscriptionStatusActive
	sub.CurrentPeriodEnd = ptr(day(61))
	next, _ = ApplySubscription(current, sub, day(31), day(31))
	assert.Equal(t, model.EnrollmentStatusActive, next.Status)
	current = stored(next)

	sub.CancelAtPeriodEnd = true
	next, _ = ApplySubscription(current, sub, day(40), day(40))
	assert.Equal(t, model.EnrollmentStatusAppliedForCancel, next.Status)
	assert.True(t, next.CancellationDate.Equal(day(61)))
	current = stored(next)

	resolved, changed := Resolve(current, day(61))
	assert.True(t, changed)
	assert.Equal(t, model.EnrollmentStatusCancelled, resolved.Status)

	access := Decide(&resolved)
	assert.False(t, access.Granted)
	assert.True(t, access.CanRenew)

	// renewal must not grant another trial
	renewal := subscription("sub_2", entity.SubscriptionStatusTrialing)
	renewal.TrialEnd = ptr(day(91))
	next, _ = ApplySubscription(&resolved, renewal, day(62), day(62))
	assert.Equal(t, model.EnrollmentStatusActive, next.Status)
	assert.True(t, next.HasUsedTrial)
}

func TestDecide_AccessBoundary(t *testing.T) {
	tests := []struct {
		status      model.EnrollmentStatus
		typ         model.EnrollmentType
		wantGranted bool
		wantRenew   bool
	}{
		{model.EnrollmentStatusActive, model.EnrollmentTypeSubscription, true, false},
		{model.EnrollmentStatusTrial, model.EnrollmentTypeSubscription, true, false},
		{model.EnrollmentStatusAppliedForCancel, model.EnrollmentTypeSubscription, true, false},
		{model.EnrollmentStatusPastDue, model.EnrollmentTypeSubscription, true, false},
		{model.EnrollmentStatusCancelled, model.EnrollmentTypeSubscription, false, true},
		{model.EnrollmentStatusCancelled, model.EnrollmentTypeOneTime, false, false},
		{model.EnrollmentStatusCancelled, model.EnrollmentTypeFree, false, false},
		{model.EnrollmentStatusCancelled, model.EnrollmentTypeTeacherEnrollment, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.typ), func(t *testing.T) {
			e := stored(model.Enrollment{Status: tt.status, EnrollmentType: tt.typ})
			access := Decide(e)

			assert.Equal(t, tt.wantGranted, access.Granted)
			assert.Equal(t, tt.wantRenew, access.CanRenew)
			assert.Equal(t, e.ID.String(), access.EnrollmentID)
		})
	}

	assert.Equal(t, Access{}, Decide(nil))
}
