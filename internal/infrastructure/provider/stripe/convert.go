package stripe

import (
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
)

// SubscriptionState converts a Stripe subscription into its absolute domain state.
func SubscriptionState(sub *stripe.Subscription) entity.SubscriptionState {
	state := entity.SubscriptionState{
		ID:                sub.ID,
		Status:            entity.SubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CancelAt:          unixTime(sub.CancelAt),
		CanceledAt:        unixTime(sub.CanceledAt),
		EndedAt:           unixTime(sub.EndedAt),
		TrialEnd:          unixTime(sub.TrialEnd),
		CurrentPeriodEnd:  unixTime(sub.CurrentPeriodEnd),
		Correlation:       entity.CorrelationFromMetadata(sub.Metadata),
	}
	if sub.CancellationDetails != nil {
		state.CancellationReason = string(sub.CancellationDetails.Reason)
	}
	return state
}

// unixTime maps Stripe's zero timestamp to nil.
func unixTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

// UnixTime is the exported form used by the webhook decoder.
func UnixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
