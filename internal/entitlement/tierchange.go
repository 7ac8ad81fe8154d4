package entitlement

import (
	"time"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
)

// TierChange is a billing event reduced to what the user document needs.
type TierChange struct {
	Provider       domain.BillingProvider
	SubscriptionID string
	ProviderTierID string
	Tier           domain.Tier
	Status         domain.SubscriptionStatus
	// zero values keep the stored period
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ApplyTierChange is the single place tier state changes. Replaying a change the
// user already reflects only refreshes the billing period. Moving to another tier
// resets the mission budget to that tier's maximum; a provider or status change on
// the same tier keeps the budget already spent. It reports whether the user changed
// beyond the billing period.
func ApplyTierChange(u *domain.User, c TierChange, now time.Time) bool {
	sub := &u.Subscription
	if sub.Provider == c.Provider &&
		sub.ProviderSubscriptionID == c.SubscriptionID &&
		sub.Tier == c.Tier &&
		sub.Status == c.Status {
		setPeriod(sub, c)
		return false
	}

	tierChanged := SubscriptionTier(u) != c.Tier
	sub.Tier = c.Tier
	sub.Status = c.Status
	sub.Provider = c.Provider
	sub.ProviderSubscriptionID = c.SubscriptionID
	sub.ProviderTierID = c.ProviderTierID
	if c.PeriodStart.IsZero() {
		c.PeriodStart = now
	}
	if c.PeriodEnd.IsZero() && c.Tier != domain.TierFree {
		c.PeriodEnd = now.Add(constants.DefaultBillingPeriod)
	}
	setPeriod(sub, c)

	if tierChanged {
		ResetMissionLimits(u, now)
	} else {
		clampMissionLimits(u, now)
	}
	return true
}

// clampMissionLimits keeps the current budget and window, capped at the tier max.
func clampMissionLimits(u *domain.User, now time.Time) {
	if !u.MissionLimits.Initialized {
		ResetMissionLimits(u, now)
		return
	}
	limit := MaxActiveMissions(SubscriptionTier(u))
	u.MissionLimits.MaxActiveMissions = limit
	if u.MissionLimits.AvailableSlots > limit {
		u.MissionLimits.AvailableSlots = limit
	}
}

func setPeriod(sub *domain.Subscription, c TierChange) {
	if !c.PeriodStart.IsZero() {
		sub.CurrentPeriodStart = domain.NewTimestamp(c.PeriodStart)
	}
	if !c.PeriodEnd.IsZero() {
		sub.CurrentPeriodEnd = domain.NewTimestamp(c.PeriodEnd)
	}
}

// CancelSubscription drops the user to free immediately. Only a paid tier being
// dropped starts a fresh free budget; cancelling while already free keeps the
// slots spent in the current window.
func CancelSubscription(u *domain.User, now time.Time) bool {
	if u.Subscription.Tier == domain.TierFree && u.Subscription.Status == domain.StatusCancelled {
		return false
	}
	wasPaid := SubscriptionTier(u) != domain.TierFree
	u.Subscription.Tier = domain.TierFree
	u.Subscription.Status = domain.StatusCancelled
	u.Subscription.CurrentPeriodEnd = domain.NewTimestamp(now)
	if wasPaid {
		ResetMissionLimits(u, now)
	} else {
		clampMissionLimits(u, now)
	}
	return true
}

// MarkPaymentFailed only flags the subscription; the tier is kept as a grace period.
func MarkPaymentFailed(u *domain.User) bool {
	if u.Subscription.Status == domain.StatusInactive {
		return false
	}
	u.Subscription.Status = domain.StatusInactive
	return true
}

func MarkPaymentSucceeded(u *domain.User, periodEnd, now time.Time) bool {
	if periodEnd.IsZero() {
		periodEnd = now.Add(constants.DefaultBillingPeriod)
	}
	end := domain.NewTimestamp(periodEnd)
	if u.Subscription.Status == domain.StatusActive && u.Subscription.CurrentPeriodEnd.Equal(end.Time) {
		return false
	}
	u.Subscription.Status = domain.StatusActive
	u.Subscription.CurrentPeriodEnd = end
	return true
}
