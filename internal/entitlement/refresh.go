package entitlement

import (
	"math"
	"time"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
)

func ShouldRefreshMissionSlots(u *domain.User, now time.Time) bool {
	return refreshDue(u.MissionLimits.LastRefresh, now, constants.MissionRefreshWindow)
}

func ShouldRefreshDailyMissions(u *domain.User, now time.Time) bool {
	return refreshDue(u.DailyMissions.LastRefresh, now, constants.DailyRefreshWindow)
}

func refreshDue(last domain.Timestamp, now time.Time, window time.Duration) bool {
	if !last.IsSet() {
		return true
	}
	return now.Sub(last.Time) >= window
}

// HoursUntilSlotRefresh rounds up so a pending refresh never reads as 0 hours.
func HoursUntilSlotRefresh(u *domain.User, now time.Time) int {
	next := u.MissionLimits.NextRefresh.Time
	if !u.MissionLimits.NextRefresh.IsSet() {
		if !u.MissionLimits.LastRefresh.IsSet() {
			return 0
		}
		next = u.MissionLimits.LastRefresh.Add(constants.MissionRefreshWindow)
	}
	d := next.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours()))
}

// ResetMissionLimits gives the user a full budget for their current tier.
func ResetMissionLimits(u *domain.User, now time.Time) {
	limit := MaxActiveMissions(SubscriptionTier(u))
	u.MissionLimits = domain.MissionLimits{
		MaxActiveMissions: limit,
		AvailableSlots:    limit,
		LastRefresh:       domain.NewTimestamp(now),
		NextRefresh:       domain.NewTimestamp(now.Add(constants.MissionRefreshWindow)),
		Initialized:       true,
	}
}

// EnsureInitialized fills subscription and limit fields missing on older records.
// It reports whether anything changed.
func EnsureInitialized(u *domain.User, now time.Time) bool {
	changed := false
	if _, ok := tiers[u.Subscription.Tier]; !ok {
		u.Subscription.Tier = domain.TierFree
		changed = true
	}
	if u.Subscription.Status == "" {
		u.Subscription.Status = domain.StatusActive
		changed = true
	}
	if u.Subscription.Provider == "" {
		u.Subscription.Provider = domain.ProviderNone
		changed = true
	}
	if !u.MissionLimits.Initialized {
		ResetMissionLimits(u, now)
		changed = true
	}
	return changed
}

// SyncMissionLimits recomputes the tier max and refills the budget when the window
// has elapsed. Available slots never exceed the max.
func SyncMissionLimits(u *domain.User, now time.Time) bool {
	changed := EnsureInitialized(u, now)

	limit := MaxActiveMissions(SubscriptionTier(u))
	if u.MissionLimits.MaxActiveMissions != limit {
		u.MissionLimits.MaxActiveMissions = limit
		changed = true
	}
	if ShouldRefreshMissionSlots(u, now) {
		ResetMissionLimits(u, now)
		return true
	}
	if u.MissionLimits.AvailableSlots > limit {
		u.MissionLimits.AvailableSlots = limit
		changed = true
	}
	return changed
}

func NewUser(id, email, username string, now time.Time) *domain.User {
	u := &domain.User{
		ID:       id,
		Email:    email,
		Username: username,
		Subscription: domain.Subscription{
			Tier:     domain.TierFree,
			Status:   domain.StatusActive,
			Provider: domain.ProviderNone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ResetMissionLimits(u, now)
	return u
}
