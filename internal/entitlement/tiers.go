// Package entitlement decides what a user's subscription allows: how many missions
// they may hold, when their daily budgets refresh and which missions they are offered.
package entitlement

import (
	"errors"
	"strings"
	"valorant-missions/internal/domain"
)

var ErrUnknownTier = errors.New("unknown subscription tier")

type TierInfo struct {
	Key               domain.Tier `json:"key"`
	Name              string      `json:"name"`
	MaxActiveMissions int         `json:"maxActiveMissions"`
	DailyMissionCount int         `json:"dailyMissionCount"`
	Price             float64     `json:"price"`
	Features          []string    `json:"features"`
	KofiTierName      string      `json:"kofiTierName,omitempty"`
	ClerkPlanID       string      `json:"clerkPlanId,omitempty"`
}

var tierOrder = []domain.Tier{domain.TierFree, domain.TierStandard, domain.TierPremium}

var tiers = map[domain.Tier]TierInfo{
	domain.TierFree: {
		Key:               domain.TierFree,
		Name:              "Free",
		MaxActiveMissions: 1,
		DailyMissionCount: 3,
		Price:             0,
		Features:          []string{"1 active mission", "3 daily missions to choose from", "Match tracking"},
		ClerkPlanID:       "free",
	},
	domain.TierStandard: {
		Key:               domain.TierStandard,
		Name:              "Standard",
		MaxActiveMissions: 5,
		DailyMissionCount: 6,
		Price:             3,
		Features:          []string{"5 active missions", "6 daily missions to choose from", "Match tracking", "Supporter badge"},
		KofiTierName:      "Standard",
		ClerkPlanID:       "standard",
	},
	domain.TierPremium: {
		Key:               domain.TierPremium,
		Name:              "Premium",
		MaxActiveMissions: 10,
		DailyMissionCount: 10,
		Price:             5,
		Features:          []string{"10 active missions", "10 daily missions to choose from", "Match tracking", "Supporter badge", "Priority refresh"},
		KofiTierName:      "Premium",
		ClerkPlanID:       "premium",
	},
}

// Tiers returns the table cheapest first.
func Tiers() []TierInfo {
	out := make([]TierInfo, 0, len(tierOrder))
	for _, k := range tierOrder {
		out = append(out, tiers[k])
	}
	return out
}

func Lookup(tier domain.Tier) TierInfo {
	if info, ok := tiers[tier]; ok {
		return info
	}
	return tiers[domain.TierFree]
}

func SubscriptionTier(u *domain.User) domain.Tier {
	if u == nil {
		return domain.TierFree
	}
	if _, ok := tiers[u.Subscription.Tier]; ok {
		return u.Subscription.Tier
	}
	return domain.TierFree
}

func MaxActiveMissions(tier domain.Tier) int {
	return Lookup(tier).MaxActiveMissions
}

func DailyMissionCount(tier domain.Tier) int {
	return Lookup(tier).DailyMissionCount
}

func ParseTier(s string) (domain.Tier, error) {
	t := domain.Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tiers[t]; !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}

// TierFromKofi maps a Ko-fi membership tier name. Only paid tiers are sold there.
func TierFromKofi(name string) (domain.Tier, error) {
	name = strings.TrimSpace(name)
	for _, k := range tierOrder {
		info := tiers[k]
		if info.KofiTierName != "" && strings.EqualFold(info.KofiTierName, name) {
			return k, nil
		}
	}
	return "", ErrUnknownTier
}

func TierFromClerkPlan(planID string) (domain.Tier, error) {
	planID = strings.TrimSpace(planID)
	for _, k := range tierOrder {
		if tiers[k].ClerkPlanID == planID {
			return k, nil
		}
	}
	return "", ErrUnknownTier
}
