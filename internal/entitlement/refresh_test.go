package entitlement

import (
	"testing"
	"time"
	"valorant-missions/internal/domain"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func userWithLastRefresh(raw any) *domain.User {
	u := &domain.User{}
	t, _ := domain.ParseTime(raw)
	u.MissionLimits.LastRefresh = domain.Timestamp{Time: t}
	u.DailyMissions.LastRefresh = domain.Timestamp{Time: t}
	return u
}

func TestShouldRefresh(t *testing.T) {
	old := now.Add(-25 * time.Hour)
	recent := now.Add(-24*time.Hour + time.Minute)

	tests := []struct {
		name string
		raw  any
		want bool
	}{
		{"never refreshed", nil, true},
		{"unparseable", "not a date", true},
		{"exactly 24h", now.Add(-24 * time.Hour), true},
		{"old native", old, true},
		{"old string", old.Format(time.RFC3339), true},
		{"old firestore", map[string]any{"_seconds": float64(old.Unix()), "_nanoseconds": 0.0}, true},
		{"recent native", recent, false},
		{"recent string", recent.Format(time.RFC3339), false},
		{"recent millis", float64(recent.UnixMilli()), false},
		{"recent firestore", map[string]any{"seconds": float64(recent.Unix())}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := userWithLastRefresh(tt.raw)
			assert.Equal(t, tt.want, ShouldRefreshMissionSlots(u, now))
			assert.Equal(t, tt.want, ShouldRefreshDailyMissions(u, now))
		})
	}
}

func TestSyncMissionLimitsInitializesLegacyRecord(t *testing.T) {
	u := &domain.User{ID: "u1"}

	changed := SyncMissionLimits(u, now)

	assert.True(t, changed)
	assert.Equal(t, domain.TierFree, u.Subscription.Tier)
	assert.Equal(t, domain.StatusActive, u.Subscription.Status)
	assert.Equal(t, 1, u.MissionLimits.MaxActiveMissions)
	assert.Equal(t, 1, u.MissionLimits.AvailableSlots)
	assert.True(t, u.MissionLimits.NextRefresh.Equal(now.Add(24*time.Hour)))
}

func TestSyncMissionLimitsKeepsBudgetInsideWindow(t *testing.T) {
	u := NewUser("u1", "a@b.c", "ace", now)
	u.Subscription.Tier = domain.TierStandard
	u.MissionLimits.MaxActiveMissions = 5
	u.MissionLimits.AvailableSlots = 2

	changed := SyncMissionLimits(u, now.Add(3*time.Hour))

	assert.False(t, changed)
	assert.Equal(t, 2, u.MissionLimits.AvailableSlots)
}

func TestSyncMissionLimitsRefillsAfterWindow(t *testing.T) {
	u := NewUser("u1", "a@b.c", "ace", now)
	u.Subscription.Tier = domain.TierPremium
	u.MissionLimits.AvailableSlots = 0

	later := now.Add(25 * time.Hour)
	assert.True(t, SyncMissionLimits(u, later))
	assert.Equal(t, 10, u.MissionLimits.MaxActiveMissions)
	assert.Equal(t, 10, u.MissionLimits.AvailableSlots)
	assert.True(t, u.MissionLimits.LastRefresh.Equal(later))
}

func TestSyncMissionLimitsClampsAfterDowngrade(t *testing.T) {
	u := NewUser("u1", "a@b.c", "ace", now)
	u.MissionLimits.MaxActiveMissions = 10
	u.MissionLimits.AvailableSlots = 7

	SyncMissionLimits(u, now.Add(time.Hour))

	assert.Equal(t, 1, u.MissionLimits.MaxActiveMissions)
	assert.Equal(t, 1, u.MissionLimits.AvailableSlots)
}

func TestHoursUntilSlotRefresh(t *testing.T) {
	u := NewUser("u1", "", "", now)
	assert.Equal(t, 24, HoursUntilSlotRefresh(u, now))
	assert.Equal(t, 1, HoursUntilSlotRefresh(u, now.Add(23*time.Hour+30*time.Minute)))
	assert.Equal(t, 0, HoursUntilSlotRefresh(u, now.Add(48*time.Hour)))
}
