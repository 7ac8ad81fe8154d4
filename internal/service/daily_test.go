package service

import (
	"context"
	"testing"
	"time"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missionIDs(missions []domain.Mission) []string {
	ids := make([]string, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}
	return ids
}

func TestDailyMissionsStableWithinDay(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.createUser(t, "user_123")

	first, err := h.daily.Get(ctx, "user_123")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, first.Tier)
	assert.Equal(t, 3, first.DailyMissionCount)
	require.Len(t, first.Missions, 3)
	assert.True(t, first.NextRefresh.Equal(start.Add(24*time.Hour)))

	catalog, err := h.missionRepo.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, entitlement.GenerateDailyMissionSelection(catalog, "user_123", 3, start), missionIDs(first.Missions))

	h.clock.advance(6 * time.Hour)
	again, err := h.daily.Get(ctx, "user_123")
	require.NoError(t, err)
	assert.Equal(t, missionIDs(first.Missions), missionIDs(again.Missions))
	assert.True(t, again.LastRefresh.Equal(start))
}

func TestDailyMissionsRefreshAfterWindow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.createUser(t, "user_123")

	_, err := h.daily.Get(ctx, "user_123")
	require.NoError(t, err)

	h.clock.advance(24 * time.Hour)
	next, err := h.daily.Get(ctx, "user_123")
	require.NoError(t, err)
	assert.True(t, next.LastRefresh.Equal(start.Add(24*time.Hour)))

	catalog, err := h.missionRepo.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, entitlement.GenerateDailyMissionSelection(catalog, "user_123", 3, start.Add(24*time.Hour)), missionIDs(next.Missions))
}

func TestDailyMissionsFollowTier(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.linkedUser(t, "user_1", domain.TierPremium)
	_, err := h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)

	d, err := h.daily.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, d.Missions, 10)
	assert.Equal(t, 1, d.ActiveMissions)
	assert.Equal(t, 9, d.MissionLimits.AvailableSlots)
	assert.Equal(t, 24, d.HoursUntilRefresh)
}
