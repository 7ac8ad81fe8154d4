package service

import (
	"context"
	"testing"
	"time"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptRequiresRiotID(t *testing.T) {
	h := newHarness(t, nil)
	h.createUser(t, "user_1")

	_, err := h.missions.Accept(context.Background(), "user_1", "kills-25")
	assert.True(t, apperr.IsCode(err, apperr.CodeRiotIDRequired))
}

func TestAcceptUnknownUserAndMission(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.missions.Accept(ctx, "ghost", "kills-25")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	h.linkedUser(t, "user_1", domain.TierFree)
	_, err = h.missions.Accept(ctx, "user_1", "no-such-mission")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestAcceptCreatesMissionAndTakesSlot(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.linkedUser(t, "user_1", domain.TierStandard)

	um, err := h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)
	assert.Equal(t, "kills-25", um.Mission.ID)
	assert.True(t, um.StartedAt.Equal(start))
	assert.True(t, um.AcceptedAt.Equal(start))
	assert.Zero(t, um.Progress)

	u, err := h.users.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 4, u.MissionLimits.AvailableSlots)

	_, err = h.missions.Accept(ctx, "user_1", "kills-25")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeMissionAlreadyActive))
	assert.Contains(t, err.Error(), "Mission already active")
}

func TestAcceptMissionLimitReached(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.linkedUser(t, "user_1", domain.TierFree)

	_, err := h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)

	// free tier holds one active mission; the slot window refilling must not matter
	h.clock.advance(25 * time.Hour)
	_, err = h.missions.Accept(ctx, "user_1", "wins-1")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeMissionLimitReached))
	assert.Contains(t, apperr.As(err).Message, "Mission limit reached")
}

func TestAcceptDailyLimitReached(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.linkedUser(t, "user_1", domain.TierFree)

	um, err := h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)

	done := start.Add(time.Hour)
	um.Progress, um.IsCompleted, um.CompletedAt, um.LastUpdated = 25, true, &done, done
	_, err = h.userMissions.UpdateProgress(ctx, &um.UserMission)
	require.NoError(t, err)

	h.clock.advance(2 * time.Hour)
	_, err = h.missions.Accept(ctx, "user_1", "wins-1")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeDailyLimitReached))
	assert.Contains(t, apperr.As(err).Message, "Daily mission limit reached")
	assert.Contains(t, apperr.As(err).Message, "22 hours")

	h.clock.advance(22 * time.Hour)
	_, err = h.missions.Accept(ctx, "user_1", "wins-1")
	assert.NoError(t, err)
}

func TestAcceptInitializesLegacyUser(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.linkedUser(t, "user_1", domain.TierFree)

	u, err := h.userRepo.Get(ctx, "user_1")
	require.NoError(t, err)
	u.MissionLimits = domain.MissionLimits{}
	require.NoError(t, h.userRepo.SaveEntitlements(ctx, u))

	_, err = h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)

	u, err = h.userRepo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, u.MissionLimits.Initialized)
	assert.Equal(t, 1, u.MissionLimits.MaxActiveMissions)
	assert.Equal(t, 0, u.MissionLimits.AvailableSlots)
}

func TestListMissions(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.linkedUser(t, "user_1", domain.TierPremium)

	list, err := h.missions.List(ctx, "user_1", false)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, id := range []string{"kills-25", "wins-1"} {
		_, err := h.missions.Accept(ctx, "user_1", id)
		require.NoError(t, err)
	}
	list, err = h.missions.List(ctx, "user_1", true)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	catalog, err := h.missions.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 15)
}
