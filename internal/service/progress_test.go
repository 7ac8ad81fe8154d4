package service

import (
	"context"
	"testing"
	"time"
	"valorant-missions/internal/api"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchOpts struct {
	id        string
	startedAt time.Time
	kills     int
	headshots int
	won       bool
	queue     string
	weapon    string
}

func v4Match(puuid string, o matchOpts) api.V4MatchData {
	var m api.V4MatchData
	m.Metadata.MatchID = o.id
	m.Metadata.StartedAt = o.startedAt
	m.Metadata.Map.Name = "Ascent"
	m.Metadata.Queue.ID = "competitive"
	m.Metadata.Queue.Name = "Competitive"
	if o.queue != "" {
		m.Metadata.Queue.ID = o.queue
		m.Metadata.Queue.Name = o.queue
	}

	var p api.V4Player
	p.Puuid = puuid
	p.TeamID = "Red"
	p.Agent.Name = "Jett"
	p.Stats.Kills = o.kills
	p.Stats.Headshots = o.headshots
	m.Players = []api.V4Player{p}

	var red api.V4Team
	red.TeamID = "Red"
	red.Won = o.won
	red.Rounds.Won = 13
	red.Rounds.Lost = 9
	m.Teams = []api.V4Team{red}

	for i := 0; i < o.kills && o.weapon != ""; i++ {
		var k api.V4Kill
		k.Killer.Puuid = puuid
		k.Weapon.Name = o.weapon
		m.Kills = append(m.Kills, k)
	}
	return m
}

func TestToValorantMatch(t *testing.T) {
	data := v4Match("p-1", matchOpts{id: "m-1", startedAt: start, kills: 4, headshots: 2, won: true, weapon: "Vandal"})
	var other api.V4Kill
	other.Killer.Puuid = "p-2"
	other.Weapon.Name = "Vandal"
	data.Kills = append(data.Kills, other)

	m, ok := ToValorantMatch("user_1", "p-1", data, start)
	require.True(t, ok)
	assert.Equal(t, "m-1", m.MatchID)
	assert.Equal(t, "Competitive", m.Mode)
	assert.True(t, m.Won)
	assert.Equal(t, 13, m.RoundsWon)
	assert.Equal(t, 22, m.RoundsPlayed)
	assert.Equal(t, map[string]int{"Vandal": 4}, m.WeaponKills)

	_, ok = ToValorantMatch("user_1", "p-9", data, start)
	assert.False(t, ok)
}

func TestRefreshRequiresRiotID(t *testing.T) {
	h := newHarness(t, nil)
	h.createUser(t, "user_1")

	_, err := h.progress.Refresh(context.Background(), "user_1")
	assert.True(t, apperr.IsCode(err, apperr.CodeRiotIDRequired))
}

func TestRefreshOnlyCountsMatchesAfterWatermark(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	u := h.linkedUser(t, "user_1", domain.TierStandard)
	puuid := u.RiotAccount.Puuid

	_, err := h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)

	h.valorant.matches = []api.V4MatchData{
		v4Match(puuid, matchOpts{id: "before", startedAt: start.Add(-time.Hour), kills: 30}),
		v4Match(puuid, matchOpts{id: "same", startedAt: start, kills: 30}),
		v4Match(puuid, matchOpts{id: "after", startedAt: start.Add(time.Hour), kills: 10}),
	}
	h.clock.advance(2 * time.Hour)

	res, err := h.progress.Refresh(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.MatchesFetched)
	assert.Equal(t, 3, res.NewMatches)
	assert.Equal(t, 1, res.UpdatedMissions)
	assert.Zero(t, res.CompletedMissions)

	list, err := h.missions.List(ctx, "user_1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10, list[0].Progress)
	assert.False(t, list[0].IsCompleted)
}

func TestRefreshCompletesAndIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	u := h.linkedUser(t, "user_1", domain.TierPremium)
	puuid := u.RiotAccount.Puuid

	for _, id := range []string{"kills-25", "wins-1", "weapon-vandal", "headshots-15"} {
		_, err := h.missions.Accept(ctx, "user_1", id)
		require.NoError(t, err)
	}

	h.valorant.matches = []api.V4MatchData{
		v4Match(puuid, matchOpts{id: "m-1", startedAt: start.Add(time.Hour), kills: 15, headshots: 6, won: false, weapon: "Vandal"}),
		v4Match(puuid, matchOpts{id: "m-2", startedAt: start.Add(2 * time.Hour), kills: 15, headshots: 6, won: true, weapon: "Phantom"}),
	}
	h.clock.advance(3 * time.Hour)

	res, err := h.progress.Refresh(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewMatches)
	assert.Equal(t, 4, res.UpdatedMissions)
	assert.Equal(t, 2, res.CompletedMissions)

	progress := map[string]domain.UserMissionWithMission{}
	list, err := h.missions.List(ctx, "user_1", false)
	require.NoError(t, err)
	for _, um := range list {
		progress[um.MissionID] = um
	}

	assert.Equal(t, 25, progress["kills-25"].Progress)
	assert.True(t, progress["kills-25"].IsCompleted)
	require.NotNil(t, progress["kills-25"].CompletedAt)
	assert.True(t, progress["kills-25"].CompletedAt.Equal(start.Add(3*time.Hour)))
	assert.Equal(t, 1, progress["wins-1"].Progress)
	assert.True(t, progress["wins-1"].IsCompleted)
	assert.Equal(t, 15, progress["weapon-vandal"].Progress)
	assert.Equal(t, 12, progress["headshots-15"].Progress)

	again, err := h.progress.Refresh(ctx, "user_1")
	require.NoError(t, err)
	assert.Zero(t, again.NewMatches)
	assert.Zero(t, again.UpdatedMissions)

	matches, err := h.progress.Matches(ctx, "user_1", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m-2", matches[0].MatchID)
}

func TestRefreshRetriesAfterFailedProgressWrite(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	u := h.linkedUser(t, "user_1", domain.TierStandard)

	_, err := h.missions.Accept(ctx, "user_1", "kills-25")
	require.NoError(t, err)

	h.valorant.matches = []api.V4MatchData{
		v4Match(u.RiotAccount.Puuid, matchOpts{id: "m-1", startedAt: start.Add(time.Hour), kills: 10}),
	}
	h.clock.advance(2 * time.Hour)

	_, err = h.db.ExecContext(ctx, `CREATE TRIGGER fail_progress BEFORE UPDATE OF progress ON user_missions
BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`)
	require.NoError(t, err)

	_, err = h.progress.Refresh(ctx, "user_1")
	require.Error(t, err)

	_, err = h.db.ExecContext(ctx, `DROP TRIGGER fail_progress`)
	require.NoError(t, err)

	res, err := h.progress.Refresh(ctx, "user_1")
	require.NoError(t, err)
	assert.Zero(t, res.NewMatches)
	assert.Equal(t, 1, res.UpdatedMissions)

	list, err := h.missions.List(ctx, "user_1", true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10, list[0].Progress)
	require.NotNil(t, list[0].LastMatchAt)
	assert.True(t, list[0].LastMatchAt.Equal(start.Add(time.Hour)))

	again, err := h.progress.Refresh(ctx, "user_1")
	require.NoError(t, err)
	assert.Zero(t, again.UpdatedMissions)

	list, err = h.missions.List(ctx, "user_1", true)
	require.NoError(t, err)
	assert.Equal(t, 10, list[0].Progress)
}

func TestRefreshRateLimited(t *testing.T) {
	h := newHarness(t, nil)
	h.linkedUser(t, "user_1", domain.TierFree)
	h.valorant.err = &api.RateLimitError{RetryAfter: 42}

	_, err := h.progress.Refresh(context.Background(), "user_1")
	require.Error(t, err)
	e := apperr.As(err)
	assert.Equal(t, apperr.CodeRateLimited, e.Code)
	assert.Equal(t, 42, e.RetryAfter)
	assert.Equal(t, 429, e.Status())
}
