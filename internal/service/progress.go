package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"valorant-missions/internal/api"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

// ValorantAPI is the part of the henrikdev client the services use.
type ValorantAPI interface {
	GetAccount(ctx context.Context, name, tag string) (*api.AccountResponse, error)
	GetV4Matches(ctx context.Context, region, puuid string) (*api.V4MatchesResponse, error)
}

type ProgressService struct {
	users        *UserService
	missions     *repository.MissionRepository
	userMissions *repository.UserMissionRepository
	matches      *repository.MatchRepository
	valorant     ValorantAPI
	clock        Clock
	logger       zerolog.Logger
}

func NewProgressService(users *UserService, missions *repository.MissionRepository, userMissions *repository.UserMissionRepository, matches *repository.MatchRepository, valorant ValorantAPI, clock Clock, logger zerolog.Logger) *ProgressService {
	return &ProgressService{
		users:        users,
		missions:     missions,
		userMissions: userMissions,
		matches:      matches,
		valorant:     valorant,
		clock:        clock,
		logger:       logger,
	}
}

type RefreshResult struct {
	MatchesFetched    int                             `json:"matchesFetched"`
	NewMatches        int                             `json:"newMatches"`
	UpdatedMissions   int                             `json:"updatedMissions"`
	CompletedMissions int                             `json:"completedMissions"`
	Missions          []domain.UserMissionWithMission `json:"missions"`
}

// Refresh pulls the user's recent matches, stores the unseen ones and applies
// every match past a mission's watermark to each mission still in progress. A
// match stored by an earlier refresh whose progress write failed is applied again.
func (s *ProgressService) Refresh(ctx context.Context, userID string) (*RefreshResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.RiotAccount == nil {
		return nil, apperr.New(apperr.CodeRiotIDRequired, "Link your Riot ID to track progress")
	}
	log := s.logger.With().Str("user_id", userID).Str("puuid", u.RiotAccount.Puuid).Logger()

	apiCtx, apiCancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer apiCancel()

	resp, err := s.valorant.GetV4Matches(apiCtx, u.RiotAccount.Region, u.RiotAccount.Puuid)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch matches")
		return nil, mapUpstreamError(err, "No matches found for this Riot ID")
	}

	now := s.clock()
	result := &RefreshResult{MatchesFetched: len(resp.Data)}

	var fetched []domain.ValorantMatch
	for _, data := range resp.Data {
		match, ok := ToValorantMatch(userID, u.RiotAccount.Puuid, data, now)
		if !ok {
			continue
		}
		inserted, err := s.matches.Insert(ctx, &match)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.NewMatches++
		}
		fetched = append(fetched, match)
	}
	sort.Slice(fetched, func(i, j int) bool { return fetched[i].StartedAt.Before(fetched[j].StartedAt) })

	active, err := s.userMissions.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	for i := range active {
		um := &active[i].UserMission
		changed := false
		for _, match := range fetched {
			if entitlement.ApplyMatch(um, active[i].Mission, match, now) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		updated, err := s.userMissions.UpdateProgress(ctx, um)
		if err != nil {
			return nil, err
		}
		if !updated {
			continue
		}
		result.UpdatedMissions++
		if um.IsCompleted {
			result.CompletedMissions++
			log.Info().Str("mission_id", um.MissionID).Int("progress", um.Progress).Msg("mission completed")
		}
	}

	result.Missions = active
	if result.Missions == nil {
		result.Missions = []domain.UserMissionWithMission{}
	}

	log.Info().
		Int("fetched", result.MatchesFetched).
		Int("new", result.NewMatches).
		Int("updated", result.UpdatedMissions).
		Int("completed", result.CompletedMissions).
		Msg("progress refreshed")
	return result, nil
}

func (s *ProgressService) Matches(ctx context.Context, userID string, limit int) ([]domain.ValorantMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.DBBatchSize {
		limit = constants.DBBatchSize
	}
	list, err := s.matches.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if list == nil {
		list = []domain.ValorantMatch{}
	}
	return list, nil
}

// ToValorantMatch extracts puuid's stats from a v4 match. ok is false when the
// player is not part of the match.
func ToValorantMatch(userID, puuid string, data api.V4MatchData, now time.Time) (domain.ValorantMatch, bool) {
	var player *api.V4Player
	for i := range data.Players {
		if data.Players[i].Puuid == puuid {
			player = &data.Players[i]
			break
		}
	}
	if player == nil || data.Metadata.MatchID == "" {
		return domain.ValorantMatch{}, false
	}

	match := domain.ValorantMatch{
		UserID:       userID,
		MatchID:      data.Metadata.MatchID,
		Map:          data.Metadata.Map.Name,
		Mode:         data.Metadata.Queue.Name,
		Queue:        data.Metadata.Queue.ID,
		StartedAt:    data.Metadata.StartedAt.UTC(),
		Kills:        player.Stats.Kills,
		Deaths:       player.Stats.Deaths,
		Assists:      player.Stats.Assists,
		Headshots:    player.Stats.Headshots,
		Score:        player.Stats.Score,
		Agent:        player.Agent.Name,
		RoundsPlayed: len(data.Rounds),
		WeaponKills:  map[string]int{},
		CreatedAt:    now,
	}

	for _, team := range data.Teams {
		if strings.EqualFold(team.TeamID, player.TeamID) {
			match.Won = team.Won
			match.RoundsWon = team.Rounds.Won
			if match.RoundsPlayed == 0 {
				match.RoundsPlayed = team.Rounds.Won + team.Rounds.Lost
			}
		}
	}

	for _, k := range data.Kills {
		if k.Killer.Puuid == puuid && k.Weapon.Name != "" {
			match.WeaponKills[k.Weapon.Name]++
		}
	}

	return match, true
}
