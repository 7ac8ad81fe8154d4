package service

import (
	"context"
	"fmt"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

type DailyMissionService struct {
	users        *UserService
	userRepo     *repository.UserRepository
	missions     *repository.MissionRepository
	userMissions *repository.UserMissionRepository
	clock        Clock
	logger       zerolog.Logger
}

func NewDailyMissionService(users *UserService, userRepo *repository.UserRepository, missions *repository.MissionRepository, userMissions *repository.UserMissionRepository, clock Clock, logger zerolog.Logger) *DailyMissionService {
	return &DailyMissionService{
		users:        users,
		userRepo:     userRepo,
		missions:     missions,
		userMissions: userMissions,
		clock:        clock,
		logger:       logger,
	}
}

type DailyMissions struct {
	Missions          []domain.Mission     `json:"missions"`
	Tier              domain.Tier          `json:"tier"`
	DailyMissionCount int                  `json:"dailyMissionCount"`
	ActiveMissions    int                  `json:"activeMissions"`
	MissionLimits     domain.MissionLimits `json:"missionLimits"`
	HoursUntilRefresh int                  `json:"hoursUntilRefresh"`
	LastRefresh       domain.Timestamp     `json:"lastRefresh"`
	NextRefresh       domain.Timestamp     `json:"nextRefresh"`
}

// Get returns today's offer for the user, regenerating it once the daily window
// has elapsed.
func (s *DailyMissionService) Get(ctx context.Context, userID string) (*DailyMissions, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	catalog, err := s.missions.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	tier := entitlement.SubscriptionTier(u)
	count := entitlement.DailyMissionCount(tier)

	if entitlement.ShouldRefreshDailyMissions(u, now) {
		u.DailyMissions = domain.DailyMissions{
			SelectedMissionIDs: entitlement.GenerateDailyMissionSelection(catalog, u.ID, count, now),
			LastRefresh:        domain.NewTimestamp(now),
			NextRefresh:        domain.NewTimestamp(now.Add(constants.DailyRefreshWindow)),
		}
		if err := s.userRepo.SaveDailyMissions(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to save daily missions: %w", err)
		}
		s.logger.Info().
			Str("user_id", u.ID).
			Strs("mission_ids", u.DailyMissions.SelectedMissionIDs).
			Msg("daily missions refreshed")
	}

	active, err := s.userMissions.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Mission, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}
	selected := make([]domain.Mission, 0, len(u.DailyMissions.SelectedMissionIDs))
	for _, id := range u.DailyMissions.SelectedMissionIDs {
		// retired catalog entries drop out until the next refresh
		if m, ok := byID[id]; ok {
			selected = append(selected, m)
		}
	}

	return &DailyMissions{
		Missions:          selected,
		Tier:              tier,
		DailyMissionCount: count,
		ActiveMissions:    active,
		MissionLimits:     u.MissionLimits,
		HoursUntilRefresh: entitlement.HoursUntilSlotRefresh(u, now),
		LastRefresh:       u.DailyMissions.LastRefresh,
		NextRefresh:       u.DailyMissions.NextRefresh,
	}, nil
}
