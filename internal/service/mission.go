package service

import (
	"context"
	"errors"
	"time"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

type MissionService struct {
	users        *UserService
	missions     *repository.MissionRepository
	userMissions *repository.UserMissionRepository
	clock        Clock
	logger       zerolog.Logger
}

func NewMissionService(users *UserService, missions *repository.MissionRepository, userMissions *repository.UserMissionRepository, clock Clock, logger zerolog.Logger) *MissionService {
	return &MissionService{
		users:        users,
		missions:     missions,
		userMissions: userMissions,
		clock:        clock,
		logger:       logger,
	}
}

func (s *MissionService) Catalog(ctx context.Context) ([]domain.Mission, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.missions.ListActive(ctx)
}

func (s *MissionService) List(ctx context.Context, userID string, activeOnly bool) ([]domain.UserMissionWithMission, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	list, err := s.userMissions.List(ctx, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.UserMissionWithMission{}
	}
	return list, nil
}

// Accept starts missionID for the user. Rejections are ordered so the client can
// tell an upgrade prompt ("Mission limit reached") from a wait prompt ("Daily
// mission limit reached").
func (s *MissionService) Accept(ctx context.Context, userID, missionID string) (*domain.UserMissionWithMission, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	log := s.logger.With().Str("user_id", userID).Str("mission_id", missionID).Logger()

	if u.RiotAccount == nil {
		return nil, apperr.New(apperr.CodeRiotIDRequired, "Link your Riot ID before accepting missions")
	}

	mission, err := s.missions.Get(ctx, missionID)
	if err != nil {
		return nil, mapRepoError(err, "Mission not found")
	}
	if !mission.IsActive {
		return nil, apperr.New(apperr.CodeNotFound, "Mission not found")
	}

	if _, err := s.userMissions.GetActive(ctx, userID, missionID); err == nil {
		return nil, apperr.New(apperr.CodeMissionAlreadyActive, "Mission already active")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	active, err := s.userMissions.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	if active >= u.MissionLimits.MaxActiveMissions {
		log.Info().Int("active", active).Int("max", u.MissionLimits.MaxActiveMissions).Msg("mission limit reached")
		return nil, apperr.Newf(apperr.CodeMissionLimitReached,
			"Mission limit reached. Your %s plan allows %d active missions. Upgrade to accept more.",
			entitlement.Lookup(entitlement.SubscriptionTier(u)).Name, u.MissionLimits.MaxActiveMissions)
	}
	if u.MissionLimits.AvailableSlots <= 0 {
		return nil, dailyLimitError(u, now)
	}

	um := &domain.UserMission{
		UserID:      userID,
		MissionID:   missionID,
		StartedAt:   now,
		AcceptedAt:  now,
		LastUpdated: now,
	}
	if err := s.userMissions.Accept(ctx, um); err != nil {
		if errors.Is(err, repository.ErrNoSlots) {
			return nil, dailyLimitError(u, now)
		}
		return nil, mapRepoError(err, "Mission not found")
	}

	log.Info().Str("user_mission_id", um.ID).Int("slots_left", u.MissionLimits.AvailableSlots-1).Msg("mission accepted")
	return &domain.UserMissionWithMission{UserMission: *um, Mission: *mission}, nil
}

func dailyLimitError(u *domain.User, now time.Time) error {
	return apperr.Newf(apperr.CodeDailyLimitReached,
		"Daily mission limit reached. New slots available in %d hours.",
		entitlement.HoursUntilSlotRefresh(u, now))
}
