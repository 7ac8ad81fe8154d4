package service

import (
	"context"
	"valorant-missions/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	users    *UserService
	missions *MissionService
	daily    *DailyMissionService
	progress *ProgressService
	logger   zerolog.Logger
}

func NewDashboardService(users *UserService, missions *MissionService, daily *DailyMissionService, progress *ProgressService, logger zerolog.Logger) *DashboardService {
	return &DashboardService{
		users:    users,
		missions: missions,
		daily:    daily,
		progress: progress,
		logger:   logger,
	}
}

type Dashboard struct {
	User          *domain.User                    `json:"user"`
	Missions      []domain.UserMissionWithMission `json:"missions"`
	DailyMissions *DailyMissions                  `json:"dailyMissions"`
	RecentMatches []domain.ValorantMatch          `json:"recentMatches"`
}

const dashboardMatchLimit = 10

// Get loads everything the home screen shows. The user is ensured first so the
// concurrent reads all see an initialised record.
func (s *DashboardService) Get(ctx context.Context, userID, email, username string) (*Dashboard, error) {
	u, err := s.users.Ensure(ctx, userID, email, username)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{User: u}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.Missions, err = s.missions.List(gCtx, userID, false)
		return err
	})
	g.Go(func() error {
		var err error
		d.DailyMissions, err = s.daily.Get(gCtx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentMatches, err = s.progress.Matches(gCtx, userID, dashboardMatchLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load dashboard")
		return nil, err
	}
	return d, nil
}
