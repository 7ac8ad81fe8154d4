package service

import (
	"context"
	"errors"
	"fmt"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

type UserService struct {
	users  *repository.UserRepository
	clock  Clock
	logger zerolog.Logger
}

func NewUserService(users *repository.UserRepository, clock Clock, logger zerolog.Logger) *UserService {
	return &UserService{users: users, clock: clock, logger: logger}
}

// Ensure returns the user, creating it with free defaults on first sight. Records
// from before mission limits existed are initialised and saved.
func (s *UserService) Ensure(ctx context.Context, id, email, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	u, err := s.users.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		u = entitlement.NewUser(id, email, username, s.clock())
		created, err := s.users.Create(ctx, u)
		if err != nil {
			return nil, err
		}
		if created {
			s.logger.Info().Str("user_id", id).Msg("user created")
			return u, nil
		}
		// lost a race with another request creating the same user
		u, err = s.users.Get(ctx, id)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.sync(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get loads an existing user and brings its mission limits up to date.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "User not found")
	}
	if err := s.sync(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id, email, username string) (*domain.User, error) {
	u, err := s.Ensure(ctx, id, email, username)
	if err != nil {
		return nil, err
	}
	if u.Email == email && u.Username == username {
		return u, nil
	}

	if err := s.users.UpdateProfile(ctx, id, email, username); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	u.Email = email
	u.Username = username
	s.logger.Debug().Str("user_id", id).Msg("profile updated")
	return u, nil
}

func (s *UserService) sync(ctx context.Context, u *domain.User) error {
	if !entitlement.SyncMissionLimits(u, s.clock()) {
		return nil
	}
	if err := s.users.SaveEntitlements(ctx, u); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID).Msg("failed to save refreshed mission limits")
		return fmt.Errorf("failed to save mission limits: %w", err)
	}
	s.logger.Debug().
		Str("user_id", u.ID).
		Int("available_slots", u.MissionLimits.AvailableSlots).
		Int("max_active_missions", u.MissionLimits.MaxActiveMissions).
		Msg("mission limits synced")
	return nil
}
