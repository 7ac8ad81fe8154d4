package service

import (
	"context"
	"strings"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/cache"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

type RiotService struct {
	users    *UserService
	userRepo *repository.UserRepository
	valorant ValorantAPI
	cache    cache.Cache
	clock    Clock
	logger   zerolog.Logger
}

func NewRiotService(users *UserService, userRepo *repository.UserRepository, valorant ValorantAPI, c cache.Cache, clock Clock, logger zerolog.Logger) *RiotService {
	return &RiotService{
		users:    users,
		userRepo: userRepo,
		valorant: valorant,
		cache:    c,
		clock:    clock,
		logger:   logger,
	}
}

// Verify resolves name#tag to a Valorant account, serving repeat lookups from cache.
func (s *RiotService) Verify(ctx context.Context, name, tag string) (*domain.RiotAccount, error) {
	name = strings.TrimSpace(name)
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	if name == "" || tag == "" {
		return nil, apperr.New(apperr.CodeValidation, "Riot ID name and tag are required")
	}

	key := cache.AccountKey(name, tag)
	var cached domain.RiotAccount
	found, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("account cache read failed")
	}
	if found {
		return &cached, nil
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.valorant.GetAccount(apiCtx, name, tag)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Str("tag", tag).Msg("failed to fetch account")
		return nil, mapUpstreamError(err, "Riot ID not found")
	}
	if resp.Data.Puuid == "" {
		return nil, apperr.New(apperr.CodeNotFound, "Riot ID not found")
	}

	acct := &domain.RiotAccount{
		Puuid:        resp.Data.Puuid,
		Region:       resp.Data.Region,
		Name:         resp.Data.Name,
		Tag:          resp.Data.Tag,
		AccountLevel: resp.Data.AccountLevel,
		Card: domain.CardAssets{
			ID:    resp.Data.Card.ID,
			Small: resp.Data.Card.Small,
			Large: resp.Data.Card.Large,
			Wide:  resp.Data.Card.Wide,
		},
	}

	if err := s.cache.SetJSON(ctx, key, acct, constants.AccountCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("account cache write failed")
	}
	return acct, nil
}

// Link attaches the verified account to the user. A Riot ID can belong to one
// user only and a linked user cannot switch accounts.
func (s *RiotService) Link(ctx context.Context, userID, name, tag string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.RiotAccount != nil {
		return nil, apperr.New(apperr.CodeConflict, "Riot ID already linked")
	}

	acct, err := s.Verify(ctx, name, tag)
	if err != nil {
		return nil, err
	}
	acct.LinkedAt = s.clock()

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.userRepo.LinkRiotAccount(dbCtx, userID, *acct); err != nil {
		return nil, mapRepoError(err, "User not found")
	}

	s.logger.Info().Str("user_id", userID).Str("puuid", acct.Puuid).Msg("riot account linked")
	u.RiotAccount = acct
	return u, nil
}
