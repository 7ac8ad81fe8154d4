package service

import (
	"context"
	"errors"
	"fmt"
	"valorant-missions/internal/api"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/config"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

type KofiAPI interface {
	Enabled() bool
	CheckoutURL(tierName, userID string) string
	FindSubscriptions(ctx context.Context, email string) (*api.KofiSubscriptionsResponse, error)
}

type SubscriptionService struct {
	users         *UserService
	userRepo      *repository.UserRepository
	kofi          KofiAPI
	manualUpgrade bool
	clock         Clock
	logger        zerolog.Logger
}

func NewSubscriptionService(users *UserService, userRepo *repository.UserRepository, kofi KofiAPI, cfg *config.Config, clock Clock, logger zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		users:         users,
		userRepo:      userRepo,
		kofi:          kofi,
		manualUpgrade: cfg.AllowManualUpgrades,
		clock:         clock,
		logger:        logger,
	}
}

type SubscriptionOverview struct {
	Tiers             []entitlement.TierInfo `json:"tiers"`
	CurrentTier       entitlement.TierInfo   `json:"currentTier"`
	Subscription      domain.Subscription    `json:"subscription"`
	MissionLimits     domain.MissionLimits   `json:"missionLimits"`
	HoursUntilRefresh int                    `json:"hoursUntilRefresh"`
}

type CheckoutLink struct {
	Tier  domain.Tier `json:"tier"`
	Name  string      `json:"name"`
	Price float64     `json:"price"`
	URL   string      `json:"url"`
}

func (s *SubscriptionService) Overview(ctx context.Context, userID string) (*SubscriptionOverview, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.overview(u), nil
}

func (s *SubscriptionService) overview(u *domain.User) *SubscriptionOverview {
	return &SubscriptionOverview{
		Tiers:             entitlement.Tiers(),
		CurrentTier:       entitlement.Lookup(entitlement.SubscriptionTier(u)),
		Subscription:      u.Subscription,
		MissionLimits:     u.MissionLimits,
		HoursUntilRefresh: entitlement.HoursUntilSlotRefresh(u, s.clock()),
	}
}

// ChangeTier applies a tier picked through the API. Paid tiers are only granted
// this way when manual upgrades are enabled.
func (s *SubscriptionService) ChangeTier(ctx context.Context, userID, tierName string) (*SubscriptionOverview, error) {
	tier, err := entitlement.ParseTier(tierName)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeInvalidTier, "Invalid subscription tier: %q", tierName)
	}
	if tier != domain.TierFree && !s.manualUpgrade {
		return nil, apperr.New(apperr.CodeInvalidTier, "Paid tiers are purchased through Ko-fi")
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	changed := entitlement.ApplyTierChange(u, entitlement.TierChange{
		Provider: domain.ProviderManual,
		Tier:     tier,
		Status:   domain.StatusActive,
	}, now)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Str("tier", string(tier)).Bool("changed", changed).Msg("manual tier change")
	return s.overview(u), nil
}

func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*SubscriptionOverview, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entitlement.CancelSubscription(u, s.clock()) {
		if err := s.save(ctx, u); err != nil {
			return nil, err
		}
		s.logger.Info().Str("user_id", userID).Msg("subscription cancelled")
	}
	return s.overview(u), nil
}

func (s *SubscriptionService) CheckoutLinks(userID string) []CheckoutLink {
	var links []CheckoutLink
	for _, t := range entitlement.Tiers() {
		if t.KofiTierName == "" {
			continue
		}
		links = append(links, CheckoutLink{
			Tier:  t.Key,
			Name:  t.Name,
			Price: t.Price,
			URL:   s.kofi.CheckoutURL(t.KofiTierName, userID),
		})
	}
	return links
}

func (s *SubscriptionService) Checkout(userID, tierName string) (*CheckoutLink, error) {
	tier, err := entitlement.ParseTier(tierName)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeInvalidTier, "Invalid subscription tier: %q", tierName)
	}
	info := entitlement.Lookup(tier)
	if info.KofiTierName == "" {
		return nil, apperr.Newf(apperr.CodeInvalidTier, "The %s tier has no checkout", info.Name)
	}
	return &CheckoutLink{
		Tier:  info.Key,
		Name:  info.Name,
		Price: info.Price,
		URL:   s.kofi.CheckoutURL(info.KofiTierName, userID),
	}, nil
}

// SyncKofi asks Ko-fi for the user's membership and applies it, for when a
// webhook was missed.
func (s *SubscriptionService) SyncKofi(ctx context.Context, userID string) (*SubscriptionOverview, error) {
	if !s.kofi.Enabled() {
		return nil, apperr.New(apperr.CodeUpstream, "Ko-fi sync is not configured")
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, apperr.New(apperr.CodeValidation, "An email address is required to look up Ko-fi subscriptions")
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.kofi.FindSubscriptions(apiCtx, u.Email)
	if err != nil {
		if errors.Is(err, api.ErrKofiDisabled) {
			return nil, apperr.New(apperr.CodeUpstream, "Ko-fi sync is not configured")
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch ko-fi subscriptions")
		return nil, apperr.Wrap(apperr.CodeUpstream, "Ko-fi request failed", err)
	}

	now := s.clock()
	changed := false
	var found *api.KofiSubscription
	for i := range resp.Data {
		sub := resp.Data[i]
		if !sub.Active() {
			continue
		}
		if _, err := entitlement.TierFromKofi(sub.TierName); err != nil {
			s.logger.Warn().Str("tier", sub.TierName).Str("subscription_id", sub.ID).Msg("ignoring ko-fi subscription with unknown tier")
			continue
		}
		found = &sub
		break
	}

	switch {
	case found != nil:
		tier, _ := entitlement.TierFromKofi(found.TierName)
		changed = entitlement.ApplyTierChange(u, entitlement.TierChange{
			Provider:       domain.ProviderKofi,
			SubscriptionID: found.ID,
			ProviderTierID: found.TierName,
			Tier:           tier,
			Status:         domain.StatusActive,
			PeriodStart:    found.StartedAt,
			PeriodEnd:      found.NextPaymentDate,
		}, now)
	case u.Subscription.Provider == domain.ProviderKofi:
		changed = entitlement.CancelSubscription(u, now)
	}

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Bool("found", found != nil).Bool("changed", changed).Msg("ko-fi subscription synced")
	return s.overview(u), nil
}

func (s *SubscriptionService) save(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	if err := s.userRepo.SaveEntitlements(ctx, u); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}
