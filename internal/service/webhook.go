package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"valorant-missions/internal/apperr"
	"valorant-missions/internal/clerk"
	"valorant-missions/internal/config"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/domain"
	"valorant-missions/internal/entitlement"
	"valorant-missions/internal/kofi"
	"valorant-missions/internal/repository"

	"github.com/rs/zerolog"
)

type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type WebhookService struct {
	users      *repository.UserRepository
	logs       *repository.WebhookLogRepository
	clerk      WebhookVerifier
	kofiSecret string
	clock      Clock
	logger     zerolog.Logger
}

func NewWebhookService(users *repository.UserRepository, logs *repository.WebhookLogRepository, clerkVerifier WebhookVerifier, cfg *config.Config, clock Clock, logger zerolog.Logger) *WebhookService {
	return &WebhookService{
		users:      users,
		logs:       logs,
		clerk:      clerkVerifier,
		kofiSecret: cfg.KofiWebhookSecret,
		clock:      clock,
		logger:     logger,
	}
}

type WebhookResult struct {
	Outcome domain.WebhookOutcome `json:"outcome"`
	Event   string                `json:"event"`
	UserID  string                `json:"userId,omitempty"`
	Message string                `json:"message,omitempty"`
}

// HandleKofi processes one signed Ko-fi delivery. Nothing is written unless the
// signature matches, and redelivery of an already applied event changes nothing.
func (s *WebhookService) HandleKofi(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if !kofi.VerifySignature(body, signature, s.kofiSecret) {
		s.logger.Warn().Msg("ko-fi webhook rejected: invalid signature")
		return nil, apperr.New(apperr.CodeInvalidSignature, "Invalid signature")
	}

	ev, err := kofi.Parse(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "Invalid JSON payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	result, err := s.applyKofi(ctx, ev)
	s.audit(ctx, domain.ProviderKofi, ev.Type, ev.Data.SubscriptionID, body, result, err)
	return result, err
}

func (s *WebhookService) applyKofi(ctx context.Context, ev *kofi.Event) (*WebhookResult, error) {
	log := s.logger.With().Str("event", ev.Type).Str("subscription_id", ev.Data.SubscriptionID).Logger()
	result := &WebhookResult{Event: ev.Type}

	switch ev.Type {
	case kofi.EventSubscriptionCreated, kofi.EventSubscriptionUpdated,
		kofi.EventSubscriptionCancelled, kofi.EventSubscriptionPaymentFailed,
		kofi.EventSubscriptionPaymentSucceeded:
	default:
		log.Warn().Msg("ignoring unknown ko-fi event")
		result.Outcome = domain.WebhookIgnored
		result.Message = "unknown event type"
		return result, nil
	}

	var tier domain.Tier
	if ev.Type == kofi.EventSubscriptionCreated || ev.Type == kofi.EventSubscriptionUpdated {
		t, err := entitlement.TierFromKofi(ev.Data.Tier)
		if err != nil {
			return nil, apperr.Newf(apperr.CodeInvalidTier, "Unknown Ko-fi tier: %q", ev.Data.Tier)
		}
		tier = t
	}

	now := s.clock()
	u, isNew, err := s.resolveKofiUser(ctx, ev.Data, now)
	if err != nil {
		return nil, err
	}
	result.UserID = u.ID
	entitlement.EnsureInitialized(u, now)

	var changed bool
	switch ev.Type {
	case kofi.EventSubscriptionCreated, kofi.EventSubscriptionUpdated:
		if parseStatus(ev.Data.Status) == domain.StatusCancelled {
			changed = entitlement.CancelSubscription(u, now)
			break
		}
		changed = entitlement.ApplyTierChange(u, entitlement.TierChange{
			Provider:       domain.ProviderKofi,
			SubscriptionID: ev.Data.SubscriptionID,
			ProviderTierID: ev.Data.Tier,
			Tier:           tier,
			Status:         parseStatus(ev.Data.Status),
			PeriodEnd:      ev.Data.NextPaymentDate.Time,
		}, now)
	case kofi.EventSubscriptionCancelled:
		changed = entitlement.CancelSubscription(u, now)
	case kofi.EventSubscriptionPaymentFailed:
		changed = entitlement.MarkPaymentFailed(u)
	case kofi.EventSubscriptionPaymentSucceeded:
		changed = entitlement.MarkPaymentSucceeded(u, ev.Data.NextPaymentDate.Time, now)
	}

	if err := s.saveKofiUser(ctx, u, isNew); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to save ko-fi subscription")
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	log.Info().
		Str("user_id", u.ID).
		Str("tier", string(u.Subscription.Tier)).
		Str("status", string(u.Subscription.Status)).
		Bool("changed", changed).
		Msg("ko-fi event applied")

	result.Outcome = domain.WebhookProcessed
	return result, nil
}

// resolveKofiUser finds the subscriber by user id, then subscription id, then
// email. An unknown user id yields a new unsaved user with free defaults.
func (s *WebhookService) resolveKofiUser(ctx context.Context, data kofi.Subscription, now time.Time) (*domain.User, bool, error) {
	if data.UserID != "" {
		u, err := s.users.Get(ctx, data.UserID)
		if err == nil {
			return u, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
		return entitlement.NewUser(data.UserID, data.Email, "", now), true, nil
	}

	if data.SubscriptionID != "" {
		u, err := s.users.GetBySubscription(ctx, domain.ProviderKofi, data.SubscriptionID)
		if err == nil {
			return u, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	if data.Email != "" {
		u, err := s.users.GetByEmail(ctx, data.Email)
		if err == nil {
			return u, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	return nil, false, apperr.New(apperr.CodeNotFound, "User not found")
}

func (s *WebhookService) saveKofiUser(ctx context.Context, u *domain.User, isNew bool) error {
	if isNew {
		created, err := s.users.CreateWithEntitlements(ctx, u)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info().Str("user_id", u.ID).Msg("user created from ko-fi event")
			return nil
		}
	}
	return s.users.SaveEntitlements(ctx, u)
}

func parseStatus(status string) domain.SubscriptionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "cancelled", "canceled":
		return domain.StatusCancelled
	case "inactive", "paused", "past_due", "expired":
		return domain.StatusInactive
	}
	return domain.StatusActive
}

// HandleClerk processes one svix-signed Clerk delivery.
func (s *WebhookService) HandleClerk(ctx context.Context, body []byte, headers http.Header) (*WebhookResult, error) {
	if err := s.clerk.Verify(body, headers); err != nil {
		s.logger.Warn().Err(err).Msg("clerk webhook rejected: invalid signature")
		return nil, apperr.Wrap(apperr.CodeInvalidSignature, "Invalid signature", err)
	}

	var ev clerk.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "Invalid JSON payload", err)
	}
	var data clerk.UserData
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return nil, apperr.Wrap(apperr.CodeValidation, "Invalid JSON payload", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	result, err := s.applyClerk(ctx, ev.Type, data)
	var subID string
	if data.PublicMetadata.Subscription != nil {
		subID = data.PublicMetadata.Subscription.SubscriptionID
	}
	s.audit(ctx, domain.ProviderClerk, ev.Type, subID, body, result, err)
	return result, err
}

func (s *WebhookService) applyClerk(ctx context.Context, eventType string, data clerk.UserData) (*WebhookResult, error) {
	log := s.logger.With().Str("event", eventType).Str("user_id", data.ID).Logger()
	result := &WebhookResult{Event: eventType, UserID: data.ID, Outcome: domain.WebhookProcessed}

	switch eventType {
	case clerk.EventUserCreated, clerk.EventUserUpdated, clerk.EventUserDeleted:
	default:
		log.Warn().Msg("ignoring unknown clerk event")
		result.Outcome = domain.WebhookIgnored
		result.Message = "unknown event type"
		return result, nil
	}
	if data.ID == "" {
		return nil, apperr.New(apperr.CodeValidation, "Event has no user id")
	}

	now := s.clock()
	switch eventType {
	case clerk.EventUserCreated:
		u := entitlement.NewUser(data.ID, data.PrimaryEmail(), data.DisplayName(), now)
		created, err := s.users.Create(ctx, u)
		if err != nil {
			return nil, err
		}
		if !created {
			result.Message = "user already exists"
		}
		log.Info().Bool("created", created).Msg("clerk user created")

	case clerk.EventUserUpdated:
		sub := data.PublicMetadata.Subscription
		var tier domain.Tier
		if sub != nil {
			t, err := entitlement.TierFromClerkPlan(sub.PlanID)
			if err != nil {
				return nil, apperr.Newf(apperr.CodeInvalidTier, "Unknown Clerk plan: %q", sub.PlanID)
			}
			tier = t
		}

		email, username := data.PrimaryEmail(), data.DisplayName()
		u, err := s.users.Get(ctx, data.ID)
		isNew := errors.Is(err, repository.ErrNotFound)
		if isNew {
			u = entitlement.NewUser(data.ID, email, username, now)
		} else if err != nil {
			return nil, err
		}

		entitlement.EnsureInitialized(u, now)
		if sub != nil {
			applyClerkSubscription(u, sub, tier, now)
		}

		if isNew {
			created, err := s.users.CreateWithEntitlements(ctx, u)
			if err != nil {
				return nil, err
			}
			isNew = created
		}
		if !isNew {
			if email != u.Email || username != u.Username {
				if err := s.users.UpdateProfile(ctx, u.ID, email, username); err != nil {
					return nil, err
				}
			}
			if err := s.users.SaveEntitlements(ctx, u); err != nil {
				return nil, fmt.Errorf("failed to save subscription: %w", err)
			}
		}
		log.Info().Str("tier", string(u.Subscription.Tier)).Msg("clerk user updated")

	case clerk.EventUserDeleted:
		deleted, err := s.users.Delete(ctx, data.ID)
		if err != nil {
			return nil, err
		}
		if !deleted {
			result.Outcome = domain.WebhookIgnored
			result.Message = "user not found"
		}
		log.Info().Bool("deleted", deleted).Msg("clerk user deleted")
	}

	return result, nil
}

func applyClerkSubscription(u *domain.User, sub *clerk.MetadataSubscription, tier domain.Tier, now time.Time) {
	switch parseStatus(sub.Status) {
	case domain.StatusCancelled:
		entitlement.CancelSubscription(u, now)
	case domain.StatusInactive:
		entitlement.MarkPaymentFailed(u)
	default:
		entitlement.ApplyTierChange(u, entitlement.TierChange{
			Provider:       domain.ProviderClerk,
			SubscriptionID: sub.SubscriptionID,
			ProviderTierID: sub.PlanID,
			Tier:           tier,
			Status:         domain.StatusActive,
			PeriodEnd:      sub.CurrentPeriodEnd.Time,
		}, now)
	}
}

// audit records the delivery. Failures are logged and never reach the sender.
func (s *WebhookService) audit(ctx context.Context, provider domain.BillingProvider, eventType, subscriptionID string, body []byte, result *WebhookResult, handleErr error) {
	entry := &domain.WebhookLog{
		Provider:       provider,
		EventType:      eventType,
		SubscriptionID: subscriptionID,
		Payload:        string(body),
		CreatedAt:      s.clock(),
	}
	switch {
	case handleErr != nil:
		entry.Outcome = domain.WebhookFailed
		entry.Message = handleErr.Error()
	case result != nil:
		entry.Outcome = result.Outcome
		entry.Message = result.Message
		entry.UserID = result.UserID
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("provider", string(provider)).Str("event", eventType).Msg("failed to write webhook audit log")
	}
}
