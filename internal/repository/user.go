package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"valorant-missions/internal/db"
	"valorant-missions/internal/domain"

	"github.com/rs/zerolog"
)

type UserRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewUserRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *UserRepository {
	return &UserRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return r.toDomainUser(row), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err)
	}
	return r.toDomainUser(row), nil
}

func (r *UserRepository) GetByPuuid(ctx context.Context, puuid string) (*domain.User, error) {
	row, err := r.queries.GetUserByPuuid(ctx, puuid)
	if err != nil {
		return nil, notFound(err)
	}
	return r.toDomainUser(row), nil
}

func (r *UserRepository) GetBySubscription(ctx context.Context, provider domain.BillingProvider, subscriptionID string) (*domain.User, error) {
	row, err := r.queries.GetUserBySubscription(ctx, db.GetUserBySubscriptionParams{
		SubProvider:               string(provider),
		SubProviderSubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return r.toDomainUser(row), nil
}

// Create inserts u unless a user with the same id exists. It reports whether a row
// was written.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (bool, error) {
	n, err := r.queries.InsertUser(ctx, insertUserParams(u))
	if err != nil {
		return false, fmt.Errorf("failed to insert user %s: %w", u.ID, err)
	}
	return n > 0, nil
}

func insertUserParams(u *domain.User) db.InsertUserParams {
	return db.InsertUserParams{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		SubTier:           string(u.Subscription.Tier),
		SubStatus:         string(u.Subscription.Status),
		SubProvider:       string(u.Subscription.Provider),
		MaxActiveMissions: nullInt(u.MissionLimits.MaxActiveMissions, u.MissionLimits.Initialized),
		AvailableSlots:    nullInt(u.MissionLimits.AvailableSlots, u.MissionLimits.Initialized),
		LimitsLastRefresh: u.MissionLimits.LastRefresh,
		LimitsNextRefresh: u.MissionLimits.NextRefresh,
		CreatedAt:         u.CreatedAt.UTC(),
		UpdatedAt:         u.UpdatedAt.UTC(),
	}
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, email, username string) error {
	return r.queries.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
		Email:     email,
		Username:  username,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
}

// SaveEntitlements persists the subscription and mission limit fields of u.
func (r *UserRepository) SaveEntitlements(ctx context.Context, u *domain.User) error {
	return saveEntitlements(ctx, r.queries, u)
}

// CreateWithEntitlements inserts u together with its subscription fields in one
// transaction. It reports false without writing when the id already exists.
func (r *UserRepository) CreateWithEntitlements(ctx context.Context, u *domain.User) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	n, err := qtx.InsertUser(ctx, insertUserParams(u))
	if err != nil {
		return false, fmt.Errorf("failed to insert user %s: %w", u.ID, err)
	}
	if n == 0 {
		return false, nil
	}
	if err := saveEntitlements(ctx, qtx, u); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func saveEntitlements(ctx context.Context, q *db.Queries, u *domain.User) error {
	sub := u.Subscription
	limits := u.MissionLimits
	n, err := q.UpdateUserEntitlements(ctx, db.UpdateUserEntitlementsParams{
		SubTier:                   string(sub.Tier),
		SubStatus:                 string(sub.Status),
		SubProvider:               string(sub.Provider),
		SubProviderSubscriptionID: sub.ProviderSubscriptionID,
		SubProviderTierID:         sub.ProviderTierID,
		SubPeriodStart:            sub.CurrentPeriodStart,
		SubPeriodEnd:              sub.CurrentPeriodEnd,
		MaxActiveMissions:         nullInt(limits.MaxActiveMissions, limits.Initialized),
		AvailableSlots:            nullInt(limits.AvailableSlots, limits.Initialized),
		LimitsLastRefresh:         limits.LastRefresh,
		LimitsNextRefresh:         limits.NextRefresh,
		UpdatedAt:                 time.Now().UTC(),
		ID:                        u.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to save entitlements for %s: %w", u.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SaveDailyMissions(ctx context.Context, u *domain.User) error {
	ids := u.DailyMissions.SelectedMissionIDs
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode daily missions: %w", err)
	}
	return r.queries.UpdateDailyMissions(ctx, db.UpdateDailyMissionsParams{
		DailySelectedIds: string(encoded),
		DailyLastRefresh: u.DailyMissions.LastRefresh,
		DailyNextRefresh: u.DailyMissions.NextRefresh,
		UpdatedAt:        time.Now().UTC(),
		ID:               u.ID,
	})
}

// LinkRiotAccount sets the account once. A second link for the same user returns
// ErrRiotAlreadyLinked; a puuid owned by someone else returns ErrRiotIDTaken.
func (r *UserRepository) LinkRiotAccount(ctx context.Context, userID string, acct domain.RiotAccount) error {
	card, err := json.Marshal(acct.Card)
	if err != nil {
		return fmt.Errorf("failed to encode card: %w", err)
	}
	n, err := r.queries.LinkRiotAccount(ctx, db.LinkRiotAccountParams{
		RiotPuuid:        acct.Puuid,
		RiotRegion:       acct.Region,
		RiotName:         acct.Name,
		RiotTag:          acct.Tag,
		RiotAccountLevel: int64(acct.AccountLevel),
		RiotCard:         string(card),
		RiotLinkedAt:     acct.LinkedAt.UTC(),
		UpdatedAt:        time.Now().UTC(),
		ID:               userID,
	})
	if isUniqueViolation(err) {
		return ErrRiotIDTaken
	}
	if err != nil {
		return fmt.Errorf("failed to link riot account: %w", err)
	}
	if n == 0 {
		return ErrRiotAlreadyLinked
	}
	return nil
}

// Delete removes the user with their missions and cached matches in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	missions, err := qtx.DeleteUserMissionsByUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user missions: %w", err)
	}
	matches, err := qtx.DeleteMatchesByUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete matches: %w", err)
	}
	n, err := qtx.DeleteUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	r.logger.Debug().
		Str("user_id", id).
		Int64("missions", missions).
		Int64("matches", matches).
		Bool("user_deleted", n > 0).
		Msg("user data deleted")

	return n > 0, nil
}

func nullInt(v int, valid bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: valid}
}

func (r *UserRepository) toDomainUser(row db.User) *domain.User {
	u := &domain.User{
		ID:       row.ID,
		Email:    row.Email,
		Username: row.Username,
		Subscription: domain.Subscription{
			Tier:                   domain.Tier(row.SubTier),
			Status:                 domain.SubscriptionStatus(row.SubStatus),
			Provider:               domain.BillingProvider(row.SubProvider),
			ProviderSubscriptionID: row.SubProviderSubscriptionID,
			ProviderTierID:         row.SubProviderTierID,
			CurrentPeriodStart:     row.SubPeriodStart,
			CurrentPeriodEnd:       row.SubPeriodEnd,
		},
		MissionLimits: domain.MissionLimits{
			MaxActiveMissions: int(row.MaxActiveMissions.Int64),
			AvailableSlots:    int(row.AvailableSlots.Int64),
			LastRefresh:       row.LimitsLastRefresh,
			NextRefresh:       row.LimitsNextRefresh,
			Initialized:       row.MaxActiveMissions.Valid && row.AvailableSlots.Valid,
		},
		DailyMissions: domain.DailyMissions{
			SelectedMissionIDs: []string{},
			LastRefresh:        row.DailyLastRefresh,
			NextRefresh:        row.DailyNextRefresh,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if row.DailySelectedIds != "" {
		var ids []string
		if err := json.Unmarshal([]byte(row.DailySelectedIds), &ids); err != nil {
			r.logger.Warn().Err(err).Str("user_id", row.ID).Msg("failed to decode daily mission ids")
		} else if ids != nil {
			u.DailyMissions.SelectedMissionIDs = ids
		}
	}

	if row.RiotPuuid.Valid && row.RiotPuuid.String != "" {
		acct := &domain.RiotAccount{
			Puuid:        row.RiotPuuid.String,
			Region:       row.RiotRegion,
			Name:         row.RiotName,
			Tag:          row.RiotTag,
			AccountLevel: int(row.RiotAccountLevel),
		}
		if row.RiotLinkedAt.Valid {
			acct.LinkedAt = row.RiotLinkedAt.Time
		}
		if row.RiotCard != "" {
			if err := json.Unmarshal([]byte(row.RiotCard), &acct.Card); err != nil {
				r.logger.Warn().Err(err).Str("user_id", row.ID).Msg("failed to decode riot card")
				acct.Card = domain.CardAssets{}
			}
		}
		u.RiotAccount = acct
	}

	return u
}
