package db

import (
	"context"
	"database/sql"
	"time"
	"valorant-missions/internal/domain"
)

const userColumns = `id, email, username,
riot_puuid, riot_region, riot_name, riot_tag, riot_account_level, riot_card, riot_linked_at,
sub_tier, sub_status, sub_provider, sub_provider_subscription_id, sub_provider_tier_id, sub_period_start, sub_period_end,
max_active_missions, available_slots, limits_last_refresh, limits_next_refresh,
daily_selected_ids, daily_last_refresh, daily_next_refresh,
created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Username,
		&i.RiotPuuid,
		&i.RiotRegion,
		&i.RiotName,
		&i.RiotTag,
		&i.RiotAccountLevel,
		&i.RiotCard,
		&i.RiotLinkedAt,
		&i.SubTier,
		&i.SubStatus,
		&i.SubProvider,
		&i.SubProviderSubscriptionID,
		&i.SubProviderTierID,
		&i.SubPeriodStart,
		&i.SubPeriodEnd,
		&i.MaxActiveMissions,
		&i.AvailableSlots,
		&i.LimitsLastRefresh,
		&i.LimitsNextRefresh,
		&i.DailySelectedIds,
		&i.DailyLastRefresh,
		&i.DailyNextRefresh,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE ORDER BY created_at LIMIT 1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByPuuid = `SELECT ` + userColumns + ` FROM users WHERE riot_puuid = ?`

func (q *Queries) GetUserByPuuid(ctx context.Context, puuid string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByPuuid, puuid))
}

const getUserBySubscription = `SELECT ` + userColumns + ` FROM users
WHERE sub_provider = ? AND sub_provider_subscription_id = ? AND sub_provider_subscription_id != ''
LIMIT 1`

type GetUserBySubscriptionParams struct {
	SubProvider               string
	SubProviderSubscriptionID string
}

func (q *Queries) GetUserBySubscription(ctx context.Context, arg GetUserBySubscriptionParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserBySubscription, arg.SubProvider, arg.SubProviderSubscriptionID))
}

const insertUser = `INSERT INTO users (
    id, email, username,
    sub_tier, sub_status, sub_provider,
    max_active_missions, available_slots, limits_last_refresh, limits_next_refresh,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`

type InsertUserParams struct {
	ID                string
	Email             string
	Username          string
	SubTier           string
	SubStatus         string
	SubProvider       string
	MaxActiveMissions sql.NullInt64
	AvailableSlots    sql.NullInt64
	LimitsLastRefresh domain.Timestamp
	LimitsNextRefresh domain.Timestamp
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InsertUser returns the number of inserted rows; 0 when the id already exists.
func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertUser,
		arg.ID,
		arg.Email,
		arg.Username,
		arg.SubTier,
		arg.SubStatus,
		arg.SubProvider,
		arg.MaxActiveMissions,
		arg.AvailableSlots,
		arg.LimitsLastRefresh,
		arg.LimitsNextRefresh,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateUserProfile = `UPDATE users SET email = ?, username = ?, updated_at = ? WHERE id = ?`

type UpdateUserProfileParams struct {
	Email     string
	Username  string
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, updateUserProfile, arg.Email, arg.Username, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserEntitlements = `UPDATE users SET
    sub_tier = ?,
    sub_status = ?,
    sub_provider = ?,
    sub_provider_subscription_id = ?,
    sub_provider_tier_id = ?,
    sub_period_start = ?,
    sub_period_end = ?,
    max_active_missions = ?,
    available_slots = ?,
    limits_last_refresh = ?,
    limits_next_refresh = ?,
    updated_at = ?
WHERE id = ?`

type UpdateUserEntitlementsParams struct {
	SubTier                   string
	SubStatus                 string
	SubProvider               string
	SubProviderSubscriptionID string
	SubProviderTierID         string
	SubPeriodStart            domain.Timestamp
	SubPeriodEnd              domain.Timestamp
	MaxActiveMissions         sql.NullInt64
	AvailableSlots            sql.NullInt64
	LimitsLastRefresh         domain.Timestamp
	LimitsNextRefresh         domain.Timestamp
	UpdatedAt                 time.Time
	ID                        string
}

func (q *Queries) UpdateUserEntitlements(ctx context.Context, arg UpdateUserEntitlementsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserEntitlements,
		arg.SubTier,
		arg.SubStatus,
		arg.SubProvider,
		arg.SubProviderSubscriptionID,
		arg.SubProviderTierID,
		arg.SubPeriodStart,
		arg.SubPeriodEnd,
		arg.MaxActiveMissions,
		arg.AvailableSlots,
		arg.LimitsLastRefresh,
		arg.LimitsNextRefresh,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateDailyMissions = `UPDATE users SET
    daily_selected_ids = ?,
    daily_last_refresh = ?,
    daily_next_refresh = ?,
    updated_at = ?
WHERE id = ?`

type UpdateDailyMissionsParams struct {
	DailySelectedIds string
	DailyLastRefresh domain.Timestamp
	DailyNextRefresh domain.Timestamp
	UpdatedAt        time.Time
	ID               string
}

func (q *Queries) UpdateDailyMissions(ctx context.Context, arg UpdateDailyMissionsParams) error {
	_, err := q.db.ExecContext(ctx, updateDailyMissions,
		arg.DailySelectedIds,
		arg.DailyLastRefresh,
		arg.DailyNextRefresh,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const linkRiotAccount = `UPDATE users SET
    riot_puuid = ?,
    riot_region = ?,
    riot_name = ?,
    riot_tag = ?,
    riot_account_level = ?,
    riot_card = ?,
    riot_linked_at = ?,
    updated_at = ?
WHERE id = ? AND riot_puuid IS NULL`

type LinkRiotAccountParams struct {
	RiotPuuid        string
	RiotRegion       string
	RiotName         string
	RiotTag          string
	RiotAccountLevel int64
	RiotCard         string
	RiotLinkedAt     time.Time
	UpdatedAt        time.Time
	ID               string
}

// LinkRiotAccount only writes users without a linked account.
func (q *Queries) LinkRiotAccount(ctx context.Context, arg LinkRiotAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, linkRiotAccount,
		arg.RiotPuuid,
		arg.RiotRegion,
		arg.RiotName,
		arg.RiotTag,
		arg.RiotAccountLevel,
		arg.RiotCard,
		arg.RiotLinkedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const decrementAvailableSlots = `UPDATE users
SET available_slots = available_slots - 1, updated_at = ?
WHERE id = ? AND available_slots > 0`

func (q *Queries) DecrementAvailableSlots(ctx context.Context, updatedAt time.Time, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, decrementAvailableSlots, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
