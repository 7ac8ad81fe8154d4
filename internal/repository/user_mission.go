package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"valorant-missions/internal/db"
	"valorant-missions/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type UserMissionRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewUserMissionRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *UserMissionRepository {
	return &UserMissionRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Accept stores um and takes one slot from the user in a single transaction. The
// slot is only taken while available_slots > 0, so concurrent accepts cannot
// overdraw the budget.
func (r *UserMissionRepository) Accept(ctx context.Context, um *domain.UserMission) error {
	if um.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		um.ID = id
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	n, err := qtx.DecrementAvailableSlots(ctx, um.AcceptedAt.UTC(), um.UserID)
	if err != nil {
		return fmt.Errorf("failed to decrement slots: %w", err)
	}
	if n == 0 {
		return ErrNoSlots
	}

	err = qtx.CreateUserMission(ctx, db.CreateUserMissionParams{
		ID:          um.ID,
		UserID:      um.UserID,
		MissionID:   um.MissionID,
		StartedAt:   um.StartedAt.UTC(),
		AcceptedAt:  um.AcceptedAt.UTC(),
		LastUpdated: um.LastUpdated.UTC(),
	})
	if isUniqueViolation(err) {
		return ErrMissionActive
	}
	if err != nil {
		return fmt.Errorf("failed to create user mission: %w", err)
	}

	return tx.Commit()
}

func (r *UserMissionRepository) GetActive(ctx context.Context, userID, missionID string) (*domain.UserMission, error) {
	row, err := r.queries.GetActiveUserMission(ctx, userID, missionID)
	if err != nil {
		return nil, notFound(err)
	}
	um := toDomainUserMission(row)
	return &um, nil
}

func (r *UserMissionRepository) CountActive(ctx context.Context, userID string) (int, error) {
	n, err := r.queries.CountActiveUserMissions(ctx, userID)
	return int(n), err
}

func (r *UserMissionRepository) List(ctx context.Context, userID string, activeOnly bool) ([]domain.UserMissionWithMission, error) {
	rows, err := r.queries.ListUserMissionsWithMission(ctx, db.ListUserMissionsWithMissionParams{
		UserID:     userID,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return nil, err
	}
	result := make([]domain.UserMissionWithMission, len(rows))
	for i, row := range rows {
		result[i] = domain.UserMissionWithMission{
			UserMission: toDomainUserMission(row.UserMission),
			Mission:     toDomainMission(row.Mission),
		}
	}
	return result, nil
}

// UpdateProgress writes progress for a mission that is not yet completed. It
// reports false when the row was already terminal.
func (r *UserMissionRepository) UpdateProgress(ctx context.Context, um *domain.UserMission) (bool, error) {
	n, err := r.queries.UpdateUserMissionProgress(ctx, db.UpdateUserMissionProgressParams{
		Progress:    int64(um.Progress),
		IsCompleted: um.IsCompleted,
		LastUpdated: um.LastUpdated.UTC(),
		CompletedAt: nullTime(um.CompletedAt),
		LastMatchAt: nullTime(um.LastMatchAt),
		ID:          um.ID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to update progress for %s: %w", um.ID, err)
	}
	return n > 0, nil
}

func toDomainUserMission(row db.UserMission) domain.UserMission {
	um := domain.UserMission{
		ID:          row.ID,
		UserID:      row.UserID,
		MissionID:   row.MissionID,
		Progress:    int(row.Progress),
		IsCompleted: row.IsCompleted,
		StartedAt:   row.StartedAt,
		AcceptedAt:  row.AcceptedAt,
		LastUpdated: row.LastUpdated,
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		um.CompletedAt = &t
	}
	if row.LastMatchAt.Valid {
		t := row.LastMatchAt.Time
		um.LastMatchAt = &t
	}
	return um
}


func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
