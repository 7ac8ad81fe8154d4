package repository

import (
	"context"
	"database/sql"
	"valorant-missions/internal/db"
	"valorant-missions/internal/domain"

	"github.com/rs/zerolog"
)

type MissionRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMissionRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MissionRepository {
	return &MissionRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *MissionRepository) Get(ctx context.Context, id string) (*domain.Mission, error) {
	row, err := r.queries.GetMission(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	m := toDomainMission(row)
	return &m, nil
}

// ListActive returns the active catalog ordered by id.
func (r *MissionRepository) ListActive(ctx context.Context) ([]domain.Mission, error) {
	rows, err := r.queries.ListActiveMissions(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Mission, len(rows))
	for i, row := range rows {
		result[i] = toDomainMission(row)
	}
	return result, nil
}

func toDomainMission(row db.Mission) domain.Mission {
	return domain.Mission{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Type:        domain.MissionType(row.Type),
		Target:      int(row.Target),
		Points:      int(row.Points),
		Difficulty:  row.Difficulty,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
	}
}
