package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"valorant-missions/internal/db"
	"valorant-missions/internal/domain"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Insert stores the match for its user and reports false when it was already
// stored, which makes ingestion safe to repeat.
func (r *MatchRepository) Insert(ctx context.Context, m *domain.ValorantMatch) (bool, error) {
	weaponKills := m.WeaponKills
	if weaponKills == nil {
		weaponKills = map[string]int{}
	}
	encoded, err := json.Marshal(weaponKills)
	if err != nil {
		return false, fmt.Errorf("failed to encode weapon kills: %w", err)
	}

	n, err := r.queries.InsertMatch(ctx, db.InsertMatchParams{
		UserID:       m.UserID,
		MatchID:      m.MatchID,
		Map:          m.Map,
		Mode:         m.Mode,
		Queue:        m.Queue,
		StartedAt:    m.StartedAt.UTC(),
		Kills:        int64(m.Kills),
		Deaths:       int64(m.Deaths),
		Assists:      int64(m.Assists),
		Headshots:    int64(m.Headshots),
		Score:        int64(m.Score),
		Won:          m.Won,
		RoundsWon:    int64(m.RoundsWon),
		RoundsPlayed: int64(m.RoundsPlayed),
		Agent:        m.Agent,
		WeaponKills:  string(encoded),
		CreatedAt:    m.CreatedAt.UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
	}
	return n > 0, nil
}

func (r *MatchRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ValorantMatch, error) {
	rows, err := r.queries.ListMatchesByUser(ctx, db.ListMatchesByUserParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.ValorantMatch, len(rows))
	for i, row := range rows {
		result[i] = domain.ValorantMatch{
			UserID:       row.UserID,
			MatchID:      row.MatchID,
			Map:          row.Map,
			Mode:         row.Mode,
			Queue:        row.Queue,
			StartedAt:    row.StartedAt,
			Kills:        int(row.Kills),
			Deaths:       int(row.Deaths),
			Assists:      int(row.Assists),
			Headshots:    int(row.Headshots),
			Score:        int(row.Score),
			Won:          row.Won,
			RoundsWon:    int(row.RoundsWon),
			RoundsPlayed: int(row.RoundsPlayed),
			Agent:        row.Agent,
			CreatedAt:    row.CreatedAt,
		}
		if row.WeaponKills != "" {
			if err := json.Unmarshal([]byte(row.WeaponKills), &result[i].WeaponKills); err != nil {
				r.logger.Warn().Err(err).Str("match_id", row.MatchID).Msg("failed to decode weapon kills")
			}
		}
	}
	return result, nil
}
