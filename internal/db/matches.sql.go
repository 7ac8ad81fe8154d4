package db

import (
	"context"
	"time"
)

const insertMatch = `INSERT INTO valorant_matches (
    user_id, match_id, map, mode, queue, started_at,
    kills, deaths, assists, headshots, score, won, rounds_won, rounds_played,
    agent, weapon_kills, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, match_id) DO NOTHING`

type InsertMatchParams struct {
	UserID       string
	MatchID      string
	Map          string
	Mode         string
	Queue        string
	StartedAt    time.Time
	Kills        int64
	Deaths       int64
	Assists      int64
	Headshots    int64
	Score        int64
	Won          bool
	RoundsWon    int64
	RoundsPlayed int64
	Agent        string
	WeaponKills  string
	CreatedAt    time.Time
}

// InsertMatch returns 0 when the match is already stored for the user.
func (q *Queries) InsertMatch(ctx context.Context, arg InsertMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertMatch,
		arg.UserID,
		arg.MatchID,
		arg.Map,
		arg.Mode,
		arg.Queue,
		arg.StartedAt,
		arg.Kills,
		arg.Deaths,
		arg.Assists,
		arg.Headshots,
		arg.Score,
		arg.Won,
		arg.RoundsWon,
		arg.RoundsPlayed,
		arg.Agent,
		arg.WeaponKills,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listMatchesByUser = `SELECT
    user_id, match_id, map, mode, queue, started_at,
    kills, deaths, assists, headshots, score, won, rounds_won, rounds_played,
    agent, weapon_kills, created_at
FROM valorant_matches
WHERE user_id = ?
ORDER BY started_at DESC
LIMIT ?`

type ListMatchesByUserParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListMatchesByUser(ctx context.Context, arg ListMatchesByUserParams) ([]ValorantMatch, error) {
	rows, err := q.db.QueryContext(ctx, listMatchesByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ValorantMatch
	for rows.Next() {
		var i ValorantMatch
		if err := rows.Scan(
			&i.UserID,
			&i.MatchID,
			&i.Map,
			&i.Mode,
			&i.Queue,
			&i.StartedAt,
			&i.Kills,
			&i.Deaths,
			&i.Assists,
			&i.Headshots,
			&i.Score,
			&i.Won,
			&i.RoundsWon,
			&i.RoundsPlayed,
			&i.Agent,
			&i.WeaponKills,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteMatchesByUser = `DELETE FROM valorant_matches WHERE user_id = ?`

func (q *Queries) DeleteMatchesByUser(ctx context.Context, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMatchesByUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
