package db

import (
	"context"
)

const missionColumns = `id, title, description, type, target, points, difficulty, is_active, created_at`

func scanMission(row scanner) (Mission, error) {
	var i Mission
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.Type,
		&i.Target,
		&i.Points,
		&i.Difficulty,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getMission = `SELECT ` + missionColumns + ` FROM missions WHERE id = ?`

func (q *Queries) GetMission(ctx context.Context, id string) (Mission, error) {
	return scanMission(q.db.QueryRowContext(ctx, getMission, id))
}

const listActiveMissions = `SELECT ` + missionColumns + ` FROM missions WHERE is_active = 1 ORDER BY id`

func (q *Queries) ListActiveMissions(ctx context.Context) ([]Mission, error) {
	rows, err := q.db.QueryContext(ctx, listActiveMissions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Mission
	for rows.Next() {
		i, err := scanMission(rows)
		if err != nil {
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
