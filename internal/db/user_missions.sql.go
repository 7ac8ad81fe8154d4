package db

import (
	"context"
	"database/sql"
	"time"
)

const userMissionColumns = `um.id, um.user_id, um.mission_id, um.progress, um.is_completed, um.started_at, um.accepted_at, um.last_updated, um.completed_at, um.last_match_at`

func scanUserMission(row scanner, extra ...interface{}) (UserMission, error) {
	var i UserMission
	dest := []interface{}{
		&i.ID,
		&i.UserID,
		&i.MissionID,
		&i.Progress,
		&i.IsCompleted,
		&i.StartedAt,
		&i.AcceptedAt,
		&i.LastUpdated,
		&i.CompletedAt,
		&i.LastMatchAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return i, err
}

const createUserMission = `INSERT INTO user_missions (
    id, user_id, mission_id, progress, is_completed, started_at, accepted_at, last_updated
) VALUES (?, ?, ?, 0, 0, ?, ?, ?)`

type CreateUserMissionParams struct {
	ID          string
	UserID      string
	MissionID   string
	StartedAt   time.Time
	AcceptedAt  time.Time
	LastUpdated time.Time
}

func (q *Queries) CreateUserMission(ctx context.Context, arg CreateUserMissionParams) error {
	_, err := q.db.ExecContext(ctx, createUserMission,
		arg.ID,
		arg.UserID,
		arg.MissionID,
		arg.StartedAt,
		arg.AcceptedAt,
		arg.LastUpdated,
	)
	return err
}

const getActiveUserMission = `SELECT ` + userMissionColumns + ` FROM user_missions um
WHERE um.user_id = ? AND um.mission_id = ? AND um.is_completed = 0
LIMIT 1`

func (q *Queries) GetActiveUserMission(ctx context.Context, userID, missionID string) (UserMission, error) {
	return scanUserMission(q.db.QueryRowContext(ctx, getActiveUserMission, userID, missionID))
}

const countActiveUserMissions = `SELECT COUNT(*) FROM user_missions WHERE user_id = ? AND is_completed = 0`

func (q *Queries) CountActiveUserMissions(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveUserMissions, userID).Scan(&count)
	return count, err
}

type UserMissionWithMission struct {
	UserMission UserMission
	Mission     Mission
}

const listUserMissionsWithMission = `SELECT ` + userMissionColumns + `,
    m.id, m.title, m.description, m.type, m.target, m.points, m.difficulty, m.is_active, m.created_at
FROM user_missions um
JOIN missions m ON m.id = um.mission_id
WHERE um.user_id = ? AND (? = 0 OR um.is_completed = 0)
ORDER BY um.is_completed ASC, um.accepted_at DESC`

type ListUserMissionsWithMissionParams struct {
	UserID     string
	ActiveOnly bool
}

func (q *Queries) ListUserMissionsWithMission(ctx context.Context, arg ListUserMissionsWithMissionParams) ([]UserMissionWithMission, error) {
	rows, err := q.db.QueryContext(ctx, listUserMissionsWithMission, arg.UserID, arg.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserMissionWithMission
	for rows.Next() {
		var m Mission
		um, err := scanUserMission(rows,
			&m.ID,
			&m.Title,
			&m.Description,
			&m.Type,
			&m.Target,
			&m.Points,
			&m.Difficulty,
			&m.IsActive,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, UserMissionWithMission{UserMission: um, Mission: m})
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateUserMissionProgress = `UPDATE user_missions SET
    progress = ?,
    is_completed = ?,
    last_updated = ?,
    completed_at = ?,
    last_match_at = ?
WHERE id = ? AND is_completed = 0`

type UpdateUserMissionProgressParams struct {
	Progress    int64
	IsCompleted bool
	LastUpdated time.Time
	CompletedAt sql.NullTime
	LastMatchAt sql.NullTime
	ID          string
}

// UpdateUserMissionProgress leaves completed missions untouched.
func (q *Queries) UpdateUserMissionProgress(ctx context.Context, arg UpdateUserMissionProgressParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUserMissionProgress,
		arg.Progress,
		arg.IsCompleted,
		arg.LastUpdated,
		arg.CompletedAt,
		arg.LastMatchAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteUserMissionsByUser = `DELETE FROM user_missions WHERE user_id = ?`

func (q *Queries) DeleteUserMissionsByUser(ctx context.Context, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUserMissionsByUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
