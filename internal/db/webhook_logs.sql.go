package db

import (
	"context"
	"time"
)

const insertWebhookLog = `INSERT INTO webhook_logs (
    id, provider, event_type, user_id, subscription_id, outcome, message, payload, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertWebhookLogParams struct {
	ID             string
	Provider       string
	EventType      string
	UserID         string
	SubscriptionID string
	Outcome        string
	Message        string
	Payload        string
	CreatedAt      time.Time
}

func (q *Queries) InsertWebhookLog(ctx context.Context, arg InsertWebhookLogParams) error {
	_, err := q.db.ExecContext(ctx, insertWebhookLog,
		arg.ID,
		arg.Provider,
		arg.EventType,
		arg.UserID,
		arg.SubscriptionID,
		arg.Outcome,
		arg.Message,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const listWebhookLogs = `SELECT id, provider, event_type, user_id, subscription_id, outcome, message, payload, created_at
FROM webhook_logs
ORDER BY created_at DESC
LIMIT ?`

func (q *Queries) ListWebhookLogs(ctx context.Context, limit int64) ([]WebhookLog, error) {
	rows, err := q.db.QueryContext(ctx, listWebhookLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WebhookLog
	for rows.Next() {
		var i WebhookLog
		if err := rows.Scan(
			&i.ID,
			&i.Provider,
			&i.EventType,
			&i.UserID,
			&i.SubscriptionID,
			&i.Outcome,
			&i.Message,
			&i.Payload,
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

const deleteWebhookLogsBefore = `DELETE FROM webhook_logs WHERE created_at < ?`

func (q *Queries) DeleteWebhookLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteWebhookLogsBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
