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

type WebhookLogRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewWebhookLogRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *WebhookLogRepository {
	return &WebhookLogRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *WebhookLogRepository) Insert(ctx context.Context, entry *domain.WebhookLog) error {
	if entry.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		entry.ID = id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	return r.queries.InsertWebhookLog(ctx, db.InsertWebhookLogParams{
		ID:             entry.ID,
		Provider:       string(entry.Provider),
		EventType:      entry.EventType,
		UserID:         entry.UserID,
		SubscriptionID: entry.SubscriptionID,
		Outcome:        string(entry.Outcome),
		Message:        entry.Message,
		Payload:        entry.Payload,
		CreatedAt:      entry.CreatedAt.UTC(),
	})
}

func (r *WebhookLogRepository) List(ctx context.Context, limit int) ([]domain.WebhookLog, error) {
	rows, err := r.queries.ListWebhookLogs(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	result := make([]domain.WebhookLog, len(rows))
	for i, row := range rows {
		result[i] = domain.WebhookLog{
			ID:             row.ID,
			Provider:       domain.BillingProvider(row.Provider),
			EventType:      row.EventType,
			UserID:         row.UserID,
			SubscriptionID: row.SubscriptionID,
			Outcome:        domain.WebhookOutcome(row.Outcome),
			Message:        row.Message,
			Payload:        row.Payload,
			CreatedAt:      row.CreatedAt,
		}
	}
	return result, nil
}

func (r *WebhookLogRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.queries.DeleteWebhookLogsBefore(ctx, before.UTC())
}
