// Package jobs runs scheduled maintenance inside the server process.
package jobs

import (
	"context"
	"fmt"
	"time"
	"valorant-missions/internal/config"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Retention prunes webhook audit logs older than the configured window.
type Retention struct {
	logs      *repository.WebhookLogRepository
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
	logger    zerolog.Logger
}

func NewRetention(lc fx.Lifecycle, logs *repository.WebhookLogRepository, cfg *config.Config, logger zerolog.Logger) (*Retention, error) {
	r := &Retention{
		logs:      logs,
		retention: cfg.WebhookLogRetention,
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
		logger:    logger.With().Str("job", "webhook_log_retention").Logger(),
	}
	if r.retention <= 0 {
		r.retention = constants.DefaultWebhookLogRetention
	}

	if _, err := r.cron.AddFunc(constants.WebhookLogRetentionSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error().Err(err).Msg("retention run failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid retention schedule: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.cron.Start()
			r.logger.Info().
				Str("schedule", constants.WebhookLogRetentionSchedule).
				Dur("retention", r.retention).
				Msg("retention job scheduled")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// waits for a running prune to finish
			select {
			case <-r.cron.Stop().Done():
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
	return r, nil
}

// Run deletes every audit log written before now minus the retention window.
func (r *Retention) Run(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.retention)
	n, err := r.logs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("webhook logs pruned")
	return n, nil
}

var Module = fx.Options(
	fx.Provide(NewRetention),
	fx.Invoke(func(*Retention) {}),
)
