// Package cache stores short-lived upstream responses. Redis backs it when
// REDIS_URL is set; otherwise every lookup misses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"valorant-missions/internal/config"
	"valorant-missions/internal/constants"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Cache interface {
	// GetJSON decodes the value at key into dst and reports whether it was found.
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, raw, ttl).Err()
}

type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) (bool, error) { return false, nil }

func (Noop) SetJSON(context.Context, string, any, time.Duration) error { return nil }

func New(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (Cache, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set, response cache disabled")
		return Noop{}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	logger.Info().Str("addr", opt.Addr).Msg("connected to redis")
	return NewRedis(client, "missions:"), nil
}

func AccountKey(name, tag string) string {
	return fmt.Sprintf("account:%s#%s", normalize(name), normalize(tag))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var Module = fx.Provide(New)
