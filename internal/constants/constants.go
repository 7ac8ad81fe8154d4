package constants

import "time"

const (
	MissionRefreshWindow = 24 * time.Hour
	DailyRefreshWindow   = 24 * time.Hour
	DefaultBillingPeriod = 30 * 24 * time.Hour
	AccountCacheTTL      = 5 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// max bytes read from a webhook body before verification
	MaxWebhookBodySize = 1 << 20
	MaxRequestBodySize = 64 << 10
)

const (
	WebhookLogRetentionSchedule = "0 30 3 * * *"
	DefaultWebhookLogRetention  = 30 * 24 * time.Hour
)
