package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"valorant-missions/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ServerPort string
	LogLevel   string
	DBPath     string
	AppBaseURL string

	HDevAPIKey  string
	HDevBaseURL string

	// PEM encoded public key used to verify Clerk session tokens
	ClerkJWTKey            string
	ClerkAuthorizedParties []string
	ClerkWebhookSecret     string

	KofiAPIKey        string
	KofiWebhookSecret string
	KofiBaseURL       string
	KofiPageURL       string

	RedisURL string

	AllowManualUpgrades bool
	WebhookLogRetention time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBPath:     getEnv("DB_PATH", "missions.db"),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),

		HDevAPIKey:  getEnv("HDEV_API_KEY", ""),
		HDevBaseURL: strings.TrimRight(getEnv("HDEV_BASE_URL", "https://api.henrikdev.xyz"), "/"),

		ClerkJWTKey:            getEnv("CLERK_JWT_KEY", ""),
		ClerkAuthorizedParties: splitList(getEnv("CLERK_AUTHORIZED_PARTIES", "")),
		ClerkWebhookSecret:     getEnv("CLERK_WEBHOOK_SECRET", ""),

		KofiAPIKey:        getEnv("KOFI_API_KEY", ""),
		KofiWebhookSecret: getEnv("KOFI_WEBHOOK_SECRET", ""),
		KofiBaseURL:       strings.TrimRight(getEnv("KOFI_BASE_URL", "https://api.ko-fi.com/v1"), "/"),
		KofiPageURL:       getEnv("KOFI_PAGE_URL", "https://ko-fi.com"),

		RedisURL: getEnv("REDIS_URL", ""),

		AllowManualUpgrades: getBool("ALLOW_MANUAL_UPGRADES", false),
		WebhookLogRetention: constants.DefaultWebhookLogRetention,
	}

	if days := getEnv("WEBHOOK_LOG_RETENTION_DAYS", ""); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("WEBHOOK_LOG_RETENTION_DAYS must be a positive integer, got %q", days)
		}
		cfg.WebhookLogRetention = time.Duration(n) * 24 * time.Hour
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("app_base_url", cfg.AppBaseURL).
		Bool("redis_cache", cfg.RedisURL != "").
		Bool("manual_upgrades", cfg.AllowManualUpgrades).
		Dur("webhook_log_retention", cfg.WebhookLogRetention).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"HDEV_API_KEY", c.HDevAPIKey},
		{"CLERK_JWT_KEY", c.ClerkJWTKey},
		{"CLERK_WEBHOOK_SECRET", c.ClerkWebhookSecret},
		{"KOFI_WEBHOOK_SECRET", c.KofiWebhookSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var Module = fx.Provide(Load)
