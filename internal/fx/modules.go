package fx

import (
	"database/sql"
	"valorant-missions/internal/api"
	"valorant-missions/internal/cache"
	"valorant-missions/internal/clerk"
	"valorant-missions/internal/config"
	"valorant-missions/internal/database"
	"valorant-missions/internal/db"
	"valorant-missions/internal/jobs"
	"valorant-missions/internal/logger"
	"valorant-missions/internal/middleware"
	"valorant-missions/internal/repository"
	"valorant-missions/internal/server"
	"valorant-missions/internal/service"

	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideValorantAPI(c *api.HDevClient) service.ValorantAPI {
	return c
}

func ProvideKofiAPI(c *api.KofiClient) service.KofiAPI {
	return c
}

func ProvideSessionVerifier(v *clerk.TokenVerifier) middleware.SessionVerifier {
	return v
}

func ProvideWebhookVerifier(v *clerk.WebhookVerifier) service.WebhookVerifier {
	return v
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewUserRepository),
	fx.Provide(repository.NewMissionRepository),
	fx.Provide(repository.NewUserMissionRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewWebhookLogRepository),
	// api clients
	fx.Provide(api.NewHDevClient),
	fx.Provide(api.NewKofiClient),
	fx.Provide(ProvideValorantAPI),
	fx.Provide(ProvideKofiAPI),
	cache.Module,
	// clerk
	fx.Provide(clerk.NewTokenVerifier),
	fx.Provide(clerk.NewWebhookVerifier),
	fx.Provide(ProvideSessionVerifier),
	fx.Provide(ProvideWebhookVerifier),
	// svc
	fx.Provide(service.SystemClock),
	fx.Provide(service.NewUserService),
	fx.Provide(service.NewMissionService),
	fx.Provide(service.NewDailyMissionService),
	fx.Provide(service.NewProgressService),
	fx.Provide(service.NewRiotService),
	fx.Provide(service.NewSubscriptionService),
	fx.Provide(service.NewWebhookService),
	fx.Provide(service.NewDashboardService),
	// server
	fx.Provide(server.NewServer),
	jobs.Module,
)
