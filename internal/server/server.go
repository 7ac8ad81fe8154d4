package server

import (
	"context"
	"database/sql"
	"net/http"
	"reflect"
	"strings"
	"valorant-missions/internal/config"
	"valorant-missions/internal/constants"
	"valorant-missions/internal/middleware"
	"valorant-missions/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Server struct {
	users         *service.UserService
	missions      *service.MissionService
	daily         *service.DailyMissionService
	progress      *service.ProgressService
	riot          *service.RiotService
	subscriptions *service.SubscriptionService
	webhooks      *service.WebhookService
	dashboard     *service.DashboardService
	sessions      middleware.SessionVerifier
	db            *sql.DB
	cfg           *config.Config
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewServer(
	users *service.UserService,
	missions *service.MissionService,
	daily *service.DailyMissionService,
	progress *service.ProgressService,
	riot *service.RiotService,
	subscriptions *service.SubscriptionService,
	webhooks *service.WebhookService,
	dashboard *service.DashboardService,
	sessions middleware.SessionVerifier,
	db *sql.DB,
	cfg *config.Config,
	logger zerolog.Logger,
) *Server {
	return &Server{
		users:         users,
		missions:      missions,
		daily:         daily,
		progress:      progress,
		riot:          riot,
		subscriptions: subscriptions,
		webhooks:      webhooks,
		dashboard:     dashboard,
		sessions:      sessions,
		db:            db,
		cfg:           cfg,
		validate:      newValidator(),
		logger:        logger,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.cfg.AppBaseURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(c.Handler)
	r.Use(chimw.Timeout(constants.RequestTimeout))

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		// signed by the sender, not by a user session
		r.Post("/kofi/webhooks", s.kofiWebhook)
		r.Post("/webhooks/clerk", s.clerkWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(s.sessions))

			r.Get("/users", s.getUser)
			r.Post("/users", s.saveUser)
			r.Get("/dashboard", s.getDashboard)

			r.Get("/missions", s.listCatalog)
			r.Get("/user-missions", s.listUserMissions)
			r.Post("/user-missions", s.acceptMission)
			r.Post("/user-missions/refresh", s.refreshProgress)
			r.Get("/daily-missions", s.getDailyMissions)

			r.Post("/riot-id/verify", s.verifyRiotID)
			r.Post("/riot-id/link", s.linkRiotID)

			r.Get("/valorant/account/{name}/{tag}", s.getAccount)
			r.Get("/valorant/matches", s.listMatches)
			r.Post("/valorant/refresh", s.refreshProgress)

			r.Get("/subscriptions", s.getSubscription)
			r.Post("/subscriptions", s.changeSubscription)
			r.Delete("/subscriptions", s.cancelSubscription)

			r.Get("/kofi/subscriptions", s.listCheckoutLinks)
			r.Post("/kofi/subscriptions", s.createCheckout)
			r.Post("/kofi/subscriptions/sync", s.syncKofi)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
