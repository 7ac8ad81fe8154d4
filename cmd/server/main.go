package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"
	"valorant-missions/internal/config"
	"valorant-missions/internal/constants"
	fxmodules "valorant-missions/internal/fx"
	"valorant-missions/internal/server"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	apiServer *server.Server,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
