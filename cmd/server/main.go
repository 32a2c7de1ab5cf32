// Command server runs the movies API.
//
// @title       Movies API
// @version     1.0
// @description In-memory movie catalog with validated create/update, genre filtering and a CORS allow-list.
// @license.name MIT
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-movies-api/docs"
	"github.com/tbourn/go-movies-api/internal/config"
	httpapi "github.com/tbourn/go-movies-api/internal/http"
	"github.com/tbourn/go-movies-api/internal/observability"
	"github.com/tbourn/go-movies-api/internal/repo"
	"github.com/tbourn/go-movies-api/internal/services"
	"github.com/tbourn/go-movies-api/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const purgeInterval = 10 * time.Minute

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appVersion); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, appVersion string) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	seed, err := repo.LoadMovies(cfg.DataPath)
	if err != nil {
		return err
	}
	store := repo.NewMovieStore(seed)
	log.Info().Int("movies", len(seed)).Str("path", cfg.DataPath).Msg("seed loaded")

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	go purgeIdempotency(ctx, db, purgeInterval)

	svc := services.NewMovieService(store, db, cfg.IdempotencyTTL)

	docs.SwaggerInfo.Version = appVersion
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	r := gin.New()
	httpapi.RegisterRoutes(r, svc, db, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", "http://localhost"+cfg.Addr()).
			Str("version", appVersion).
			Strs("cors_origins", cfg.CORS.AllowedOrigins).
			Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutdown signal received, draining")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// purgeIdempotency deletes expired idempotency records every interval until
// ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged expired idempotency records")
			}
		}
	}
}
