package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/landtube/landtube-go/internal/config"
	"github.com/landtube/landtube-go/internal/db"
	"github.com/landtube/landtube-go/internal/handler"
	"github.com/landtube/landtube-go/internal/middleware"
	"github.com/landtube/landtube-go/internal/repository"
	"github.com/landtube/landtube-go/internal/router"
	"github.com/landtube/landtube-go/internal/service"
	"github.com/landtube/landtube-go/internal/session"
	"github.com/landtube/landtube-go/internal/watchgate"
)

var version = "dev"

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "landtube-api")
	log := middleware.Logger

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, log.With().Str("component", "db").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL, log)
	defer cache.Close()
	cache.SetObserver(handler.ObserveCache)

	// Repositories
	listRepo := repository.NewListRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)

	// Services
	videoSvc := service.NewVideoService(videoRepo, cache, log)
	backend := service.NewReviewBackend(listRepo, reviewRepo, videoSvc, cache, log.With().Str("component", "backend").Logger())
	dashboardSvc := service.NewDashboardService(profileRepo, listRepo, cache, log.With().Str("component", "dashboard").Logger())

	sessions := session.NewManager(backend,
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithManagerLogger(log.With().Str("component", "session").Logger()),
		session.WithLoadObserver(func(p session.Phase) {
			handler.ObserveSessionLoaded(string(p))
		}),
		session.WithControllerOptions(
			session.WithWatchThreshold(cfg.WatchThresholdSeconds),
			session.WithTimeout(cfg.BackendTimeout),
			session.WithGateOptions(watchgate.WithUnlockHook(func(string) {
				handler.ObserveGateUnlock()
			})),
		),
	)
	defer sessions.CloseAll()

	handler.InitMetrics(pool, sessions.Len)
	go sessions.StartSweeper(ctx, cfg.SessionSweepInterval)

	app := fiber.New(fiber.Config{
		AppName:      "LandTube API",
		ServerHeader: "LandTube",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	router.Setup(app, &router.Handlers{
		Health:    handler.NewHealthHandler(pool, cache.Client(), sessions.Len, version),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, log),
		Session:   handler.NewSessionHandler(sessions, log),
	}, cfg.CORSOrigins, cfg.JWTSecret)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Str("version", version).Msg("LandTube API starting")
		if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sessions.StopSweeper()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
