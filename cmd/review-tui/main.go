package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/landtube/landtube-go/internal/config"
	"github.com/landtube/landtube-go/internal/db"
	"github.com/landtube/landtube-go/internal/middleware"
	"github.com/landtube/landtube-go/internal/repository"
	"github.com/landtube/landtube-go/internal/service"
	"github.com/landtube/landtube-go/internal/session"
	"github.com/landtube/landtube-go/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "review-tui:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("review-tui", flag.ContinueOnError)
	user := fs.String("user", "", "user id (UUID) to review as")
	logFile := fs.String("log-file", "", "write JSON logs to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID, errMsg := middleware.ValidateUserID(*user)
	if errMsg != "" {
		return fmt.Errorf("--user: %s", errMsg)
	}

	cfg := config.Load()
	if os.Getenv("DATABASE_URL") == "" {
		return errors.New("DATABASE_URL is required")
	}

	// The terminal belongs to the UI, so logs only go to a file when asked.
	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "landtube-tui").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, log)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	cache := service.NewCacheService(os.Getenv("REDIS_URL"), log)
	defer cache.Close()

	videos := service.NewVideoService(repository.NewVideoRepo(pool), cache, log)
	backend := service.NewReviewBackend(
		repository.NewListRepo(pool),
		repository.NewReviewRepo(pool),
		videos, cache, log,
	)

	ctrl := session.NewController(backend, userID,
		session.WithWatchThreshold(cfg.WatchThresholdSeconds),
		session.WithTimeout(cfg.BackendTimeout),
		session.WithLogger(log),
	)
	defer ctrl.Close()

	p := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
