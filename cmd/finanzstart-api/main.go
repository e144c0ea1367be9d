package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finanzstart/internal/api"
	"finanzstart/internal/config"
	"finanzstart/internal/db"
	"finanzstart/internal/game"
	"finanzstart/internal/janitor"
	"finanzstart/internal/journal"
	"finanzstart/internal/leaderboard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) error {
	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var journals game.JournalFactory
	if cfg.JournalDir != "" {
		if err := os.MkdirAll(cfg.JournalDir, 0o755); err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
		journals = journal.Factory(cfg.JournalDir)
	}

	board, closeBoard, err := openLeaderboard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBoard()

	gameSvc := game.NewService(catalog, journals, logger)
	defer func() {
		if err := gameSvc.Close(); err != nil {
			logger.Warn("close sessions", "err", err)
		}
	}()

	jan := janitor.New(janitor.Config{
		Schedule:         cfg.SweepSchedule,
		SessionIdleTTL:   cfg.SessionIdleTTL,
		JournalDir:       cfg.JournalDir,
		JournalRetention: cfg.JournalRetention,
	}, gameSvc, logger)
	if err := jan.Start(); err != nil {
		return err
	}
	defer jan.Stop()

	server := api.New(logger, gameSvc, board)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("finanzstart api listening", "addr", cfg.Addr, "leaderboard", string(cfg.Leaderboard))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openLeaderboard(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) (leaderboard.Store, func(), error) {
	switch cfg.Leaderboard {
	case config.BackendSQLite:
		store, err := leaderboard.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close sqlite leaderboard", "err", err)
			}
		}, nil
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := leaderboard.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return leaderboard.NewMemoryStore(), func() {}, nil
	}
}
