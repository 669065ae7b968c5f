package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/taskmaster/backend/internal/account"
	"github.com/taskmaster/backend/internal/config"
	"github.com/taskmaster/backend/internal/daily"
	"github.com/taskmaster/backend/internal/ledger"
	"github.com/taskmaster/backend/internal/player"
	"github.com/taskmaster/backend/internal/repository"
	"github.com/taskmaster/backend/internal/rewards"
	"github.com/taskmaster/backend/internal/settlement"
	"github.com/taskmaster/backend/internal/tasks"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	pointRepo := repository.NewPointRepo(pool)
	dailyRepo := repository.NewDailyChallengeRepo(pool)
	playerRepo := repository.NewPlayerChallengeRepo(pool)

	// Ledger: the single mutation path for every balance
	ledgerSvc := ledger.NewService(userRepo, pointRepo)

	// Domain services
	taskSvc := tasks.NewService(pool, taskRepo, ledgerSvc, logger)
	dailySvc := daily.NewService(pool, dailyRepo, taskRepo, ledgerSvc, logger)
	playerSvc := player.NewService(pool, playerRepo, taskRepo, ledgerSvc, logger)
	rewardSvc := rewards.NewService(pool, ledgerSvc)

	// Settlement sweep worker
	workers := river.NewWorkers()
	river.AddWorker(workers, settlement.NewSweepWorker(dailySvc, playerSvc, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.SweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return settlement.SweepJobArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	// Handlers
	accountHandler := account.NewHandler(userRepo, pointRepo, logger)
	taskHandler := tasks.NewHandler(taskSvc, logger)
	dailyHandler := daily.NewHandler(dailySvc, logger)
	playerHandler := player.NewHandler(playerSvc, logger)
	rewardHandler := rewards.NewHandler(rewardSvc, logger)

	mux := NewRouter([]byte(cfg.JWTSecret), accountHandler, taskHandler, dailyHandler, playerHandler, rewardHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (runs the settlement sweep)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr, "sweep_interval", cfg.SweepInterval)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
