package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventorypro/internal/config"
	"inventorypro/internal/infra"
	"inventorypro/internal/repository"
	"inventorypro/internal/router"
	"inventorypro/internal/service"
	"inventorypro/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	// Structured logger: pretty in development, JSON in production.
	infra.SetupLogger(infra.LoggerConfig{Level: cfg.LogLevel, Pretty: !cfg.IsProduction(), File: cfg.LogFile})

	users, err := config.LoadUsers(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load user directory")
	}
	threshold, err := cfg.Threshold()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid justification threshold")
	}

	// ── Optional backends ────────────────────────────────────────────────────
	var db *gorm.DB
	history := repository.NewMemoryShiftHistory()
	if cfg.DatabaseURL != "" {
		db, err = infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		history = repository.NewShiftHistoryRepository(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, shift history is kept in memory")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	} else {
		log.Warn().Msg("REDIS_URL not set, shift snapshots and reports are disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Services ─────────────────────────────────────────────────────────────
	directory := service.NewUserDirectory(users)
	shiftCfg := service.ShiftConfig{JustificationThreshold: threshold}
	if rdb != nil {
		dispatcher := worker.NewDispatcher(rdb)
		shiftCfg.Snapshotter = infra.NewShiftSnapshotStore(rdb, 24*time.Hour)
		shiftCfg.Reporter = dispatcher

		// Worker handlers are wired here (composition root) so that the pool
		// has full access to all infrastructure dependencies.
		pool := worker.NewPool(dispatcher)
		pool.Register(worker.QueueShiftReport, worker.JobShiftReport,
			worker.NewShiftReportWorker(cfg.ReportStoragePath, cfg.StoreName, cfg.ReportEmail, dispatcher))
		if mailer := infra.NewMailer(cfg); mailer.Configured() {
			pool.Register(worker.QueueEmail, worker.JobEmail, worker.NewEmailWorker(mailer))
		}
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	shifts := service.NewShiftService(directory, history, shiftCfg)
	if restored, err := shifts.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore shift snapshot")
	} else if restored != nil {
		log.Info().Str("shift_id", restored.ID.String()).Msg("resuming open shift")
	}

	repos := service.NewLedgerRepositories()
	gate := service.NewGateService(directory, shifts, repos.Expenses, time.Duration(cfg.AuthorizationTTLSeconds)*time.Second)
	deps := router.Deps{
		DB:     db,
		Redis:  rdb,
		Shifts: shifts,
		Auth:   service.NewAuthService(directory, cfg.JWTSecret, cfg.JWTExpirationHours),
		POS:    service.NewPOSService(repos.Products, repos.Packs, repos.Sales, repos.Credits, repos.Refunds, shifts, gate),
		Gate:   gate,
		Ledger: service.NewLedgerService(repos, shifts),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.New(cfg, deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("register listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
