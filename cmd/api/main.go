package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staffdesk/api/internal/cache"
	"staffdesk/api/internal/clock"
	"staffdesk/api/internal/config"
	"staffdesk/api/internal/database"
	"staffdesk/api/internal/handlers"
	"staffdesk/api/internal/jobs"
	"staffdesk/api/internal/log"
	"staffdesk/api/internal/repository"
	"staffdesk/api/internal/retention"
	"staffdesk/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	if cfg.Postgres.Migrate {
		if err := database.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	clk := clock.System()

	sweeper := retention.NewSweeper(
		repository.NewAttendanceRepository(dbPool),
		repository.NewTaskRepository(dbPool),
		redisClient,
		retention.Config{
			StaleSessionAge: cfg.Retention.StaleSessionAge,
			GraceMonths:     cfg.Retention.GraceMonths,
			LockTTL:         cfg.Retention.SweepLockTTL,
		},
		logger,
	)

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, cfg, clk, sweeper)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sweeper, clk, cfg.Retention, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
