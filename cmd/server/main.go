package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskforge/backoffice/internal/api"
	"github.com/taskforge/backoffice/internal/auth"
	"github.com/taskforge/backoffice/internal/core/service"
	"github.com/taskforge/backoffice/internal/infrastructure/config"
	mongodb "github.com/taskforge/backoffice/internal/infrastructure/db/mongo"
	redisdb "github.com/taskforge/backoffice/internal/infrastructure/db/redis"
	"github.com/taskforge/backoffice/internal/infrastructure/queue"
	"github.com/taskforge/backoffice/pkg/logger"

	_ "github.com/taskforge/backoffice/docs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; this is the one place the stdlib logger speaks.
		log.Fatalf("configuration error: %v", err)
	}

	logg := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	codec, err := auth.NewCodec(cfg.JWTSecret)
	if err != nil {
		logg.Fatal().Err(err).Msg("token codec init failed")
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		logg.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient); err != nil {
			logg.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		logg.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	userRepo := mongodb.NewUserRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logg.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := taskRepo.EnsureIndexes(ctx); err != nil {
		logg.Fatal().Err(err).Msg("task index creation failed")
	}

	// --- Audit pipeline ---
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, logg)
	dispatcher.Start(ctx)

	// --- Core services ---
	sessions := redisdb.NewSessionTracker(rdb)
	userService := service.NewUserService(userRepo, hasher, codec, sessions, dispatcher, logg, service.UserServiceConfig{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		StoreTimeout:    cfg.StoreTimeout,
	})
	taskService := service.NewTaskService(taskRepo, userRepo, dispatcher, logg)

	// --- HTTP surface ---
	e := api.NewRouter(api.RouterConfig{
		Users:  userService,
		Tasks:  taskService,
		Codec:  codec,
		Mongo:  db,
		Redis:  rdb,
		Logger: logg,
	})

	go func() {
		logg.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logg.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
	logg.Info().Msg("server exited")
}
