package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/domcapture-service/internal/adapter/cdp"
	"github.com/user/domcapture-service/internal/adapter/memory"
	"github.com/user/domcapture-service/internal/adapter/postgres"
	redis_adapter "github.com/user/domcapture-service/internal/adapter/redis"
	"github.com/user/domcapture-service/internal/delivery/http/handler"
	"github.com/user/domcapture-service/internal/delivery/http/router"
	"github.com/user/domcapture-service/internal/repository"
	"github.com/user/domcapture-service/internal/usecase"
	"github.com/user/domcapture-service/pkg/config"
	"github.com/user/domcapture-service/pkg/logger"
	"github.com/user/domcapture-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx := context.Background()

	// --- PostgreSQL ---
	pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	dbpool, err := pgxpool.New(ctx, pgConnString)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	slog.Info("PostgreSQL connection pool established")

	// --- Capture cache ---
	var cache repository.CaptureCacheRepository
	switch cfg.CacheBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		cache = redis_adapter.NewCacheRepo(rdb, cfg.CacheTTL)
		slog.Info("Redis capture cache established", "addr", cfg.RedisAddr)
	default:
		cache = memory.NewCacheRepo(cfg.CacheSize, cfg.CacheTTL)
		slog.Info("In-memory capture cache initialized", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	// --- Capture agent ---
	agent, err := cdp.NewAgent(cfg.DevToolsURL)
	if err != nil {
		slog.Error("Unable to attach to browser", "url", cfg.DevToolsURL, "error", err)
		os.Exit(1)
	}
	defer agent.Close()
	slog.Info("Capture agent attached", "url", cfg.DevToolsURL)

	// --- Repositories / Use Cases ---
	archiveRepo := postgres.NewArchiveRepo(dbpool)
	orchestrator := usecase.NewCaptureUseCase(agent, cache, archiveRepo)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(orchestrator)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("Starting server", "port", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
		os.Exit(1)
	}
}
