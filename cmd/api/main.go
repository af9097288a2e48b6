package main

// @title Theft Heatmap API
// @version 1.0.0
// @description Выдача точек краж (Theft Over, Toronto Police open data) внутри
// @description полигона кампуса для тепловой карты фронтенда.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/theft-heatmap/docs/swagger"
	"github.com/theft-heatmap/internal/config"
	httpDelivery "github.com/theft-heatmap/internal/delivery/http"
	"github.com/theft-heatmap/internal/delivery/http/handler"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/pkg/logger"
	"github.com/theft-heatmap/internal/repository/cache"
	redisRepo "github.com/theft-heatmap/internal/repository/redis"
	"github.com/theft-heatmap/internal/repository/sqldb"
	"github.com/theft-heatmap/internal/usecase"
	"github.com/theft-heatmap/internal/worker"
	"github.com/theft-heatmap/internal/worker/cacheinvalidation"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Theft Heatmap API",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	// 3. Connect to database
	db, err := sqldb.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	checks := map[string]handler.HealthChecker{"database": db}

	// 4. Redis (optional): cache + stream consumer
	var (
		cacheRepo     repository.CacheRepository = cache.NewNoopCache()
		redisClient   *cache.Redis
		workerManager *worker.WorkerManager
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cacheRepo = cache.NewCacheRepository(redisClient)
		checks["redis"] = redisClient

		streamRepo := redisRepo.NewStreamRepository(
			redisClient.Client(),
			log,
			cfg.Worker.StreamReadTimeout,
			redisRepo.WithPendingClaim(cfg.Worker.PendingMinIdle, cfg.Worker.ClaimInterval),
		)
		workerManager = worker.NewWorkerManager(log)
		workerManager.Register(cacheinvalidation.New(
			streamRepo,
			cacheRepo,
			cfg.Worker.ConsumerGroup,
			log,
		))
	} else {
		log.Info("Redis disabled, response cache is off")
	}

	// 5. Use cases
	theftRepo := sqldb.NewTheftRepository(db, cfg.Ingest.BatchSize)
	theftUC := usecase.NewTheftUseCase(theftRepo, cacheRepo, log, cfg.Cache.TheftsCacheTTL)
	statsUC := usecase.NewStatsUseCase(theftRepo, cacheRepo, log, cfg.Cache.StatsCacheTTL)

	if count, err := theftRepo.Count(context.Background()); err == nil {
		log.Info("Store opened", zap.Int("thefts", count))
	}

	// 6. HTTP server
	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewTheftHandler(theftUC, log),
		handler.NewStatsHandler(statsUC, log),
		handler.NewHealthHandler(checks, log),
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if workerManager != nil {
		if err := workerManager.Start(workerCtx); err != nil {
			log.Fatal("Failed to start workers", zap.Error(err))
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if workerManager != nil {
		if err := workerManager.Stop(); err != nil {
			log.Error("Workers shutdown error", zap.Error(err))
		}
	}
	stopWorkers()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	if err := db.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
