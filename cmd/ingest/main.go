// Command ingest загружает CSV выгрузку краж, оставляет точки внутри полигона,
// полностью заменяет ими хранилище и пишет JSON снимок для фронтенда.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/theft-heatmap/internal/config"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/infrastructure/csvsource"
	"github.com/theft-heatmap/internal/pkg/geo"
	"github.com/theft-heatmap/internal/pkg/logger"
	"github.com/theft-heatmap/internal/repository/cache"
	redisRepo "github.com/theft-heatmap/internal/repository/redis"
	"github.com/theft-heatmap/internal/repository/snapshot"
	"github.com/theft-heatmap/internal/repository/sqldb"
	"github.com/theft-heatmap/internal/usecase"
	"go.uber.org/zap"
)

func bindFlags(fs *pflag.FlagSet) (noExport *bool, err error) {
	fs.String("csv", "", "path to the theft CSV export (INGEST_CSV_PATH)")
	fs.String("polygon", "", `polygon vertices "lng,lat;lng,lat;..." (INGEST_POLYGON)`)
	fs.String("polygon-file", "", "GeoJSON file with the polygon (INGEST_POLYGON_FILE)")
	fs.String("export", "", "frontend snapshot path (INGEST_EXPORT_PATH)")
	noExport = fs.Bool("no-export", false, "skip writing the frontend snapshot")

	for key, name := range map[string]string{
		"INGEST_CSV_PATH":     "csv",
		"INGEST_POLYGON":      "polygon",
		"INGEST_POLYGON_FILE": "polygon-file",
		"INGEST_EXPORT_PATH":  "export",
	} {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return noExport, nil
}

func main() {
	noExport, err := bindFlags(pflag.CommandLine)
	if err != nil {
		panic(err)
	}
	pflag.Parse()

	// 1. Load configuration (flags override env and .env)
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *noExport {
		cfg.Ingest.ExportPath = ""
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "ingest")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total, err := run(ctx, cfg, log)
	if err != nil {
		var inErr *usecase.InputSourceError
		var txErr *usecase.StoreTransactionError
		switch {
		case errors.As(err, &inErr):
			log.Error("Input source unreadable, store untouched", zap.Error(err))
		case errors.As(err, &txErr):
			log.Error("Replace failed, previous data kept", zap.Error(err))
		default:
			log.Error("Ingestion failed", zap.Error(err))
		}
		_ = log.Sync()
		os.Exit(1)
	}

	fmt.Printf("Loaded %d theft records into %s.\n", total, cfg.Database.Driver)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) (int, error) {
	fs := afero.NewOsFs()

	polygon, err := geo.Resolve(fs, cfg.Ingest.PolygonFile, cfg.Ingest.Polygon)
	if err != nil {
		return 0, fmt.Errorf("resolve polygon: %w", err)
	}

	db, err := sqldb.New(&cfg.Database, log)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var (
		cacheRepo  repository.CacheRepository = cache.NewNoopCache()
		streamRepo repository.StreamRepository
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			// кеш и события не обязательны для загрузки
			log.Warn("Redis unavailable, skipping cache invalidation", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = cache.NewCacheRepository(redisClient)
			streamRepo = redisRepo.NewStreamRepository(redisClient.Client(), log, cfg.Worker.StreamReadTimeout)
		}
	}

	ingestion := usecase.NewIngestionUseCase(
		sqldb.NewTheftRepository(db, cfg.Ingest.BatchSize),
		cacheRepo,
		streamRepo,
		snapshot.NewJSONExporter(fs, cfg.Ingest.ExportPath, log),
		usecase.NewRecordParser(usecase.DefaultColumns),
		log,
	)

	src := csvsource.NewSource(fs, cfg.Ingest.CSVPath, usecase.DefaultColumns.RequiredColumns(), log)
	log.Info("Reading source", zap.String("path", src.Path()))

	result, err := ingestion.RunSource(ctx, src, polygon)
	if err != nil {
		return 0, err
	}
	return result.Stored, nil
}
