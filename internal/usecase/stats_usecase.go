package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/pkg/errors"
	"go.uber.org/zap"
)

// StatsUseCase обрабатывает бизнес-логику для статистики
type StatsUseCase struct {
	theftRepo repository.TheftRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewStatsUseCase создает новый экземпляр StatsUseCase
func NewStatsUseCase(
	theftRepo repository.TheftRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *StatsUseCase {
	return &StatsUseCase{
		theftRepo: theftRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// GetStatistics возвращает статистику, используя кеш когда возможно
func (uc *StatsUseCase) GetStatistics(ctx context.Context) (*domain.TheftStatistics, error) {
	gen, cacheable := cacheGeneration(ctx, uc.cacheRepo)
	key := generationKey(gen, "stats")

	// 1. Проверяем кеш
	if cacheable {
		cached, err := uc.cacheRepo.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("Failed to get stats from cache", zap.Error(err))
		}
		if cached != nil {
			var stats domain.TheftStatistics
			if err := json.Unmarshal(cached, &stats); err == nil {
				uc.logger.Debug("Statistics fetched from cache")
				return &stats, nil
			}
		}
	}

	// 2. Получаем из БД
	uc.logger.Debug("Fetching statistics from database")
	stats, err := uc.theftRepo.GetStatistics(ctx)
	if err != nil {
		uc.logger.Error("Failed to get statistics", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	// 3. Кешируем; ошибку не возвращаем, данные уже получены
	if cacheable {
		if data, err := json.Marshal(stats); err == nil {
			if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("Failed to cache stats", zap.Error(err))
			}
		}
	}

	return stats, nil
}
