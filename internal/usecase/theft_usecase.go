package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/pkg/errors"
	"github.com/theft-heatmap/internal/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 5000
	MinLimit     = 1
	MaxLimit     = 50000
)

// TheftUseCase - чтение набора для Query Service
type TheftUseCase struct {
	theftRepo repository.TheftRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewTheftUseCase создает новый экземпляр TheftUseCase
func NewTheftUseCase(
	theftRepo repository.TheftRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *TheftUseCase {
	return &TheftUseCase{
		theftRepo: theftRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// ListRecent возвращает до limit точек, новые первыми. Лимит вне [1, 50000]
// отклоняется до обращения к хранилищу.
func (uc *TheftUseCase) ListRecent(ctx context.Context, limit int) ([]domain.TheftPoint, error) {
	if limit < MinLimit || limit > MaxLimit {
		return nil, errors.ErrInvalidLimit.WithDetails(map[string]interface{}{"limit": limit})
	}

	gen, cacheable := cacheGeneration(ctx, uc.cacheRepo)
	if !cacheable {
		uc.logger.Warn("Cache unavailable, reading thefts from store")
	}
	key := generationKey(gen, fmt.Sprintf("recent:%d", limit))

	// 1. Проверяем кеш
	if cacheable {
		cached, err := uc.cacheRepo.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("Failed to get thefts from cache", zap.Error(err))
		}
		if cached != nil {
			var points []domain.TheftPoint
			if err := json.Unmarshal(cached, &points); err == nil {
				metrics.CacheHitsTotal.Inc()
				uc.logger.Debug("Thefts fetched from cache", zap.Int("limit", limit))
				return points, nil
			}
			uc.logger.Warn("Corrupted cache entry, falling back to store", zap.String("key", key))
		}
	}
	metrics.CacheMissesTotal.Inc()

	// 2. Читаем из хранилища
	points, err := uc.theftRepo.ListRecent(ctx, limit)
	if err != nil {
		uc.logger.Error("Failed to list thefts", zap.Int("limit", limit), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	// 3. Кешируем в поколение, прочитанное до обращения к хранилищу
	if cacheable {
		if data, err := json.Marshal(points); err == nil {
			if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("Failed to cache thefts", zap.Error(err))
			}
		}
	}

	return points, nil
}
