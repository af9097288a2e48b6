package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/theft-heatmap/internal/domain/repository"
	"go.uber.org/zap"
)

// CachePrefix - префикс ключей кеша, зависящих от содержимого хранилища
const CachePrefix = "thefts:"

// CacheGenerationKey - номер поколения набора данных. Лежит вне CachePrefix,
// чтобы удаление по префиксу его не сбрасывало.
const CacheGenerationKey = "thefts_generation"

// cacheGeneration читает текущее поколение; отсутствие ключа - поколение 0.
// false означает, что кеш сейчас использовать нельзя.
func cacheGeneration(ctx context.Context, cache repository.CacheRepository) (int64, bool) {
	raw, err := cache.Get(ctx, CacheGenerationKey)
	if err != nil {
		return 0, false
	}
	if raw == nil {
		return 0, true
	}
	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return gen, true
}

// generationKey строит ключ записи внутри поколения. Запись, посчитанная по
// старым данным и сохраненная после InvalidateCache, попадает в старое
// поколение и больше не читается.
func generationKey(gen int64, name string) string {
	return fmt.Sprintf("%sg%d:%s", CachePrefix, gen, name)
}

// InvalidateCache сначала переключает поколение, затем удаляет старые записи.
// Возвращает число удаленных ключей.
func InvalidateCache(ctx context.Context, cache repository.CacheRepository, logger *zap.Logger) (int64, error) {
	gen, err := cache.Incr(ctx, CacheGenerationKey)
	if err != nil {
		return 0, fmt.Errorf("bump cache generation: %w", err)
	}
	deleted, err := cache.DeleteByPrefix(ctx, CachePrefix)
	if err != nil {
		// новое поколение уже действует, старые записи доживут до TTL
		logger.Warn("Failed to delete stale cache entries", zap.Int64("generation", gen), zap.Error(err))
		return 0, nil
	}
	logger.Debug("Cache generation bumped", zap.Int64("generation", gen), zap.Int64("keys_deleted", deleted))
	return deleted, nil
}
