package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу, промах - (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix удаляет все ключи с префиксом, возвращает число удаленных
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)

	// Incr атомарно увеличивает счетчик (отсутствующий ключ считается 0)
	Incr(ctx context.Context, key string) (int64, error)
}
