package cache

import (
	"context"
	"time"

	"github.com/theft-heatmap/internal/domain/repository"
)

// noopCache используется при REDIS_ENABLED=false: всегда промах
type noopCache struct{}

func NewNoopCache() repository.CacheRepository {
	return noopCache{}
}

func (noopCache) Get(context.Context, string) ([]byte, error) { return nil, nil }

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noopCache) Delete(context.Context, string) error { return nil }

func (noopCache) DeleteByPrefix(context.Context, string) (int64, error) { return 0, nil }

func (noopCache) Incr(context.Context, string) (int64, error) { return 0, nil }
