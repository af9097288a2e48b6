package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theft-heatmap/internal/usecase"
)

func TestInvalidateCache_BumpsGenerationBeforeDelete(t *testing.T) {
	cache := newMemCache()
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "thefts:g0:recent:10", []byte(`[]`), 0))
	require.NoError(t, cache.Set(ctx, "other:key", []byte(`x`), 0))

	deleted, err := usecase.InvalidateCache(ctx, cache, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gen, err := cache.Get(ctx, usecase.CacheGenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "1", string(gen), "generation survives prefix deletion")

	other, err := cache.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.NotNil(t, other)

	_, err = usecase.InvalidateCache(ctx, cache, zap.NewNop())
	require.NoError(t, err)
	gen, err = cache.Get(ctx, usecase.CacheGenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "2", string(gen))
}

func TestInvalidateCache_GenerationFailure(t *testing.T) {
	cache := new(MockCacheRepository)
	ctx := context.Background()
	cache.On("Incr", ctx, usecase.CacheGenerationKey).Return(int64(0), errors.New("connection refused"))

	_, err := usecase.InvalidateCache(ctx, cache, zap.NewNop())

	assert.Error(t, err)
	cache.AssertNotCalled(t, "DeleteByPrefix", mock.Anything, mock.Anything)
}

func TestInvalidateCache_DeleteFailureIsNotFatal(t *testing.T) {
	cache := new(MockCacheRepository)
	ctx := context.Background()
	cache.On("Incr", ctx, usecase.CacheGenerationKey).Return(int64(5), nil)
	cache.On("DeleteByPrefix", ctx, usecase.CachePrefix).Return(int64(0), errors.New("timeout"))

	deleted, err := usecase.InvalidateCache(ctx, cache, zap.NewNop())

	assert.NoError(t, err)
	assert.Zero(t, deleted)
	cache.AssertExpectations(t)
}
