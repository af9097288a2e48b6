// Package cacheinvalidation сбрасывает кеш выдачи API после каждого прогона
// загрузки, даже если загрузка шла из другого процесса.
package cacheinvalidation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/usecase"
	"github.com/theft-heatmap/internal/worker"
	"go.uber.org/zap"
)

const workerName = "cache-invalidation"

// Worker слушает stream:thefts:ingested и переключает поколение кеша выдачи
type Worker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	cacheRepo  repository.CacheRepository
}

func New(
	streamRepo repository.StreamRepository,
	cacheRepo repository.CacheRepository,
	consumerGroup string,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		BaseWorker: worker.NewBaseWorker(workerName, consumerGroup, logger),
		streamRepo: streamRepo,
		cacheRepo:  cacheRepo,
	}
}

// Start блокирует до Stop или отмены ctx
func (w *Worker) Start(ctx context.Context) error {
	logger := w.Logger()

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamTheftsIngested, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.StopChan():
			cancel()
		case <-runCtx.Done():
		}
	}()

	messages, err := w.streamRepo.ConsumeStream(runCtx, domain.StreamTheftsIngested, w.ConsumerGroup(), w.ConsumerName())
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	logger.Info("Cache invalidation worker started",
		zap.String("stream", domain.StreamTheftsIngested),
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()))

	for msg := range messages {
		w.handle(runCtx, msg)
	}

	logger.Info("Cache invalidation worker stopped")
	return nil
}

// handle сбрасывает кеш и подтверждает сообщение. При ошибке redis сообщение
// остается в pending и будет доставлено повторно.
func (w *Worker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	var event domain.IngestionCompletedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		// битое событие все равно означает, что набор мог смениться
		logger.Warn("Malformed ingestion event", zap.Error(err))
	}

	deleted, err := usecase.InvalidateCache(ctx, w.cacheRepo, logger)
	if err != nil {
		logger.Error("Failed to invalidate cache", zap.Error(err))
		return
	}

	if err := w.streamRepo.AckMessage(ctx, domain.StreamTheftsIngested, w.ConsumerGroup(), msg.ID); err != nil {
		logger.Error("Failed to ack message", zap.Error(err))
		return
	}

	logger.Info("Cache invalidated after ingestion",
		zap.String("run_id", event.RunID),
		zap.Int("stored", event.Stored),
		zap.Int64("keys_deleted", deleted))
}
