package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	// maxStreamLen - приблизительный предел длины стрима (XADD MAXLEN ~)
	maxStreamLen = 1000
	readCount    = 10

	defaultPendingMinIdle = time.Minute
	defaultClaimInterval  = 30 * time.Second
)

type streamRepository struct {
	client         *redis.Client
	logger         *zap.Logger
	blockTimeout   time.Duration
	pendingMinIdle time.Duration
	claimInterval  time.Duration
}

// Option настраивает streamRepository
type Option func(*streamRepository)

// WithPendingClaim задает, через сколько простоя неподтвержденное сообщение
// забирается повторно (XAUTOCLAIM) и как часто это проверяется.
func WithPendingClaim(minIdle, interval time.Duration) Option {
	return func(r *streamRepository) {
		if minIdle > 0 {
			r.pendingMinIdle = minIdle
		}
		if interval > 0 {
			r.claimInterval = interval
		}
	}
}

// NewStreamRepository создает репозиторий стримов. blockTimeout - сколько
// XREADGROUP ждет новых сообщений за один вызов.
func NewStreamRepository(client *redis.Client, logger *zap.Logger, blockTimeout time.Duration, opts ...Option) repository.StreamRepository {
	if blockTimeout <= 0 {
		blockTimeout = time.Second
	}
	r := &streamRepository{
		client:         client,
		logger:         logger,
		blockTimeout:   blockTimeout,
		pendingMinIdle: defaultPendingMinIdle,
		claimInterval:  defaultClaimInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateConsumerGroup создаёт группу с позиции "$"; существующая группа не ошибка
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			r.logger.Debug("Consumer group already exists",
				zap.String("stream", stream),
				zap.String("group", group))
			return nil
		}
		r.logger.Error("Failed to create consumer group",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("Consumer group created",
		zap.String("stream", stream),
		zap.String("group", group))
	return nil
}

// ConsumeStream отдает сообщения группы до отмены ctx. Сначала отдаются
// неподтвержденные сообщения самого consumer, затем новые; раз в claimInterval
// через XAUTOCLAIM забираются сообщения, простаивающие дольше pendingMinIdle
// (в том числе свои и оставшиеся от упавших consumer). Канал закрывается при выходе.
func (r *streamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	out := make(chan domain.StreamMessage, readCount)
	logger := r.logger.With(
		zap.String("stream", stream),
		zap.String("group", group),
		zap.String("consumer", consumer))

	go func() {
		defer close(out)

		if !r.deliverOwnPending(ctx, logger, stream, group, consumer, out) {
			return
		}

		var lastClaim time.Time
		for ctx.Err() == nil {
			if time.Since(lastClaim) >= r.claimInterval {
				if !r.claimIdle(ctx, logger, stream, group, consumer, out) {
					return
				}
				lastClaim = time.Now()
			}

			result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    group,
				Consumer: consumer,
				Streams:  []string{stream, ">"},
				Count:    readCount,
				Block:    r.blockTimeout,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					break
				}
				logger.Error("Failed to read from stream", zap.Error(err))
				r.pause(ctx)
				continue
			}

			for _, s := range result {
				if !r.deliver(ctx, logger, stream, group, s.Messages, out) {
					return
				}
			}
		}

		logger.Info("Stream consumer stopped")
	}()

	return out, nil
}

// deliverOwnPending перечитывает PEL consumer с начала ("0"). Каждое сообщение
// отдается один раз за проход, повторная ошибка обработки не зацикливает чтение.
func (r *streamRepository) deliverOwnPending(ctx context.Context, logger *zap.Logger, stream, group, consumer string, out chan<- domain.StreamMessage) bool {
	start := "0"
	for ctx.Err() == nil {
		result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, start},
			Count:    readCount,
			Block:    -1,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return true
			}
			if ctx.Err() != nil {
				return false
			}
			// не удалось прочитать PEL: сообщения подберет XAUTOCLAIM
			logger.Error("Failed to read pending messages", zap.Error(err))
			return true
		}

		delivered := 0
		for _, s := range result {
			if len(s.Messages) == 0 {
				continue
			}
			if !r.deliver(ctx, logger, stream, group, s.Messages, out) {
				return false
			}
			delivered += len(s.Messages)
			start = s.Messages[len(s.Messages)-1].ID
		}
		if delivered == 0 {
			return true
		}
		logger.Info("Redelivered pending messages", zap.Int("count", delivered))
	}
	return false
}

// claimIdle забирает на consumer все сообщения группы, простаивающие дольше pendingMinIdle
func (r *streamRepository) claimIdle(ctx context.Context, logger *zap.Logger, stream, group, consumer string, out chan<- domain.StreamMessage) bool {
	start := "0-0"
	for ctx.Err() == nil {
		messages, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    group,
			MinIdle:  r.pendingMinIdle,
			Start:    start,
			Count:    readCount,
			Consumer: consumer,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			logger.Error("Failed to claim idle messages", zap.Error(err))
			return true
		}

		if len(messages) > 0 {
			logger.Info("Claimed idle messages", zap.Int("count", len(messages)))
			if !r.deliver(ctx, logger, stream, group, messages, out) {
				return false
			}
		}
		if next == "0-0" || next == "" {
			return true
		}
		start = next
	}
	return false
}

// deliver отправляет сообщения в канал. Записи без поля data (в том числе
// удаленные из стрима обрезкой) подтверждаются сразу, иначе висят в PEL вечно.
func (r *streamRepository) deliver(ctx context.Context, logger *zap.Logger, stream, group string, messages []redis.XMessage, out chan<- domain.StreamMessage) bool {
	for _, msg := range messages {
		data, ok := msg.Values["data"].(string)
		if !ok {
			logger.Warn("Message has no data field, acking", zap.String("message_id", msg.ID))
			if err := r.client.XAck(ctx, stream, group, msg.ID).Err(); err != nil && ctx.Err() == nil {
				logger.Error("Failed to ack empty message", zap.String("message_id", msg.ID), zap.Error(err))
			}
			continue
		}

		select {
		case out <- domain.StreamMessage{ID: msg.ID, Data: data}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (r *streamRepository) pause(ctx context.Context) {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
}

// AckMessage подтверждает обработку сообщения
func (r *streamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	if err := r.client.XAck(ctx, stream, group, messageID).Err(); err != nil {
		r.logger.Error("Failed to acknowledge message",
			zap.String("stream", stream),
			zap.String("group", group),
			zap.String("message_id", messageID),
			zap.Error(err))
		return fmt.Errorf("failed to acknowledge message: %w", err)
	}
	return nil
}

// PublishToStream сериализует data в JSON и кладет в поле "data"
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(payload)},
	}).Result()
	if err != nil {
		r.logger.Error("Failed to publish to stream",
			zap.String("stream", stream),
			zap.Error(err))
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("Message published to stream",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}
