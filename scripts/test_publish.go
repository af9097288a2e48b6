//go:build ignore

// Публикует тестовое IngestionCompletedEvent и ждет, пока воркер API
// подтвердит его. Запуск: go run scripts/test_publish.go -redis localhost:6379
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/theft-heatmap/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	group := flag.String("group", "thefts-cache-invalidation", "consumer group of the API worker")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// ключ-маркер: воркер должен удалить его вместе с остальным кешем
	marker := "thefts:test-publish:" + uuid.NewString()
	if err := client.Set(ctx, marker, "1", time.Minute).Err(); err != nil {
		log.Fatalf("Failed to set marker key: %v", err)
	}

	event := domain.IngestionCompletedEvent{
		RunID:       uuid.NewString(),
		Accepted:    1,
		Stored:      1,
		CompletedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamTheftsIngested,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published: stream=%s id=%s run_id=%s\n", domain.StreamTheftsIngested, id, event.RunID)
	fmt.Printf("Waiting for group %q to ack...\n", *group)

	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			fmt.Println("Timeout: is the API running with REDIS_ENABLED=true?")
			return
		case <-ticker.C:
			groups, err := client.XInfoGroups(ctx, domain.StreamTheftsIngested).Result()
			if err != nil {
				continue
			}
			for _, g := range groups {
				if g.Name != *group || g.LastDeliveredID < id || g.Pending > 0 {
					continue
				}
				exists, _ := client.Exists(ctx, marker).Result()
				fmt.Printf("Acked. Marker key removed: %v\n", exists == 0)
				return
			}
		}
	}
}
