package repository

import (
	"context"

	"github.com/theft-heatmap/internal/domain"
)

// TheftRepository - хранилище точек краж (Point Store)
type TheftRepository interface {
	// ReplaceAll атомарно заменяет всё содержимое: удаление и вставка в одной транзакции.
	// Возвращает количество вставленных строк.
	ReplaceAll(ctx context.Context, points []domain.TheftPoint) (int, error)

	// ListRecent возвращает до limit точек, новые первыми
	ListRecent(ctx context.Context, limit int) ([]domain.TheftPoint, error)

	// Count возвращает количество сохраненных точек
	Count(ctx context.Context) (int, error)

	// GetStatistics возвращает агрегаты по текущему набору
	GetStatistics(ctx context.Context) (*domain.TheftStatistics, error)
}
