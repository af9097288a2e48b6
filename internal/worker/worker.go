// Package worker содержит фоновые обработчики, которые живут вместе с API
// процессом: общий BaseWorker и WorkerManager для запуска и остановки.
package worker

import (
	"context"
)

// Worker интерфейс для всех воркеров
type Worker interface {
	// Start блокирует до остановки воркера или отмены ctx
	Start(ctx context.Context) error

	// Stop сигнализирует воркеру завершиться; повторный вызов безопасен
	Stop() error

	// Name возвращает имя воркера
	Name() string
}
