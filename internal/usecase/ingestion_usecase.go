package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/pkg/geo"
	"github.com/theft-heatmap/internal/pkg/metrics"
	"go.uber.org/zap"
)

// RowSource - входной табличный источник
type RowSource interface {
	ReadAll(ctx context.Context) ([]domain.RawRow, error)
}

// InputSourceError - источник отсутствует или не читается. Хранилище не тронуто.
type InputSourceError struct {
	Err error
}

func (e *InputSourceError) Error() string { return "input source: " + e.Err.Error() }
func (e *InputSourceError) Unwrap() error { return e.Err }

// StoreTransactionError - транзакция замены не прошла и откатилась
type StoreTransactionError struct {
	Err error
}

func (e *StoreTransactionError) Error() string { return "replace transaction: " + e.Err.Error() }
func (e *StoreTransactionError) Unwrap() error { return e.Err }

// FilterResult - точки, прошедшие разбор и геофильтр, в исходном порядке
type FilterResult struct {
	Points         []domain.TheftPoint
	RowsRead       int
	SkippedParse   int
	SkippedOutside int
}

// IngestionUseCase - конвейер загрузки: разбор -> геофильтр -> полная замена
// набора в хранилище -> снимок для фронтенда. Одновременные прогоны не
// поддерживаются.
type IngestionUseCase struct {
	theftRepo  repository.TheftRepository
	cacheRepo  repository.CacheRepository
	streamRepo repository.StreamRepository
	exporter   repository.SnapshotExporter
	parser     *RecordParser
	logger     *zap.Logger
}

// NewIngestionUseCase создает конвейер. streamRepo и exporter могут быть nil.
func NewIngestionUseCase(
	theftRepo repository.TheftRepository,
	cacheRepo repository.CacheRepository,
	streamRepo repository.StreamRepository,
	exporter repository.SnapshotExporter,
	parser *RecordParser,
	logger *zap.Logger,
) *IngestionUseCase {
	return &IngestionUseCase{
		theftRepo:  theftRepo,
		cacheRepo:  cacheRepo,
		streamRepo: streamRepo,
		exporter:   exporter,
		parser:     parser,
		logger:     logger,
	}
}

// Filter разбирает строки и оставляет только попавшие в полигон
func (uc *IngestionUseCase) Filter(rows []domain.RawRow, polygon geo.Polygon) FilterResult {
	result := FilterResult{
		Points:   make([]domain.TheftPoint, 0),
		RowsRead: len(rows),
	}

	for i, row := range rows {
		point, ok := uc.parser.Parse(row)
		if !ok {
			result.SkippedParse++
			if ce := uc.logger.Check(zap.DebugLevel, "Row skipped: invalid coordinates"); ce != nil {
				ce.Write(zap.Int("row", i+1))
			}
			continue
		}

		if !polygon.Contains(point.Lat, point.Lng) {
			result.SkippedOutside++
			continue
		}

		result.Points = append(result.Points, *point)
	}

	return result
}

// RunSource читает источник целиком и выполняет Run. Ошибка чтения
// возвращается как InputSourceError до любых изменений в хранилище.
func (uc *IngestionUseCase) RunSource(ctx context.Context, src RowSource, polygon geo.Polygon) (*domain.IngestionResult, error) {
	rows, err := src.ReadAll(ctx)
	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues("input_error").Inc()
		return nil, &InputSourceError{Err: err}
	}
	return uc.Run(ctx, rows, polygon)
}

// Run выполняет один прогон загрузки. Пустой результат фильтрации тоже
// заменяет набор: хранилище остается пустым.
func (uc *IngestionUseCase) Run(ctx context.Context, rows []domain.RawRow, polygon geo.Polygon) (*domain.IngestionResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := uc.logger.With(zap.String("run_id", runID))

	if err := polygon.Validate(); err != nil {
		metrics.IngestRunsTotal.WithLabelValues("invalid_polygon").Inc()
		return nil, fmt.Errorf("invalid polygon: %w", err)
	}

	bound := polygon.Bound()
	logger.Info("Ingestion started",
		zap.Int("rows", len(rows)),
		zap.Int("polygon_vertices", len(polygon)),
		zap.Float64s("polygon_bounds", []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}))

	filtered := uc.Filter(rows, polygon)

	metrics.IngestRowsRead.Add(float64(filtered.RowsRead))
	metrics.IngestRowsAccepted.Add(float64(len(filtered.Points)))
	metrics.IngestRowsSkipped.WithLabelValues("parse").Add(float64(filtered.SkippedParse))
	metrics.IngestRowsSkipped.WithLabelValues("outside").Add(float64(filtered.SkippedOutside))

	replaceStart := time.Now()
	stored, err := uc.theftRepo.ReplaceAll(ctx, filtered.Points)
	metrics.ReplaceDurationMs.Observe(float64(time.Since(replaceStart).Milliseconds()))
	if err != nil {
		metrics.IngestRunsTotal.WithLabelValues("store_error").Inc()
		logger.Error("Replace transaction failed, store left unchanged", zap.Error(err))
		return nil, &StoreTransactionError{Err: err}
	}

	result := &domain.IngestionResult{
		RunID:          runID,
		Points:         filtered.Points,
		RowsRead:       filtered.RowsRead,
		Accepted:       len(filtered.Points),
		Stored:         stored,
		SkippedParse:   filtered.SkippedParse,
		SkippedOutside: filtered.SkippedOutside,
	}

	// Всё ниже - best effort: данные уже зафиксированы
	uc.invalidateCache(ctx, logger)
	result.Exported = uc.export(ctx, logger, filtered.Points)
	uc.publish(ctx, logger, result)

	result.Duration = time.Since(start)
	metrics.IngestRunsTotal.WithLabelValues("success").Inc()

	logger.Info("Ingestion completed",
		zap.Int("rows_read", result.RowsRead),
		zap.Int("accepted", result.Accepted),
		zap.Int("stored", result.Stored),
		zap.Int("skipped_parse", result.SkippedParse),
		zap.Int("skipped_outside", result.SkippedOutside),
		zap.Bool("exported", result.Exported),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (uc *IngestionUseCase) invalidateCache(ctx context.Context, logger *zap.Logger) {
	if uc.cacheRepo == nil {
		return
	}
	deleted, err := InvalidateCache(ctx, uc.cacheRepo, logger)
	if err != nil {
		logger.Warn("Failed to invalidate cache", zap.Error(err))
		return
	}
	logger.Debug("Cache invalidated", zap.Int64("keys", deleted))
}

func (uc *IngestionUseCase) export(ctx context.Context, logger *zap.Logger, points []domain.TheftPoint) bool {
	if uc.exporter == nil {
		return false
	}
	if err := uc.exporter.Export(ctx, points); err != nil {
		logger.Warn("Snapshot export failed", zap.Error(err))
		return false
	}
	return true
}

func (uc *IngestionUseCase) publish(ctx context.Context, logger *zap.Logger, result *domain.IngestionResult) {
	if uc.streamRepo == nil {
		return
	}
	event := domain.IngestionCompletedEvent{
		RunID:       result.RunID,
		Accepted:    result.Accepted,
		Stored:      result.Stored,
		CompletedAt: time.Now().UTC(),
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamTheftsIngested, event); err != nil {
		logger.Warn("Failed to publish ingestion event", zap.Error(err))
	}
}
