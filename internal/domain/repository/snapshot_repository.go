package repository

import (
	"context"

	"github.com/theft-heatmap/internal/domain"
)

// SnapshotExporter - выгрузка статического снимка набора для фронтенда
type SnapshotExporter interface {
	Export(ctx context.Context, points []domain.TheftPoint) error
}
