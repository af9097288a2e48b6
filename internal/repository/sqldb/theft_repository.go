package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/theft-heatmap/internal/config"
	"github.com/theft-heatmap/internal/domain"
	"github.com/theft-heatmap/internal/domain/repository"
	"github.com/theft-heatmap/internal/pkg/errors"
	"go.uber.org/zap"
)

const (
	// replaceLockKey - ключ pg_advisory_xact_lock, сериализует параллельные замены
	replaceLockKey = 7_204_611

	DefaultBatchSize = 500
)

type theftRepository struct {
	db        *DB
	batchSize int
	logger    *zap.Logger
}

// NewTheftRepository создает репозиторий точек. batchSize - строк на один INSERT.
func NewTheftRepository(db *DB, batchSize int) repository.TheftRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &theftRepository{
		db:        db,
		batchSize: batchSize,
		logger:    db.logger,
	}
}

const insertTheftQuery = `
	INSERT INTO ` + theftsTable + ` (event_unique_id, occ_date, offence, neighbourhood, lat, lng)
	VALUES (:event_unique_id, :occ_date, :offence, :neighbourhood, :lat, :lng)`

// ReplaceAll атомарно заменяет весь набор. При любой ошибке транзакция
// откатывается и предыдущее содержимое остается нетронутым.
func (r *theftRepository) ReplaceAll(ctx context.Context, points []domain.TheftPoint) (inserted int, err error) {
	unique := dedupeLastWins(points)
	if dropped := len(points) - len(unique); dropped > 0 {
		r.logger.Warn("Duplicate event ids in batch, last occurrence kept", zap.Int("dropped", dropped))
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				r.logger.Error("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if r.db.driver == config.DriverPostgres {
		if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", replaceLockKey); err != nil {
			return 0, fmt.Errorf("acquire replace lock: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+theftsTable); err != nil {
		return 0, fmt.Errorf("delete previous points: %w", err)
	}

	for start := 0; start < len(unique); start += r.batchSize {
		end := min(start+r.batchSize, len(unique))
		if _, err = tx.NamedExecContext(ctx, insertTheftQuery, unique[start:end]); err != nil {
			return 0, fmt.Errorf("insert points %d-%d: %w", start, end, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug("Theft points replaced", zap.Int("inserted", len(unique)))
	return len(unique), nil
}

// dedupeLastWins оставляет последнее вхождение каждого id на позиции первого
func dedupeLastWins(points []domain.TheftPoint) []domain.TheftPoint {
	index := make(map[string]int, len(points))
	out := make([]domain.TheftPoint, 0, len(points))
	for _, p := range points {
		if i, ok := index[p.EventUniqueID]; ok {
			out[i] = p
			continue
		}
		index[p.EventUniqueID] = len(out)
		out = append(out, p)
	}
	return out
}

// ListRecent возвращает до limit точек: новые первыми, без даты - в конце,
// равные даты упорядочены по id.
func (r *theftRepository) ListRecent(ctx context.Context, limit int) ([]domain.TheftPoint, error) {
	if limit < 1 {
		return nil, errors.ErrInvalidLimit
	}

	query := r.db.Rebind(`
		SELECT event_unique_id, occ_date, offence, neighbourhood, lat, lng
		FROM ` + theftsTable + `
		ORDER BY occ_date DESC NULLS LAST, event_unique_id ASC
		LIMIT ?`)

	points := make([]domain.TheftPoint, 0)
	if err := r.db.SelectContext(ctx, &points, query, limit); err != nil {
		return nil, fmt.Errorf("list recent thefts: %w", err)
	}
	return points, nil
}

func (r *theftRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+theftsTable); err != nil {
		return 0, fmt.Errorf("count thefts: %w", err)
	}
	return count, nil
}
