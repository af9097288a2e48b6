package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/theft-heatmap/internal/domain"
	"go.uber.org/zap"
)

type summaryRow struct {
	Total        int             `db:"total"`
	FirstOccDate sql.NullString  `db:"first_occ_date"`
	LastOccDate  sql.NullString  `db:"last_occ_date"`
	MinLat       sql.NullFloat64 `db:"min_lat"`
	MinLng       sql.NullFloat64 `db:"min_lng"`
	MaxLat       sql.NullFloat64 `db:"max_lat"`
	MaxLng       sql.NullFloat64 `db:"max_lng"`
}

type offenceRow struct {
	Offence string `db:"offence"`
	Count   int    `db:"count"`
}

// GetStatistics возвращает агрегированную статистику по текущему набору
func (r *theftRepository) GetStatistics(ctx context.Context) (*domain.TheftStatistics, error) {
	var summary summaryRow
	err := r.db.GetContext(ctx, &summary, `
		SELECT
			COUNT(*)      AS total,
			MIN(occ_date) AS first_occ_date,
			MAX(occ_date) AS last_occ_date,
			MIN(lat)      AS min_lat,
			MIN(lng)      AS min_lng,
			MAX(lat)      AS max_lat,
			MAX(lng)      AS max_lng
		FROM `+theftsTable)
	if err != nil {
		r.logger.Error("failed to get theft summary", zap.Error(err))
		return nil, fmt.Errorf("get theft summary: %w", err)
	}

	var offences []offenceRow
	err = r.db.SelectContext(ctx, &offences, `
		SELECT COALESCE(offence, '') AS offence, COUNT(*) AS count
		FROM `+theftsTable+`
		GROUP BY COALESCE(offence, '')
		ORDER BY count DESC`)
	if err != nil {
		r.logger.Error("failed to get offence counts", zap.Error(err))
		return nil, fmt.Errorf("get offence counts: %w", err)
	}

	stats := &domain.TheftStatistics{
		Total:       summary.Total,
		ByOffence:   make(map[string]int, len(offences)),
		GeneratedAt: time.Now().UTC(),
	}
	if summary.FirstOccDate.Valid {
		stats.FirstOccDate = &summary.FirstOccDate.String
	}
	if summary.LastOccDate.Valid {
		stats.LastOccDate = &summary.LastOccDate.String
	}
	if summary.MinLat.Valid {
		stats.Bounds = &domain.BoundingBox{
			MinLat: summary.MinLat.Float64,
			MinLng: summary.MinLng.Float64,
			MaxLat: summary.MaxLat.Float64,
			MaxLng: summary.MaxLng.Float64,
		}
	}
	for _, o := range offences {
		stats.ByOffence[o.Offence] = o.Count
	}

	return stats, nil
}
