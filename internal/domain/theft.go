package domain

import "time"

// TheftPoint - инцидент кражи с координатами. Координаты всегда заданы:
// строки без валидных координат отбрасываются до сохранения.
type TheftPoint struct {
	EventUniqueID string  `json:"event_unique_id" db:"event_unique_id"`
	OccDate       *string `json:"occ_date" db:"occ_date"`
	Offence       *string `json:"offence" db:"offence"`
	Neighbourhood *string `json:"neighbourhood" db:"neighbourhood"`
	Lat           float64 `json:"lat" db:"lat"`
	Lng           float64 `json:"lng" db:"lng"`
}

// IngestionResult - итог одного прогона загрузки
type IngestionResult struct {
	RunID          string        `json:"run_id"`
	Points         []TheftPoint  `json:"-"`
	RowsRead       int           `json:"rows_read"`
	Accepted       int           `json:"accepted"`
	Stored         int           `json:"stored"`
	SkippedParse   int           `json:"skipped_parse"`
	SkippedOutside int           `json:"skipped_outside"`
	Exported       bool          `json:"exported"`
	Duration       time.Duration `json:"duration"`
}

// TheftStatistics - агрегаты по текущему содержимому хранилища
type TheftStatistics struct {
	Total        int            `json:"total"`
	FirstOccDate *string        `json:"first_occ_date,omitempty"`
	LastOccDate  *string        `json:"last_occ_date,omitempty"`
	Bounds       *BoundingBox   `json:"bounds,omitempty"`
	ByOffence    map[string]int `json:"by_offence"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat" db:"min_lat"`
	MinLng float64 `json:"min_lng" db:"min_lng"`
	MaxLat float64 `json:"max_lat" db:"max_lat"`
	MaxLng float64 `json:"max_lng" db:"max_lng"`
}
