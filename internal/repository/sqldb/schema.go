package sqldb

import "github.com/theft-heatmap/internal/config"

const theftsTable = "theft_incidents"

func schemaFor(driver string) []string {
	floatType := "REAL"
	if driver == config.DriverPostgres {
		floatType = "DOUBLE PRECISION"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS ` + theftsTable + ` (
			event_unique_id TEXT PRIMARY KEY,
			occ_date        TEXT,
			offence         TEXT,
			neighbourhood   TEXT,
			lat             ` + floatType + ` NOT NULL,
			lng             ` + floatType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_theft_incidents_occ_date ON ` + theftsTable + ` (occ_date)`,
	}
}
