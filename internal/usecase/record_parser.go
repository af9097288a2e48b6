package usecase

import (
	"math"
	"strconv"
	"strings"

	"github.com/theft-heatmap/internal/domain"
)

// ColumnMapping - имена колонок входного файла
type ColumnMapping struct {
	ID                string
	OccDate           string
	Offence           string
	NeighbourhoodFine string
	NeighbourhoodBase string
	Latitude          string
	Longitude         string
}

// DefaultColumns - колонки открытого набора Toronto Police "Theft Over"
var DefaultColumns = ColumnMapping{
	ID:                "EVENT_UNIQUE_ID",
	OccDate:           "OCC_DATE",
	Offence:           "OFFENCE",
	NeighbourhoodFine: "NEIGHBOURHOOD_158",
	NeighbourhoodBase: "NEIGHBOURHOOD_140",
	Latitude:          "LAT_WGS84",
	Longitude:         "LONG_WGS84",
}

// RequiredColumns - колонки, без которых источник считается битым
func (m ColumnMapping) RequiredColumns() []string {
	return []string{m.Latitude, m.Longitude}
}

// ParseCoordinate разбирает координату. Нечисловое, пустое или отсутствующее
// значение невалидно; ровно 0 - маркер отсутствия GPS в источнике, тоже невалидно.
func ParseCoordinate(raw string, present bool) (float64, bool) {
	if !present {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// RecordParser превращает сырую строку в TheftPoint
type RecordParser struct {
	columns ColumnMapping
}

func NewRecordParser(columns ColumnMapping) *RecordParser {
	return &RecordParser{columns: columns}
}

// Parse возвращает (nil, false), если широта или долгота невалидны: строка
// пропускается целиком.
func (p *RecordParser) Parse(row domain.RawRow) (*domain.TheftPoint, bool) {
	lat, ok := ParseCoordinate(row.Get(p.columns.Latitude))
	if !ok {
		return nil, false
	}
	lng, ok := ParseCoordinate(row.Get(p.columns.Longitude))
	if !ok {
		return nil, false
	}

	id, _ := row.Get(p.columns.ID)

	return &domain.TheftPoint{
		EventUniqueID: id,
		OccDate:       optional(row, p.columns.OccDate),
		Offence:       optional(row, p.columns.Offence),
		Neighbourhood: p.neighbourhood(row),
		Lat:           lat,
		Lng:           lng,
	}, true
}

// neighbourhood предпочитает непустую новую схему районов (158), иначе берет
// старую (140) как есть, даже пустую; nil только если колонки 140 нет.
func (p *RecordParser) neighbourhood(row domain.RawRow) *string {
	if v, ok := row.Get(p.columns.NeighbourhoodFine); ok && v != "" {
		return &v
	}
	return optional(row, p.columns.NeighbourhoodBase)
}

func optional(row domain.RawRow, column string) *string {
	v, ok := row.Get(column)
	if !ok {
		return nil
	}
	return &v
}
