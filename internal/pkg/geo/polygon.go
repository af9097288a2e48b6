// Package geo содержит геометрический фильтр загрузки: полигон области
// интереса и проверку попадания точки методом трассировки луча.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// MinVertices - минимальное число вершин полигона
const MinVertices = 3

var ErrTooFewVertices = errors.New("polygon must have at least 3 vertices")

// Polygon - упорядоченные вершины (X = долгота, Y = широта), неявно замкнутые:
// последняя вершина соединяется с первой.
type Polygon []orb.Point

// DefaultPolygon - приблизительный контур кампуса St. George (UofT)
var DefaultPolygon = Polygon{
	{-79.4098, 43.6631},
	{-79.4056, 43.6699},
	{-79.3988, 43.6703},
	{-79.3930, 43.6675},
	{-79.3925, 43.6603},
	{-79.3980, 43.6548},
	{-79.4068, 43.6551},
}

// Contains проверяет попадание точки в полигон (чётность пересечений
// горизонтального луча). Ребро пересекается, если ровно один его конец строго
// выше широты точки; точка переключает флаг, если её долгота строго меньше
// долготы ребра на этой широте.
//
// Точки на границе: западные и нижние рёбра считаются внутренними, восточные и
// верхние - внешними. Полигон меньше чем из 3 вершин не содержит ничего.
func (p Polygon) Contains(lat, lng float64) bool {
	n := len(p)
	if n < MinVertices {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := p[i][0], p[i][1]
		xj, yj := p[j][0], p[j][1]

		if (yi > lat) != (yj > lat) {
			xAtLat := (xj-xi)*(lat-yi)/(yj-yi) + xi
			if lng < xAtLat {
				inside = !inside
			}
		}
	}
	return inside
}

// Validate проверяет число вершин и диапазоны координат
func (p Polygon) Validate() error {
	if len(p) < MinVertices {
		return fmt.Errorf("%w: got %d", ErrTooFewVertices, len(p))
	}
	for i, v := range p {
		if math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsInf(v[0], 0) || math.IsInf(v[1], 0) {
			return fmt.Errorf("vertex %d is not finite", i)
		}
		if !ValidateCoordinates(v[1], v[0]) {
			return fmt.Errorf("vertex %d out of range: lng=%f lat=%f", i, v[0], v[1])
		}
	}
	return nil
}

// Bound возвращает ограничивающий прямоугольник
func (p Polygon) Bound() orb.Bound {
	return orb.MultiPoint(p).Bound()
}

// ParsePolygon разбирает строку вида "lng,lat;lng,lat;..."
func ParsePolygon(s string) (Polygon, error) {
	parts := strings.Split(strings.TrimSpace(s), ";")
	polygon := make(Polygon, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		xy := strings.Split(part, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("vertex %d: expected \"lng,lat\", got %q", i, part)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: parse longitude: %w", i, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: parse latitude: %w", i, err)
		}
		polygon = append(polygon, orb.Point{lng, lat})
	}

	if err := polygon.Validate(); err != nil {
		return nil, err
	}
	return polygon, nil
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
