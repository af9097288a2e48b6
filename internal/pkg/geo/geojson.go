package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/afero"
)

// LoadPolygonFile читает полигон из GeoJSON файла. Поддерживаются Polygon,
// MultiPolygon из одного полигона, Feature и FeatureCollection (берётся первый
// объект). Используется только внешнее кольцо.
func LoadPolygonFile(fs afero.Fs, path string) (Polygon, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read polygon file: %w", err)
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON извлекает полигон из GeoJSON документа
func ParseGeoJSON(data []byte) (Polygon, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var geometry orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("feature collection is empty")
		}
		geometry = fc.Features[0].Geometry
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		geometry = f.Geometry
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		geometry = g.Geometry()
	}

	var ring orb.Ring
	switch g := geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return nil, fmt.Errorf("polygon has no rings")
		}
		ring = g[0]
	case orb.MultiPolygon:
		if len(g) != 1 || len(g[0]) == 0 {
			return nil, fmt.Errorf("multipolygon must contain exactly one polygon, got %d", len(g))
		}
		ring = g[0][0]
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", geometry)
	}

	// GeoJSON кольца замкнуты явно, Polygon - неявно
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}

	polygon := Polygon(ring)
	if err := polygon.Validate(); err != nil {
		return nil, err
	}
	return polygon, nil
}
