package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareGeometry = `{"type":"Polygon","coordinates":[[[0,0],[0,10],[10,10],[10,0],[0,0]]]}`

func TestParseGeoJSON(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "geometry", doc: squareGeometry},
		{name: "feature", doc: `{"type":"Feature","properties":{"name":"square"},"geometry":` + squareGeometry + `}`},
		{name: "feature collection", doc: `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":` + squareGeometry + `}]}`},
		{name: "single multipolygon", doc: `{"type":"MultiPolygon","coordinates":[[[[0,0],[0,10],[10,10],[10,0],[0,0]]]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseGeoJSON([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, unitSquare, p)
			assert.True(t, p.Contains(5, 5))
		})
	}
}

func TestParseGeoJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `polygon`},
		{name: "point geometry", doc: `{"type":"Point","coordinates":[1,2]}`},
		{name: "empty collection", doc: `{"type":"FeatureCollection","features":[]}`},
		{name: "two vertices", doc: `{"type":"Polygon","coordinates":[[[0,0],[1,1],[0,0]]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeoJSON([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolygonFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config/campus.geojson", []byte(squareGeometry), 0o644))

	p, err := LoadPolygonFile(fs, "/config/campus.geojson")
	require.NoError(t, err)
	assert.Len(t, p, 4)
	assert.Equal(t, orb.Point{10, 0}, p[3])

	_, err = LoadPolygonFile(fs, "/config/missing.geojson")
	assert.Error(t, err)
}
