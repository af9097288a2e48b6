package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitSquare = Polygon{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

func TestPolygon_Contains_UnitSquare(t *testing.T) {
	tests := []struct {
		name     string
		lng, lat float64
		expected bool
	}{
		{name: "center", lng: 5, lat: 5, expected: true},
		{name: "right of square", lng: 15, lat: 5, expected: false},
		{name: "west edge is inside", lng: 0, lat: 5, expected: true},
		{name: "east edge is outside", lng: 10, lat: 5, expected: false},
		{name: "south edge is inside", lng: 5, lat: 0, expected: true},
		{name: "north edge is outside", lng: 5, lat: 10, expected: false},
		{name: "below", lng: 5, lat: -1, expected: false},
		{name: "near corner inside", lng: 0.001, lat: 9.999, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, unitSquare.Contains(tt.lat, tt.lng))
		})
	}
}

func TestPolygon_Contains_BoundaryIsStable(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.True(t, unitSquare.Contains(5, 0))
		assert.False(t, unitSquare.Contains(5, 10))
	}
}

func TestPolygon_Contains_RotationInvariant(t *testing.T) {
	polygons := []Polygon{
		unitSquare,
		{{0, 0}, {10, 0}, {5, 10}},
		DefaultPolygon,
		// невыпуклый "L"
		{{0, 0}, {6, 0}, {6, 2}, {2, 2}, {2, 6}, {0, 6}},
	}
	points := []orb.Point{
		{5, 5}, {15, 5}, {1, 1}, {4, 4}, {1, 5}, {5, 1}, {3, 9.5},
		{-79.3957, 43.6629}, {-79.3832, 43.6532}, {-79.40, 43.66},
	}

	for pi, polygon := range polygons {
		for _, pt := range points {
			expected := polygon.Contains(pt[1], pt[0])
			for shift := 1; shift < len(polygon); shift++ {
				rotated := append(append(Polygon{}, polygon[shift:]...), polygon[:shift]...)
				assert.Equal(t, expected, rotated.Contains(pt[1], pt[0]),
					"polygon %d, point %v, shift %d", pi, pt, shift)
			}
		}
	}
}

func TestPolygon_Contains_InsideAndFarOutside(t *testing.T) {
	triangle := Polygon{{0, 0}, {10, 0}, {5, 10}}

	assert.True(t, triangle.Contains(3, 5))
	assert.True(t, triangle.Contains(9.9, 5))
	assert.False(t, triangle.Contains(9, 5.9))

	bound := triangle.Bound()
	far := []orb.Point{
		{bound.Max[0] + 100, bound.Max[1] + 100},
		{bound.Min[0] - 100, bound.Min[1] - 100},
		{bound.Min[0] - 100, 5},
		{5, bound.Max[1] + 100},
	}
	for _, pt := range far {
		assert.False(t, triangle.Contains(pt[1], pt[0]), "point %v", pt)
	}
}

func TestPolygon_Contains_NonConvex(t *testing.T) {
	l := Polygon{{0, 0}, {6, 0}, {6, 2}, {2, 2}, {2, 6}, {0, 6}}

	assert.True(t, l.Contains(1, 1))
	assert.True(t, l.Contains(5, 1))
	assert.False(t, l.Contains(4, 4), "notch of the L")
}

func TestPolygon_Contains_DefaultPolygon(t *testing.T) {
	assert.True(t, DefaultPolygon.Contains(43.6629, -79.3957), "King's College Circle")
	assert.True(t, DefaultPolygon.Contains(43.66, -79.40))
	assert.False(t, DefaultPolygon.Contains(43.6532, -79.3832), "City Hall")
}

func TestPolygon_Contains_Degenerate(t *testing.T) {
	assert.False(t, Polygon{}.Contains(0, 0))
	assert.False(t, Polygon{{0, 0}}.Contains(0, 0))
	assert.False(t, Polygon{{0, 0}, {10, 10}}.Contains(5, 5))
	// горизонтальное ребро нулевой высоты не считается пересечением
	flat := Polygon{{0, 5}, {10, 5}, {10, 5}}
	assert.False(t, flat.Contains(5, 5))
}

func TestPolygon_Validate(t *testing.T) {
	assert.NoError(t, unitSquare.Validate())
	assert.NoError(t, DefaultPolygon.Validate())

	err := Polygon{{0, 0}, {1, 1}}.Validate()
	assert.ErrorIs(t, err, ErrTooFewVertices)

	assert.Error(t, Polygon{{0, 0}, {200, 0}, {0, 1}}.Validate())
	assert.Error(t, Polygon{{0, 0}, {1, 95}, {0, 1}}.Validate())
}

func TestParsePolygon(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := ParsePolygon(" -79.4098,43.6631; -79.4056,43.6699 ;-79.3988,43.6703; ")
		require.NoError(t, err)
		require.Len(t, p, 3)
		assert.Equal(t, orb.Point{-79.4098, 43.6631}, p[0])
		assert.Equal(t, orb.Point{-79.3988, 43.6703}, p[2])
	})

	t.Run("missing latitude", func(t *testing.T) {
		_, err := ParsePolygon("1,2;3;4,5")
		assert.Error(t, err)
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := ParsePolygon("1,2;3,x;4,5")
		assert.Error(t, err)
	})

	t.Run("too few vertices", func(t *testing.T) {
		_, err := ParsePolygon("1,2;3,4")
		assert.ErrorIs(t, err, ErrTooFewVertices)
	})
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(43.66, -79.39))
	assert.True(t, ValidateCoordinates(-90, 180))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.False(t, ValidateCoordinates(0, -181))
}
