package geo

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "area.geojson", []byte(
		`{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}`), 0o644))

	t.Run("file wins over string", func(t *testing.T) {
		p, err := Resolve(fs, "area.geojson", "5,5;5,6;6,6")
		require.NoError(t, err)
		assert.Len(t, p, 4)
		assert.True(t, p.Contains(0.5, 0.5))
	})

	t.Run("string", func(t *testing.T) {
		p, err := Resolve(fs, "", "0,0;0,10;10,10;10,0")
		require.NoError(t, err)
		assert.True(t, p.Contains(5, 5))
	})

	t.Run("default", func(t *testing.T) {
		p, err := Resolve(fs, "", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultPolygon, p)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Resolve(fs, "nope.geojson", "")
		assert.Error(t, err)
	})
}
