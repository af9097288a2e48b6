package geo

import "github.com/spf13/afero"

// Resolve выбирает полигон загрузки: GeoJSON файл, затем строка
// "lng,lat;...", иначе DefaultPolygon.
func Resolve(fs afero.Fs, file, inline string) (Polygon, error) {
	switch {
	case file != "":
		return LoadPolygonFile(fs, file)
	case inline != "":
		return ParsePolygon(inline)
	default:
		return DefaultPolygon, nil
	}
}
