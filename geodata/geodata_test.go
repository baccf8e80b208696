// file: geodata/geodata_test.go
package geodata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prayreps/config"
	"prayreps/geodata"
)

const gridGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "b", "name": "Beta"},
     "geometry": {"type": "Polygon", "coordinates": [[[1,0],[2,0],[2,1],[1,1],[1,0]]]}},
    {"type": "Feature", "properties": {"id": "a", "name": "Alpha"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCountryMap_UnitsAndLookups(t *testing.T) {
	dir := t.TempDir()
	m, err := geodata.LoadCountryMap(config.Country{
		Code:             "testland",
		GeoJSONPath:      writeFile(t, dir, "grid.geojson", gridGeoJSON),
		RandomAllocation: true,
	})
	require.NoError(t, err)

	assert.Len(t, m.Units, 2)
	assert.Equal(t, []string{"a", "b"}, m.UnitIDs(), "unit ids come out sorted")

	unit, ok := m.ByID("a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", unit.Name)
	assert.InDelta(t, 0.5, unit.Centroid[0], 0.001)

	_, ok = m.ByID("z")
	assert.False(t, ok)

	// the bound spans both squares
	assert.Equal(t, 0.0, m.Bound.Min[0])
	assert.Equal(t, 2.0, m.Bound.Max[0])
}

func TestLoadCountryMap_LabelMapping(t *testing.T) {
	dir := t.TempDir()
	mapping := writeFile(t, dir, "mapping.csv", "post_label,name\nNorth Seat,Alpha\n")
	m, err := geodata.LoadCountryMap(config.Country{
		Code:             "testland",
		GeoJSONPath:      writeFile(t, dir, "grid.geojson", gridGeoJSON),
		LabelMappingPath: mapping,
	})
	require.NoError(t, err)

	unit, ok := m.UnitForLabel("North Seat")
	require.True(t, ok)
	assert.Equal(t, "Alpha", unit.Name)

	// labels without a mapping entry fall back to a direct name match
	unit, ok = m.UnitForLabel("Beta")
	require.True(t, ok)
	assert.Equal(t, "b", unit.ID)

	_, ok = m.UnitForLabel("")
	assert.False(t, ok)
}

func TestLoadCountryMap_MissingFile(t *testing.T) {
	_, err := geodata.LoadCountryMap(config.Country{
		Code:        "testland",
		GeoJSONPath: filepath.Join(t.TempDir(), "missing.geojson"),
	})
	assert.Error(t, err)
}

func TestLoadCountryMap_RandomAllocationNeedsIDs(t *testing.T) {
	noIDs := `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Alpha"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}
  ]
}`
	_, err := geodata.LoadCountryMap(config.Country{
		Code:             "testland",
		GeoJSONPath:      writeFile(t, t.TempDir(), "grid.geojson", noIDs),
		RandomAllocation: true,
	})
	assert.Error(t, err)
}

func TestLoadAtlas_AllCountries(t *testing.T) {
	dir := t.TempDir()
	geo := writeFile(t, dir, "grid.geojson", gridGeoJSON)
	cfg := &config.Config{
		Countries: []config.Country{
			{Code: "aa", GeoJSONPath: geo, RandomAllocation: true},
			{Code: "bb", GeoJSONPath: geo, RandomAllocation: true},
		},
	}
	atlas, err := geodata.LoadAtlas(cfg)
	require.NoError(t, err)

	_, ok := atlas.Country("aa")
	assert.True(t, ok)
	_, ok = atlas.Country("bb")
	assert.True(t, ok)
	_, ok = atlas.Country("cc")
	assert.False(t, ok)
}
