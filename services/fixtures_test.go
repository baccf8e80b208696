// file: services/fixtures_test.go
package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"prayreps/config"
	"prayreps/geodata"
	"prayreps/store"
)

// testGeoJSON is a 2x2 grid of unit squares with stable ids, standing in
// for a real hex-grid parliament map.
const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "a", "name": "A"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
    {"type": "Feature", "properties": {"id": "b", "name": "B"},
     "geometry": {"type": "Polygon", "coordinates": [[[1,0],[2,0],[2,1],[1,1],[1,0]]]}},
    {"type": "Feature", "properties": {"id": "c", "name": "C"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,1],[1,1],[1,2],[0,2],[0,1]]]}},
    {"type": "Feature", "properties": {"id": "d", "name": "D"},
     "geometry": {"type": "Polygon", "coordinates": [[[1,1],[2,1],[2,2],[1,2],[1,1]]]}}
  ]
}`

const testCSV = `person_name,post_label,party,image_url
Alice,North,RedParty,
Bob,South,BlueParty,
Carol,East,RedParty,
`

// newTestEnv writes fixture data files into a temp dir and wires a real
// store, atlas and config around them.
func newTestEnv(t *testing.T) (*config.Config, *store.Store, *geodata.Atlas) {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "testland.csv")
	geoPath := filepath.Join(dir, "testland.geojson")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0644))
	require.NoError(t, os.WriteFile(geoPath, []byte(testGeoJSON), 0644))

	cfg := &config.Config{
		StaticDir: filepath.Join(dir, "static"),
		Countries: []config.Country{
			{
				Code:                 "testland",
				Name:                 "Testland",
				CSVPath:              csvPath,
				GeoJSONPath:          geoPath,
				TotalRepresentatives: 3,
				RandomAllocation:     true,
				MapPaddingX:          0.05,
				MapPaddingY:          0.05,
			},
		},
		PartyInfo: map[string]map[string]config.PartyStyle{
			"testland": {
				"RedParty":  {ShortName: "Red", Color: "#FF0000"},
				"BlueParty": {ShortName: "Blue", Color: "#0000FF"},
				"Other":     config.OtherParty,
			},
		},
	}

	st, err := store.Open(filepath.Join(dir, "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(context.Background()))

	atlas, err := geodata.LoadAtlas(cfg)
	require.NoError(t, err)

	return cfg, st, atlas
}
