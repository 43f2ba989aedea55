package poi_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danieleon08/Taller3-Movil/internal/poi"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	points, err := poi.Load("")
	require.NoError(t, err)
	require.NotEmpty(t, points)
	for _, p := range points {
		require.NotEmpty(t, p.Name)
		require.NotZero(t, p.Latitude)
		require.NotZero(t, p.Longitude)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	payload := `{"locationsArray":[{"latitude":4.6,"longitude":-74.08,"name":"Centro"}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	points, err := poi.Load(path)
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.Equal(t, "Centro", points[0].Name)
}

func TestLoadErrors(t *testing.T) {
	_, err := poi.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = poi.Load(path)
	require.Error(t, err)
}
