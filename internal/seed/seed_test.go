package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFileCSV(t *testing.T) {
	path := writeTemp(t, "venues.csv",
		"restaurant_name,deal_description,monday,neighborhood\n"+
			"The Porter,half-off drafts,true,Little Five Points\n")

	venues, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "The Porter", venues[0].RestaurantName)
	assert.True(t, venues[0].Monday)
	assert.False(t, venues[0].Tuesday)
}

func TestReadFileYAML(t *testing.T) {
	path := writeTemp(t, "venues.yaml", `
- restaurant_name: The Porter
  deal_description: half-off drafts
  monday: true
  friday: true
  neighborhood: Little Five Points
  latitude: 33.7647
  longitude: -84.3493
- restaurant_name: ""
  deal_description: skipped, no name
`)

	venues, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "The Porter", venues[0].RestaurantName)
	assert.True(t, venues[0].Friday)
	require.NotNil(t, venues[0].Latitude)
	assert.InDelta(t, 33.7647, *venues[0].Latitude, 1e-9)
}

func TestReadFileUnsupported(t *testing.T) {
	path := writeTemp(t, "venues.txt", "whatever")

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
