package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arionyxx/save-guardian/internal/models"
)

func customLocation(path string) models.SaveLocation {
	return models.SaveLocation{
		Path:        path,
		Kind:        models.LocationCustom,
		Description: "test location",
		IsCustom:    true,
	}
}

func TestNonSteamScannerFindsSaves(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "My Game", "saves", "player1.sav"), "data")

	scanner := NewNonSteamScannerWithLocations(
		[]models.SaveLocation{customLocation(root)}, testLogger())

	saves, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, saves, 1)

	assert.Equal(t, "My Game", saves[0].Name)
	assert.Equal(t, models.SaveTypeNonSteam, saves[0].SaveType)
	assert.Nil(t, saves[0].TitleID)
}

func TestNonSteamScannerStrictHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected bool
	}{
		{"sav extension", []string{"player1.sav"}, true},
		{"savegame extension", []string{"slot0.savegame"}, true},
		{"save filename", []string{"quicksave.bb"}, true},
		{"settings only", []string{"settings.json", "options.ini"}, false},
		{"save named settings file", []string{"savesettings.json"}, false},
		{"java archive", []string{"save.jar"}, false},
		{"no evidence", []string{"readme.txt", "data.pak"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			dir := filepath.Join(root, "Some Game")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			for _, f := range tc.files {
				writeFile(t, filepath.Join(dir, f), "x")
			}

			scanner := NewNonSteamScannerWithLocations(
				[]models.SaveLocation{customLocation(root)}, testLogger())
			saves, err := scanner.Scan()
			require.NoError(t, err)

			if tc.expected {
				require.Len(t, saves, 1)
				assert.Equal(t, "Some Game", saves[0].Name)
			} else {
				assert.Empty(t, saves)
			}
		})
	}
}

func TestNonSteamScannerSkipsSystemPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "player1.sav"), "x")

	scanner := NewNonSteamScannerWithLocations(
		[]models.SaveLocation{customLocation(root)}, testLogger())

	saves, err := scanner.Scan()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestNonSteamScannerMissingLocation(t *testing.T) {
	scanner := NewNonSteamScannerWithLocations(
		[]models.SaveLocation{customLocation(filepath.Join(t.TempDir(), "gone"))},
		testLogger())

	saves, err := scanner.Scan()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestNonSteamScannerCustomLocations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Indie Game", "slot1.sav"), "x")

	scanner := NewNonSteamScannerWithLocations(nil, testLogger())
	scanner.AddCustomLocation(models.SaveLocation{Path: root, Kind: models.LocationCustom})

	locations := scanner.Locations()
	require.Len(t, locations, 1)
	assert.True(t, locations[0].IsCustom)

	saves, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "Indie Game", saves[0].Name)
}

func TestDeriveGameName(t *testing.T) {
	scanner := NewNonSteamScannerWithLocations(nil, testLogger())

	tests := []struct {
		path     string
		expected string
	}{
		{"/data/Witcher 3/saves", "Witcher 3"},
		{"/data/stardew_valley/saves", "Stardew Valley"},
		{"/data/My Games/DyingLight/save", "Dyinglight"},
		{"/data/Celeste", "Celeste"},
		{"/data/Some Game - Saves", "Some Game"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, scanner.deriveGameName(filepath.FromSlash(tc.path)))
		})
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("1.20.1"))
	assert.True(t, isVersionSegment("1.19"))
	assert.True(t, isVersionSegment("1.20.1-forge"))
	assert.True(t, isVersionSegment("pre2"))
	assert.False(t, isVersionSegment("witcher 3"))
	assert.False(t, isVersionSegment("half-life 2"))
}
