package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Arionyxx/save-guardian/internal/models"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"The Witcher 3: Wild Hunt", "witcher 3 wild hunt"},
		{"DYING LIGHT", "dying light"},
		{"Half-Life 2", "half life 2"},
		{"Lord of the Rings", "lord rings"},
		{"  spaced   out  ", "spaced out"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, normalizeName(tc.in))
		})
	}
}

func TestIsLikelySameGame(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		titleID  *uint32
		expected bool
	}{
		{"identical", "Stardew Valley", "Stardew Valley", nil, true},
		{"case and punctuation", "stardew-valley", "Stardew Valley", nil, true},
		{"substring", "The Witcher 3", "Witcher 3: Wild Hunt", nil, true},
		{"stop words ignored", "Lord of the Rings", "Lord Rings", nil, true},
		{"goty alias", "Skyrim GOTY", "Skyrim Game of the Year", nil, true},
		{"goty alias mid name", "Skyrim GOTY Special", "Skyrim Game of the Year Special", nil, true},
		{"edition suffix", "Cyberpunk 2077", "Cyberpunk 2077 Ultimate Edition", nil, true},
		{"title family by id", "Dying Light: The Following", "DyingLight", models.TitleIDOf(881020), false},
		{"title family match", "Dying Light: The Following", "Dying Light Saves", models.TitleIDOf(881020), true},
		{"family abbreviation gta", "Grand Theft Auto V", "GTA", models.TitleIDOf(271590), true},
		{"family abbreviation cs go", "Counter-Strike 2", "CS GO", models.TitleIDOf(730), true},
		{"near miss typo", "Stardew Vally", "Stardew Valley", nil, true},
		{"different games", "Stardew Valley", "Minecraft", nil, false},
		{"empty name", "", "Stardew Valley", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsLikelySameGame(tc.a, tc.b, tc.titleID))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("same", "same"))
	assert.Greater(t, similarity("stardew valley", "stardew vally"), SimilarityThreshold)
	assert.Less(t, similarity("stardew valley", "minecraft"), SimilarityThreshold)
}
