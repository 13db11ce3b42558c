package models

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameSave(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slot.sav"), []byte("data"), 0o644))

	save := NewGameSave("Game", dir, SaveTypeSteam, TitleIDOf(42))
	assert.Equal(t, "Game", save.Name)
	require.NotNil(t, save.LastModified)
	require.NotNil(t, save.TitleID)
	assert.Equal(t, uint32(42), *save.TitleID)
}

func TestNewGameSaveMissingPath(t *testing.T) {
	save := NewGameSave("Gone", filepath.Join(t.TempDir(), "missing"), SaveTypeNonSteam, nil)

	assert.Nil(t, save.LastModified)
	assert.Zero(t, save.Size)
	assert.Equal(t, "Gone", save.Name)
}

func TestDisplayName(t *testing.T) {
	withID := GameSave{Name: "Stardew Valley", TitleID: TitleIDOf(413150)}
	assert.Equal(t, "Stardew Valley (413150)", withID.DisplayName())

	withoutID := GameSave{Name: "My Game"}
	assert.Equal(t, "My Game", withoutID.DisplayName())
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatSize(tc.size))
		})
	}
}

func TestBackupInfoJSONFieldNames(t *testing.T) {
	info := BackupInfo{
		ID:           "Game_42_steam",
		GameName:     "Game",
		TitleID:      TitleIDOf(42),
		SaveType:     SaveTypeSteam,
		OriginalPath: "/saves/game",
		ArchivePath:  "/backups/game.zip",
	}

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	// Sidecar files written by earlier releases must stay readable, so
	// these keys are frozen.
	for _, key := range []string{"id", "game_name", "app_id", "save_type", "original_path", "backup_path", "created_at", "size"} {
		assert.Contains(t, raw, key)
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	scanErr := &ScanError{Code: ErrCodeScan, Root: "/x", Err: ErrPathNotFound}
	assert.True(t, errors.Is(scanErr, ErrPathNotFound))
	assert.Contains(t, scanErr.Error(), ErrCodeScan)

	backupErr := &BackupError{Code: ErrCodeBackup, BackupID: "id", Path: "/y", Err: ErrBackupExists}
	assert.True(t, errors.Is(backupErr, ErrBackupExists))
	assert.Contains(t, backupErr.Error(), "id")

	syncErr := &SyncError{Code: ErrCodeSync, GameName: "Game", Err: ErrMissingSaveSide}
	assert.True(t, errors.Is(syncErr, ErrMissingSaveSide))
	assert.Contains(t, syncErr.Error(), "Game")
}
