package models

import (
	"fmt"
	"os"
	"time"
)

// SaveType identifies which ecosystem a save belongs to.
type SaveType string

const (
	SaveTypeSteam    SaveType = "steam"
	SaveTypeNonSteam SaveType = "nonsteam"
)

// GameSave is one discovered save location. Size and LastModified snapshot
// the filesystem at scan time; the path may stop existing afterwards, and
// every consumer must tolerate that.
type GameSave struct {
	Name         string     `json:"name"`
	TitleID      *uint32    `json:"app_id,omitempty"`
	SaveType     SaveType   `json:"save_type"`
	Path         string     `json:"save_path"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Size         int64      `json:"size"`
	BackupCount  int        `json:"backup_count"`
	IsSynced     bool       `json:"is_synced"`
}

// NewGameSave builds a GameSave from live filesystem metadata. A stat
// failure leaves Size zero and LastModified nil rather than failing.
func NewGameSave(name, path string, saveType SaveType, titleID *uint32) GameSave {
	save := GameSave{
		Name:     name,
		TitleID:  titleID,
		SaveType: saveType,
		Path:     path,
	}

	if info, err := os.Stat(path); err == nil {
		mod := info.ModTime().UTC()
		save.LastModified = &mod
		save.Size = info.Size()
	}

	return save
}

// DisplayName appends the title id when one is known.
func (g *GameSave) DisplayName() string {
	if g.TitleID != nil {
		return fmt.Sprintf("%s (%d)", g.Name, *g.TitleID)
	}
	return g.Name
}

// LocationKind categorizes a scan root.
type LocationKind string

const (
	LocationDocuments       LocationKind = "documents"
	LocationAppDataRoaming  LocationKind = "appdata_roaming"
	LocationAppDataLocal    LocationKind = "appdata_local"
	LocationAppDataLocalLow LocationKind = "appdata_locallow"
	LocationPublicDocuments LocationKind = "public_documents"
	LocationSteam           LocationKind = "steam"
	LocationCustom          LocationKind = "custom"
)

// SaveLocation is a scan root with provenance.
type SaveLocation struct {
	Path        string       `json:"path"`
	Kind        LocationKind `json:"kind"`
	Description string       `json:"description"`
	IsCustom    bool         `json:"is_custom"`
}

// BackupInfo describes one archive + sidecar pair. Field names are stable
// for sidecar compatibility.
type BackupInfo struct {
	ID           string    `json:"id"`
	GameName     string    `json:"game_name"`
	TitleID      *uint32   `json:"app_id,omitempty"`
	SaveType     SaveType  `json:"save_type"`
	OriginalPath string    `json:"original_path"`
	ArchivePath  string    `json:"backup_path"`
	CreatedAt    time.Time `json:"created_at"`
	Size         int64     `json:"size"`
	Description  string    `json:"description,omitempty"`
}

// BackupStats aggregates the backup root.
type BackupStats struct {
	TotalCount    int        `json:"total_count"`
	TotalSize     int64      `json:"total_size"`
	SteamCount    int        `json:"steam_count"`
	NonSteamCount int        `json:"non_steam_count"`
	OldestBackup  *time.Time `json:"oldest_backup,omitempty"`
	NewestBackup  *time.Time `json:"newest_backup,omitempty"`
}

// SyncDirection selects which side of a pair is the copy source.
type SyncDirection string

const (
	SteamToNonSteam SyncDirection = "steam_to_nonsteam"
	NonSteamToSteam SyncDirection = "nonsteam_to_steam"
	Bidirectional   SyncDirection = "bidirectional"
)

// SyncPair associates a Steam-side and/or non-Steam-side save believed to be
// the same game. At least one side is always populated.
type SyncPair struct {
	SteamSave    *GameSave     `json:"steam_save,omitempty"`
	NonSteamSave *GameSave     `json:"non_steam_save,omitempty"`
	GameName     string        `json:"game_name"`
	TitleID      *uint32       `json:"app_id,omitempty"`
	LastSynced   *time.Time    `json:"last_synced,omitempty"`
	Direction    SyncDirection `json:"sync_direction"`
}

// SyncResult summarizes a completed copy.
type SyncResult struct {
	FilesCopied     int       `json:"files_copied"`
	BytesCopied     int64     `json:"bytes_copied"`
	SourcePath      string    `json:"source_path"`
	DestinationPath string    `json:"destination_path"`
	SyncTime        time.Time `json:"sync_time"`
}

// FormatSize renders a byte count for humans.
func FormatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	case size < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(size)/(1024*1024*1024))
	}
}

// TitleID helper for literals in tests and tables.
func TitleIDOf(id uint32) *uint32 { return &id }
