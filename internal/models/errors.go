package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeIO      = "IO_ERROR"
	ErrCodeSerde   = "SERIALIZATION_ERROR"
	ErrCodeScan    = "SCAN_ERROR"
	ErrCodeBackup  = "BACKUP_ERROR"
	ErrCodeSync    = "SYNC_ERROR"
	ErrCodeArchive = "ARCHIVE_ERROR"
	ErrCodeConfig  = "CONFIG_ERROR"
	ErrCodeResolve = "RESOLVE_ERROR"
	ErrCodeCache   = "CACHE_ERROR"
)

// Sentinel errors
var (
	ErrPathNotFound    = errors.New("path not found")
	ErrInvalidTitleID  = errors.New("invalid title id")
	ErrBackupExists    = errors.New("restore target already exists")
	ErrMissingSaveSide = errors.New("sync pair is missing the required save side")
	ErrNameNotFound    = errors.New("no name available for title")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// ScanError wraps a failure while scanning a location. Per-entry failures
// inside a walk are logged and skipped instead of raising this; ScanError
// means the whole location could not be processed.
type ScanError struct {
	Code string
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan [%s]: %s: %v", e.Code, e.Root, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// BackupError wraps a whole-operation backup or restore failure.
type BackupError struct {
	Code     string
	BackupID string
	Path     string
	Err      error
}

func (e *BackupError) Error() string {
	if e.BackupID != "" {
		return fmt.Sprintf("backup [%s]: %s: %s: %v", e.Code, e.BackupID, e.Path, e.Err)
	}
	return fmt.Sprintf("backup [%s]: %s: %v", e.Code, e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// SyncError wraps a save-operation failure during pairing or copy.
type SyncError struct {
	Code     string
	GameName string
	Path     string
	Err      error
}

func (e *SyncError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("sync [%s]: %s: %s: %v", e.Code, e.GameName, e.Path, e.Err)
	}
	return fmt.Sprintf("sync [%s]: %s: %v", e.Code, e.GameName, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
