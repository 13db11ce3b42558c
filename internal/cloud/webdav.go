// Package cloud moves backup archives and their sidecars to and from a
// WebDAV share. Transfers are pairwise: an archive never travels without
// its sidecar, so a remote or local listing is always restorable.
package cloud

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/studio-b12/gowebdav"

	"github.com/Arionyxx/save-guardian/internal/config"
	"github.com/Arionyxx/save-guardian/internal/events"
)

const sidecarSuffix = ".backup.json"

// Transfer copies backups between the local backup root and a WebDAV
// folder.
type Transfer struct {
	client     *gowebdav.Client
	syncFolder string
	logger     *events.Logger
}

// NewTransfer connects to the configured WebDAV server and ensures the
// sync folder exists.
func NewTransfer(cfg *config.CloudConfig, logger *events.Logger) (*Transfer, error) {
	client := gowebdav.NewClient(cfg.ServerURL, cfg.Username, cfg.Password)

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect to webdav server: %w", err)
	}

	t := &Transfer{
		client:     client,
		syncFolder: cfg.SyncFolder,
		logger:     logger.WithField("component", "cloud_transfer"),
	}

	if err := client.MkdirAll(cfg.SyncFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create sync folder %s: %w", cfg.SyncFolder, err)
	}

	return t, nil
}

// Upload pushes every archive+sidecar pair under backupRoot that is
// missing or differently sized on the remote. Returns the number of
// pairs uploaded.
func (t *Transfer) Upload(backupRoot string) (int, error) {
	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		return 0, fmt.Errorf("read backup root: %w", err)
	}

	remote, err := t.remoteSizes()
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}

		sidecar := sidecarFor(entry.Name())
		localSidecar := filepath.Join(backupRoot, sidecar)
		if _, err := os.Stat(localSidecar); err != nil {
			t.logger.WithField("archive", entry.Name()).Warn("Skipping archive without sidecar")
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if size, ok := remote[entry.Name()]; ok && size == info.Size() {
			t.logger.WithField("archive", entry.Name()).Debug("Remote copy is current")
			continue
		}

		if err := t.uploadFile(filepath.Join(backupRoot, entry.Name()), entry.Name()); err != nil {
			return uploaded, err
		}
		if err := t.uploadFile(localSidecar, sidecar); err != nil {
			return uploaded, err
		}

		t.logger.WithField("archive", entry.Name()).Info("Uploaded backup")
		uploaded++
	}

	return uploaded, nil
}

// Download pulls every remote archive+sidecar pair that is missing or
// differently sized locally. Downloaded backups are indistinguishable
// from locally created ones. Returns the number of pairs downloaded.
func (t *Transfer) Download(backupRoot string) (int, error) {
	files, err := t.client.ReadDir(t.syncFolder)
	if err != nil {
		return 0, fmt.Errorf("read remote folder: %w", err)
	}

	remoteNames := make(map[string]bool, len(files))
	for _, f := range files {
		remoteNames[f.Name()] = true
	}

	downloaded := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".zip") {
			continue
		}

		sidecar := sidecarFor(f.Name())
		if !remoteNames[sidecar] {
			t.logger.WithField("archive", f.Name()).Warn("Skipping remote archive without sidecar")
			continue
		}

		localArchive := filepath.Join(backupRoot, f.Name())
		if info, err := os.Stat(localArchive); err == nil && info.Size() == f.Size() {
			t.logger.WithField("archive", f.Name()).Debug("Local copy is current")
			continue
		}

		if err := t.downloadFile(f.Name(), localArchive); err != nil {
			return downloaded, err
		}
		if err := t.downloadFile(sidecar, filepath.Join(backupRoot, sidecar)); err != nil {
			return downloaded, err
		}

		t.logger.WithField("archive", f.Name()).Info("Downloaded backup")
		downloaded++
	}

	return downloaded, nil
}

// remoteSizes lists the sync folder as name -> size. A missing folder is
// an empty listing, not an error.
func (t *Transfer) remoteSizes() (map[string]int64, error) {
	files, err := t.client.ReadDir(t.syncFolder)
	if err != nil {
		return map[string]int64{}, nil
	}

	sizes := make(map[string]int64, len(files))
	for _, f := range files {
		sizes[f.Name()] = f.Size()
	}
	return sizes, nil
}

func (t *Transfer) uploadFile(localPath, remoteName string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}

	remotePath := path.Join(t.syncFolder, remoteName)
	if err := t.client.Write(remotePath, data, 0o644); err != nil {
		return fmt.Errorf("upload %s: %w", remoteName, err)
	}

	return nil
}

func (t *Transfer) downloadFile(remoteName, localPath string) error {
	data, err := t.client.Read(path.Join(t.syncFolder, remoteName))
	if err != nil {
		return fmt.Errorf("download %s: %w", remoteName, err)
	}

	tmpPath := localPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize %s: %w", localPath, err)
	}

	return nil
}

// sidecarFor maps an archive filename to its sidecar. The archive name
// ends with a timestamp suffix the sidecar does not carry.
func sidecarFor(archiveName string) string {
	base := strings.TrimSuffix(archiveName, ".zip")
	if idx := strings.LastIndex(base, "_"); idx > 0 {
		if idx2 := strings.LastIndex(base[:idx], "_"); idx2 > 0 {
			return base[:idx2] + sidecarSuffix
		}
	}
	return base + sidecarSuffix
}
