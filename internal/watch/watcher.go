// Package watch monitors save directories and triggers automatic backups
// when their contents change. Games tend to write several files in quick
// succession, so events are debounced per save before the callback runs.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
)

// DefaultDebounce is how long a save must stay quiet before its change
// burst is treated as complete.
const DefaultDebounce = 2 * time.Second

// BackupFunc is invoked once per settled change burst.
type BackupFunc func(save *models.GameSave)

// Watcher observes a set of saves and fires a callback after changes
// settle. All callbacks run on a single goroutine.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange BackupFunc
	debounce time.Duration
	logger   *events.Logger

	mu      sync.Mutex
	saves   map[string]*models.GameSave // watched root -> save
	pending map[string]*time.Timer      // watched root -> debounce timer
	fire    chan *models.GameSave
}

// NewWatcher creates a watcher with the default debounce interval.
func NewWatcher(onChange BackupFunc, logger *events.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsw:      fsw,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger.WithField("component", "watcher"),
		saves:    make(map[string]*models.GameSave),
		pending:  make(map[string]*time.Timer),
		fire:     make(chan *models.GameSave, 16),
	}, nil
}

// SetDebounce overrides the settle interval. Test hook.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Add registers a save for monitoring. The save path must exist.
func (w *Watcher) Add(save *models.GameSave) error {
	if err := w.fsw.Add(save.Path); err != nil {
		return err
	}

	w.mu.Lock()
	w.saves[save.Path] = save
	w.mu.Unlock()

	w.logger.WithFields(map[string]interface{}{
		"game": save.Name,
		"path": save.Path,
	}).Info("Watching save")

	return nil
}

// Run processes filesystem events until the context is cancelled. It
// blocks, so callers run it in a goroutine or as the command main loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case save := <-w.fire:
			w.logger.WithField("game", save.Name).Info("Save changed, triggering backup")
			w.onChange(save)

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

// schedule restarts the debounce timer for the save owning the changed
// path.
func (w *Watcher) schedule(changedPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	save := w.ownerOf(changedPath)
	if save == nil {
		return
	}

	if timer, ok := w.pending[save.Path]; ok {
		timer.Stop()
	}

	target := save
	w.pending[save.Path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, target.Path)
		w.mu.Unlock()
		w.fire <- target
	})
}

// ownerOf maps a changed path back to its watched save. Callers hold the
// mutex.
func (w *Watcher) ownerOf(changedPath string) *models.GameSave {
	clean := filepath.Clean(changedPath)
	for root, save := range w.saves {
		if clean == root || strings.HasPrefix(clean, root+string(filepath.Separator)) {
			return save
		}
	}
	return nil
}
