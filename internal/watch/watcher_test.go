package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arionyxx/save-guardian/internal/events"
	"github.com/Arionyxx/save-guardian/internal/models"
)

func testLogger() *events.Logger {
	return events.NewTestLogger(events.ErrorLevel, "text", io.Discard)
}

type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) record(save *models.GameSave) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, save.Name)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherFiresAfterSettle(t *testing.T) {
	dir := t.TempDir()
	save := models.NewGameSave("Watched Game", dir, models.SaveTypeNonSteam, nil)

	rec := &recorder{}
	watcher, err := NewWatcher(rec.record, testLogger())
	require.NoError(t, err)
	watcher.SetDebounce(50 * time.Millisecond)
	require.NoError(t, watcher.Add(&save))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "slot1.sav"), []byte("x"), 0o644))

	waitFor(t, 2*time.Second, func() bool { return len(rec.snapshot()) == 1 })
	assert.Equal(t, []string{"Watched Game"}, rec.snapshot())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	save := models.NewGameSave("Bursty Game", dir, models.SaveTypeNonSteam, nil)

	rec := &recorder{}
	watcher, err := NewWatcher(rec.record, testLogger())
	require.NoError(t, err)
	watcher.SetDebounce(100 * time.Millisecond)
	require.NoError(t, watcher.Add(&save))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	// A burst of writes inside the settle window collapses into one
	// callback.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "slot1.sav"), []byte{byte(i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool { return len(rec.snapshot()) >= 1 })
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestWatcherIgnoresUnwatchedPaths(t *testing.T) {
	watched := t.TempDir()
	save := models.NewGameSave("Watched", watched, models.SaveTypeNonSteam, nil)

	rec := &recorder{}
	watcher, err := NewWatcher(rec.record, testLogger())
	require.NoError(t, err)
	watcher.SetDebounce(50 * time.Millisecond)
	require.NoError(t, watcher.Add(&save))

	assert.Nil(t, watcher.ownerOf(filepath.Join(t.TempDir(), "other", "file.sav")))
	assert.NotNil(t, watcher.ownerOf(filepath.Join(watched, "file.sav")))
}
