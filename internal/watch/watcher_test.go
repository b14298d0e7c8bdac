package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the source watcher:
// - A burst of writes collapses into one callback after the quiet period
// - Files with unwatched extensions are ignored
// - Files created in new subdirectories are picked up
// - Pause suppresses callbacks; Resume flushes what piled up
// - Stop is idempotent and safe before Start

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *batchRecorder) record(files []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, files)
}

func (r *batchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *batchRecorder) allFiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var files []string
	for _, batch := range r.batches {
		files = append(files, batch...)
	}
	return files
}

func startWatcher(t *testing.T, rootDir string) (*sourceWatcher, *batchRecorder) {
	t.Helper()
	w, err := New([]string{rootDir}, []string{".ts", ".go"})
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	sw := w.(*sourceWatcher)
	sw.debounce = 50 * time.Millisecond

	recorder := &batchRecorder{}
	require.NoError(t, w.Start(context.Background(), recorder.record))
	return sw, recorder
}

func TestWatcher_BatchesWrites(t *testing.T) {
	rootDir := t.TempDir()
	_, recorder := startWatcher(t, rootDir)

	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "a.ts"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "b.ts"), []byte("2"), 0644))

	require.Eventually(t, func() bool { return recorder.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	files := recorder.allFiles()
	assert.Contains(t, files, filepath.Join(rootDir, "a.ts"))
	assert.Contains(t, files, filepath.Join(rootDir, "b.ts"))
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	rootDir := t.TempDir()
	_, recorder := startWatcher(t, rootDir)

	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "notes.md"), []byte("x"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, recorder.count())
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	rootDir := t.TempDir()
	_, recorder := startWatcher(t, rootDir)

	newDir := filepath.Join(rootDir, "feature")
	require.NoError(t, os.Mkdir(newDir, 0755))
	// Give the watcher a beat to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(newDir, "c.ts"), []byte("3"), 0644))

	require.Eventually(t, func() bool { return recorder.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, recorder.allFiles(), filepath.Join(newDir, "c.ts"))
}

func TestWatcher_PauseAndResume(t *testing.T) {
	rootDir := t.TempDir()
	w, recorder := startWatcher(t, rootDir)

	w.Pause()
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "a.ts"), []byte("1"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, recorder.count())

	w.Resume()
	require.Eventually(t, func() bool { return recorder.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, recorder.allFiles(), filepath.Join(rootDir, "a.ts"))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := New([]string{t.TempDir()}, []string{".ts"})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background(), func([]string) {}))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w, err := New([]string{t.TempDir()}, []string{".ts"})
	require.NoError(t, err)
	require.NoError(t, w.Stop())
}
