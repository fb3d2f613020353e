package watcher

import (
	"bytes"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/storage"
)

func writeDataset(t *testing.T, path string, d *dataset.Dataset) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dataset.Write(&buf, d))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func setup(t *testing.T, opts ...Option) (*Watcher, *storage.DB, string) {
	t.Helper()
	db, err := storage.OpenSeeded(storage.MemoryPath, dataset.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	path := filepath.Join(t.TempDir(), "dataset.toml")
	writeDataset(t, path, dataset.Default())

	w, err := New(path, db, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })
	return w, db, path
}

func trimmed() *dataset.Dataset {
	d := dataset.Default()
	d.Candidates = d.Candidates[:1]
	d.Sources = d.Sources[:2]
	return d
}

func TestReload(t *testing.T) {
	w, db, path := setup(t)
	writeDataset(t, path, trimmed())

	persons, links, err := w.Reload()
	require.NoError(t, err)
	assert.EqualValues(t, 7, persons)
	assert.EqualValues(t, 7, links)

	candidates, err := db.GetCandidates()
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	sources, err := db.GetSources()
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestReloadKeepsStoreOnBadFile(t *testing.T) {
	w, db, path := setup(t)
	require.NoError(t, os.WriteFile(path, []byte("[[persons"), 0o644))

	_, _, err := w.Reload()
	assert.Error(t, err)

	candidates, err := db.GetCandidates()
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestDebounceCoalescesEvents(t *testing.T) {
	var reloads atomic.Int32
	w, _, path := setup(t,
		WithDebounceDelay(30*time.Millisecond),
		WithOnReloadStart(func() { reloads.Add(1) }),
	)

	for range 5 {
		w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	}
	w.handleEvent(fsnotify.Event{Name: filepath.Join(filepath.Dir(path), "other.toml"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Chmod})

	assert.Eventually(t, func() bool { return reloads.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, reloads.Load())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	done := make(chan int64, 4)
	errs := make(chan error, 4)
	w, db, path := setup(t,
		WithDebounceDelay(20*time.Millisecond),
		WithOnReloadDone(func(persons, links int64, _ time.Duration) { done <- persons }),
		WithOnError(func(err error) { errs <- err }),
	)
	w.Start()

	writeDataset(t, path, trimmed())

	select {
	case persons := <-done:
		assert.EqualValues(t, 7, persons)
	case err := <-errs:
		t.Fatalf("reload failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}

	candidates, err := db.GetCandidates()
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestStopIsIdempotent(t *testing.T) {
	w, _, path := setup(t, WithDebounceDelay(time.Hour))
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())

	// events after stop are dropped
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	assert.Equal(t, 1, w.pending)
}
