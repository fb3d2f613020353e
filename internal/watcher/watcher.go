package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/storage"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the override dataset into the store whenever the file changes
type Watcher struct {
	path      string
	db        *storage.DB
	fsWatcher *fsnotify.Watcher

	// Debouncing
	debounceDelay time.Duration
	pendingMu     sync.Mutex
	pending       int
	debounceTimer *time.Timer

	// Callbacks
	onReloadStart func()
	onReloadDone  func(persons, links int64, duration time.Duration)
	onError       func(error)

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures the watcher
type Option func(*Watcher)

// WithDebounceDelay sets the debounce delay
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnReloadStart sets the callback for when a reload starts
func WithOnReloadStart(fn func()) Option {
	return func(w *Watcher) {
		w.onReloadStart = fn
	}
}

// WithOnReloadDone sets the callback for when a reload completes
func WithOnReloadDone(fn func(persons, links int64, duration time.Duration)) Option {
	return func(w *Watcher) {
		w.onReloadDone = fn
	}
}

// WithOnError sets the callback for errors
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a watcher for the dataset file at path.
// The parent directory is watched since editors often replace files by rename.
func New(path string, db *storage.DB, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dataset path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		path:          abs,
		db:            db,
		fsWatcher:     fsWatcher,
		debounceDelay: DefaultDebounce,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return w, nil
}

// Path returns the watched dataset file
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.pendingMu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()
	})
	return err
}

// Run watches until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	w.Start()
	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return w.Stop()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	// A removed file is reloaded once it is written back.
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	w.pending++
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerReload)
}

func (w *Watcher) triggerReload() {
	w.pendingMu.Lock()
	n := w.pending
	w.pending = 0
	w.pendingMu.Unlock()

	if n == 0 {
		return
	}

	if w.onReloadStart != nil {
		w.onReloadStart()
	}

	start := time.Now()
	persons, links, err := w.Reload()
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	if w.onReloadDone != nil {
		w.onReloadDone(persons, links, time.Since(start))
	}
}

// Reload reads the dataset file and replaces the store contents wholesale.
// A file that fails to parse leaves the store untouched.
func (w *Watcher) Reload() (persons, links int64, err error) {
	d, err := dataset.LoadFile(w.path)
	if err != nil {
		return 0, 0, fmt.Errorf("reload %s: %w", filepath.Base(w.path), err)
	}
	if err := w.db.Seed(d); err != nil {
		return 0, 0, fmt.Errorf("reseed store: %w", err)
	}
	return w.db.GetStats()
}
