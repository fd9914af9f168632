package file

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/couchfeed/internal/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatcherClosed is returned by Run after Close.
var ErrWatcherClosed = errors.New("config watcher closed")

// Watcher reloads a ConfigStore whenever its file changes on disk.
// The parent directory is watched rather than the file itself because
// editors and ConfigStore.Save replace the file by rename.
type Watcher struct {
	store    *ConfigStore
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// NewWatcher creates a watcher for store's config file.
func NewWatcher(store *ConfigStore) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(store.Path())); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(store.Path()), err)
	}
	return &Watcher{store: store, debounce: DefaultDebounce, fs: fs}, nil
}

// SetDebounce overrides DefaultDebounce. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run blocks until ctx is cancelled or the watcher is closed. After each
// burst of changes to the config file it reloads the store and calls
// onChange. A file that fails to parse is logged and the previous values
// are kept.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			logger.Warn("config watcher: %v", err)

		case <-fire:
			fire = nil
			if err := w.store.Load(); err != nil {
				logger.Warn("config reload failed, keeping previous values: %v", err)
				continue
			}
			logger.Debug("config reloaded from %s", w.store.Path())
			if onChange != nil {
				onChange()
			}
		}
	}
}

// relevant reports whether event touches the config file. Chmod alone
// does not change content.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
