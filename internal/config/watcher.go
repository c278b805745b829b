package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the write bursts editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a Store when its config file changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the store's config file.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  w,
		store:    store,
		debounce: DefaultDebounce,
		logger:   logger,
	}, nil
}

// Run watches until ctx is cancelled. The directory is watched rather than
// the file so atomic rename-on-save and first-time creation are seen.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	path := w.store.Path()
	dir := filepath.Dir(path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	filename := filepath.Base(path)
	w.logger.Debug("config watcher started", "dir", dir)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-timer.C:
			if err := w.store.Reload(); err != nil {
				w.logger.Warn("config reload failed, keeping previous configuration", "error", err)
			}
		}
	}
}
