package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// ConfigWatcher reloads the server configuration when the config file
// changes on disk. It watches the containing directory rather than the file
// itself because editors and config management tools replace files by
// rename, which silently drops a watch placed on the file.
type ConfigWatcher struct {
	path     string
	reloader Reloader
	logger   *slog.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// Reloader is implemented by the server.
type Reloader interface {
	Reload() error
}

// NewConfigWatcher creates a watcher for the given config file path.
func NewConfigWatcher(path string, reloader Reloader, logger *slog.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:     path,
		reloader: reloader,
		logger:   logger,
		debounce: watchDebounce,
	}
}

// Start registers the filesystem watch and launches the event loop. It
// returns after the watch is in place; events are handled in a goroutine
// until ctx is cancelled.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.logger.Info("watching configuration file", "path", w.path)
	go w.loop(ctx, fw)
	return nil
}

func (w *ConfigWatcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *ConfigWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	// Editors fire several events per save; collapse them into one reload.
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	if err := w.reloader.Reload(); err != nil {
		w.logger.Error("failed to reload configuration after file change", "error", err)
		return
	}
	w.logger.Info("configuration reloaded after file change", "path", w.path)
}
