package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last file event before reloading.
const DefaultDebounce = 100 * time.Millisecond

type watchConfig struct {
	debounce time.Duration
}

// Watch reloads the settings file at path whenever it is written, created or renamed into place,
// and passes the new settings to onChange. Bursts of events within the debounce window cause one
// reload. Files that fail to load are logged and skipped, so onChange only ever sees valid
// settings. The directory is watched rather than the file, so editors that save by renaming a
// temporary file keep working.
//
// onChange runs on the watcher goroutine. Watch returns once the watcher is running; it stops
// when ctx is cancelled.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the settings file
//   - onChange: receives every successfully reloaded GraphicSettings
//   - options: functional options applied to the watch
//
// Returns:
//   - error: an error creating the watcher or watching the directory
func Watch(ctx context.Context, path string, onChange func(GraphicSettings), options ...WatchOption) error {
	cfg := watchConfig{debounce: DefaultDebounce}
	for _, opt := range options {
		opt(&cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		g, err := Load(abs)
		if err != nil {
			logger.Logger().Warn("graphic settings reload failed", "path", abs, "error", err)
			return
		}
		logger.Logger().Info("graphic settings reloaded", "path", abs)
		onChange(g)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(cfg.debounce, func() {
					if ctx.Err() == nil {
						reload()
					}
				})
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Logger().Warn("graphic settings watcher error", "path", abs, "error", err)
			}
		}
	}()
	return nil
}
