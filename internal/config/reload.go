package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long to wait after the last write before reloading.
const reloadDebounce = 500 * time.Millisecond

// #region reloader

// Reloader watches a config file and delivers reloaded configs to a callback.
type Reloader struct {
	path     string
	onReload func(*Config)
	debounce time.Duration
}

// NewReloader creates a watcher for the given config path.
func NewReloader(path string, onReload func(*Config)) *Reloader {
	return &Reloader{
		path:     path,
		onReload: onReload,
		debounce: reloadDebounce,
	}
}

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
// A config that fails to load is logged and skipped; the previous config
// stays active.
func (r *Reloader) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.path); err != nil {
		return fmt.Errorf("watch %q: %w", r.path, err)
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(r.debounce, func() {
					cfg, err := Load(r.path)
					if err != nil {
						log.Printf("[CONFIG] reload failed, keeping previous: %v", err)
						return
					}
					log.Printf("[CONFIG] reloaded %s", r.path)
					r.onReload(cfg)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CONFIG] watcher error: %v", err)
		}
	}
}

// #endregion reloader
