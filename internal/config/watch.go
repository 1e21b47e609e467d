package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 250 * time.Millisecond

// Watch reloads the config at path whenever it changes and passes the
// result to fn. Invalid files are logged and skipped so the caller keeps
// its previous config. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file so that
// atomic-rename saves are picked up.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	if fn == nil {
		return fmt.Errorf("watch %s: nil callback", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(watchDebounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("config watcher error: %v", err)

		case <-timer.C:
			cfg, err := LoadFrom(path)
			if err != nil {
				log.Printf("config reload skipped: %v", err)
				continue
			}
			fn(cfg)
		}
	}
}
