package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mediafx/internal/logging"
)

const watchDebounce = 500 * time.Millisecond

// watchFile calls fn once immediately and again after each burst of changes
// to path, until ctx is done. Editors that replace the file on save emit
// Create or Rename on the directory, so the parent directory is watched.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, fn func(context.Context)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	fn(ctx)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("manifest changed", logging.String("op", event.Op.String()))
			timer.Reset(debounce)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "file watcher error", "watch_error",
				logging.Error(werr),
				logging.String(logging.FieldImpact, "a manifest change may have been missed"),
			)
		case <-timer.C:
			fn(ctx)
		}
	}
}
