package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn every time the session file at path is written, replaced or
// removed by anyone, including another dockeeper process. It blocks until ctx
// is done. The parent directory is watched so atomic renames are seen.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				logger.Debug("session_file_changed", "op", ev.Op.String())
				fn()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("session_watch_error", "error", err.Error())
		}
	}
}
