// Package filewatcher provides file system monitoring adapters.
// Adapter implementing ports.FileWatcher for the raw input drop directory.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/txnsight/internal/domain/ports"
)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // File extensions to watch, e.g. ".csv"
	logger     *zap.Logger
}

// NewFSNotifyWatcher creates a new file watcher. It watches .csv files
// when no extensions are given.
func NewFSNotifyWatcher(extensions []string, logger *zap.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".csv"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: extensions,
		logger:     logger.Named("watcher"),
	}, nil
}

// Watch starts monitoring the directory and emits events.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = ports.FileDeleted
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.String("dir", dir), zap.Error(err))
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Debounce coalesces bursts of create and modify events per path and emits
// the last one after the path has been quiet for wait. Deletes are dropped.
func Debounce(ctx context.Context, in <-chan ports.FileEvent, wait time.Duration) <-chan ports.FileEvent {
	if wait < 4*time.Millisecond {
		wait = 4 * time.Millisecond
	}
	out := make(chan ports.FileEvent)

	go func() {
		defer close(out)
		pending := make(map[string]ports.FileEvent)
		deadlines := make(map[string]time.Time)
		ticker := time.NewTicker(wait / 4)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				if ev.Operation == ports.FileDeleted {
					delete(pending, ev.Path)
					delete(deadlines, ev.Path)
					continue
				}
				pending[ev.Path] = ev
				deadlines[ev.Path] = time.Now().Add(wait)
			case now := <-ticker.C:
				for path, deadline := range deadlines {
					if now.Before(deadline) {
						continue
					}
					ev := pending[path]
					delete(pending, path)
					delete(deadlines, path)
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}
