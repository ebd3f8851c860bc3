package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platform-mesh/golang-commons/logger"
)

// DefaultDebounce is the quiet period after the last write before the
// handler runs.
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher calls a handler whenever a single file is written or
// recreated. Editors often replace a file instead of writing it in place,
// so the parent directory is watched.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	onWrite func(path string)
	log     *logger.Logger

	mu sync.Mutex
}

func NewFileWatcher(onWrite func(path string), log *logger.Logger) (*FileWatcher, error) {
	if onWrite == nil {
		return nil, fmt.Errorf("file watcher needs a handler")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		onWrite: onWrite,
		log:     log,
	}, nil
}

// Watch blocks until ctx is done. Handler calls never overlap.
func (w *FileWatcher) Watch(ctx context.Context, filePath string, debounce time.Duration) error {
	defer w.watcher.Close()

	if filePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	fileDir := filepath.Dir(filePath)
	if err := w.watcher.Add(fileDir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", fileDir, err)
	}
	w.log.Info().Str("filePath", filePath).Msg("started watching file")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping file watcher")
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("file watcher events channel closed")
			}
			if !isWrite(event, filePath) {
				continue
			}
			w.log.Debug().Str("event", event.String()).Msg("file changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				w.mu.Lock()
				defer w.mu.Unlock()
				w.onWrite(filePath)
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("file watcher errors channel closed")
			}
			w.log.Error().Err(err).Msg("file watcher error")
		}
	}
}

func isWrite(event fsnotify.Event, target string) bool {
	return filepath.Clean(event.Name) == filepath.Clean(target) &&
		event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
