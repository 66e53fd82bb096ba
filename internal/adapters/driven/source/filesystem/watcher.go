package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/vintner-labs/vinsearch/internal/logger"
)

// Watch delivers the relative paths of created, changed, and removed
// documents until ctx is cancelled. New subdirectories are picked up as
// they appear. Callers debounce; raw editor save sequences can emit
// several events per file.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := s.watchTree(watcher); err != nil {
		watcher.Close()
		return nil, err
	}

	changes := make(chan string)

	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.handleEvent(ctx, watcher, event, changes)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// watchTree registers the root and every non-hidden subdirectory.
func (s *Source) watchTree(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent forwards document changes and tracks new directories.
func (s *Source) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, changes chan<- string) {
	// Pure permission changes carry no content change.
	if event.Op == fsnotify.Chmod {
		return
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	// A created directory joins the watch set so files inside it are seen.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				logger.Warn("Failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	if !s.isDocument(name) {
		return
	}

	rel, err := filepath.Rel(s.root, event.Name)
	if err != nil {
		return
	}

	logger.Debug("Source change: %s (%s)", rel, event.Op)
	select {
	case changes <- filepath.ToSlash(rel):
	case <-ctx.Done():
	}
}
