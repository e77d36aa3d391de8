package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/logger"
)

// defaultDebounce coalesces the burst of events a single file copy produces.
const defaultDebounce = 500 * time.Millisecond

// WithDebounce sets how long Watch waits for a name to go quiet before reporting it.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// Watch reports created or modified files until ctx is cancelled.
// New subdirectories are watched as they appear. Each name is reported
// once per quiet period, in lexical order.
func (s *Store) Watch(ctx context.Context, fn func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addTree(watcher, s.root); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	flush := func() {
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		clear(pending)
		sort.Strings(names)
		for _, name := range names {
			fn(name)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, changed := s.handleEvent(watcher, event)
			if !changed {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(s.debounce)

		case <-timer.C:
			flush()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent returns the object name for a Create or Write on a visible file.
// Newly created directories are added to the watcher.
func (s *Store) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !isHidden(info.Name()) {
			if err := s.addTree(watcher, event.Name); err != nil {
				logger.Warn("watching %s: %v", event.Name, err)
			}
		}
		return "", false
	}

	name, err := s.objectName(event.Name)
	if err != nil || !s.matches(name) {
		return "", false
	}
	return name, true
}

func (s *Store) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
