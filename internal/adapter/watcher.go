package adapter

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	m "github.com/mouse-blink/loom/internal/model"
)

// watchDebounce coalesces change bursts, such as an editor's write-then-
// rename save, into one rebuild.
const watchDebounce = 250 * time.Millisecond

// Watcher surfaces batched change notifications for a set of files.
type Watcher interface {
	// Watch blocks until ctx is done, invoking onChange after each settled
	// burst of changes to the watched paths.
	Watch(ctx context.Context, paths []m.Path, onChange func()) error
}

// FSWatcher implements Watcher on operating-system file notifications. It
// watches the parent directories of the given paths, so it also sees files
// created after the watch started.
//
// TODO: re-arm directory watches when a pass discovers paths outside the
// initial set.
type FSWatcher struct{}

// NewFSWatcher constructs an FSWatcher.
func NewFSWatcher() *FSWatcher {
	return &FSWatcher{}
}

// Watch runs the notification loop.
func (w *FSWatcher) Watch(ctx context.Context, paths []m.Path, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	defer func() {
		_ = watcher.Close()
	}()

	interest := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})

	for _, path := range paths {
		clean := filepath.Clean(string(path))
		interest[clean] = struct{}{}
		dirs[filepath.Dir(clean)] = struct{}{}
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op == fsnotify.Chmod {
				continue
			}

			if !relevantChange(interest, event.Name) {
				continue
			}

			debounce = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			return err

		case <-debounce:
			debounce = nil

			onChange()
		}
	}
}

// relevantChange reports whether an event concerns a watched file or a file
// that a fresh scan would pick up.
func relevantChange(interest map[string]struct{}, name string) bool {
	clean := filepath.Clean(name)

	if _, ok := interest[clean]; ok {
		return true
	}

	_, ok := scanExts[filepath.Ext(clean)]

	return ok
}
